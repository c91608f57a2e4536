package multimorph

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// Registry maps morph type aliases stored in {name}_type columns to Go
// model types, and back.
type Registry struct {
	mu      sync.RWMutex
	aliases map[string]reflect.Type
	types   map[reflect.Type]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		aliases: make(map[string]reflect.Type),
		types:   make(map[reflect.Type]string),
	}
}

// DefaultRegistry is used by every declaration that does not pass WithRegistry.
var DefaultRegistry = NewRegistry()

// Register records alias for the struct type of model on DefaultRegistry.
func Register(alias string, model any) {
	DefaultRegistry.Register(alias, model)
}

// RegisterModels registers models on DefaultRegistry under their table names.
func RegisterModels(db *gorm.DB, models ...any) error {
	return DefaultRegistry.RegisterModels(db, models...)
}

// Register records alias for the struct type of model. model may be a value
// or a pointer. Re-registering an alias replaces the previous mapping.
// It panics if alias is empty or model is nil, like database/sql.Register.
func (r *Registry) Register(alias string, model any) {
	if alias == "" {
		panic("multimorph: Register alias is empty")
	}
	t := structType(model)
	if t == nil {
		panic("multimorph: Register model is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.aliases[alias]; ok {
		delete(r.types, prev)
	}
	if prev, ok := r.types[t]; ok {
		delete(r.aliases, prev)
	}
	r.aliases[alias] = t
	r.types[t] = alias
}

// RegisterModels registers each model under its GORM table name, which is
// the value GORM itself writes for polymorphic associations.
func (r *Registry) RegisterModels(db *gorm.DB, models ...any) error {
	for _, model := range models {
		s, err := parseSchema(db, model)
		if err != nil {
			return err
		}
		r.Register(s.Table, model)
	}
	return nil
}

// MorphClass returns the value stored in a {name}_type column for model:
// its registered alias, or its table name when none is registered.
func (r *Registry) MorphClass(db *gorm.DB, model any) (string, error) {
	t := structType(model)
	if t == nil {
		return "", ErrInvalidModel
	}

	r.mu.RLock()
	alias, ok := r.types[t]
	r.mu.RUnlock()
	if ok {
		return alias, nil
	}

	s, err := parseSchema(db, model)
	if err != nil {
		return "", err
	}
	return s.Table, nil
}

// Resolve returns the model type registered for alias.
func (r *Registry) Resolve(alias string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.aliases[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMorphType, alias)
	}
	return t, nil
}

// New returns a pointer to a new zero model registered for alias.
func (r *Registry) New(alias string) (any, error) {
	t, err := r.Resolve(alias)
	if err != nil {
		return nil, err
	}
	return reflect.New(t).Interface(), nil
}

// Aliases returns the registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aliases := make([]string, 0, len(r.aliases))
	for alias := range r.aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	return aliases
}

func structType(model any) reflect.Type {
	if model == nil {
		return nil
	}
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
