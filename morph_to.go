package multimorph

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/iancoleman/strcase"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/helixml/multimorph/internal/database"
)

// MorphTo is the inverse of MorphMany and MorphOne: it resolves the owner
// a row points at through its {name}_type and {name}_id columns.
type MorphTo struct {
	db          *gorm.DB
	parent      any
	parentValue reflect.Value
	parentType  reflect.Type
	name        string
	columns     Columns
	typeField   *schema.Field
	idField     *schema.Field
	labelField  *schema.Field
	explicitKey string
	registry    *Registry
	morphType   string
	target      reflect.Type
	ownerKey    string
	query       *gorm.DB
	placeholder bool
}

// NewMorphTo declares the inverse relationship on parent. name is snake
// cased to derive the columns, so "Attachable" and "attachable" both read
// attachable_type and attachable_id.
//
// When the stored type is empty the relationship is a placeholder whose
// query targets parent's own model and is never executed by Get.
func NewMorphTo(db *gorm.DB, parent any, name string, opts ...Option) (*MorphTo, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	rv, err := addressable(parent)
	if err != nil {
		return nil, fmt.Errorf("morph to %s: %w", name, err)
	}

	d := newDescriptor(strcase.ToSnake(name), "", opts)
	ctx := contextOf(db)
	base := db.Session(&gorm.Session{NewDB: true})

	parentSchema, err := parseSchema(base, parent)
	if err != nil {
		return nil, err
	}
	cols := d.columns()
	typeField, err := lookupField(parentSchema, cols.Type)
	if err != nil {
		return nil, fmt.Errorf("morph to %s: %w", name, err)
	}
	idField, err := lookupField(parentSchema, cols.ID)
	if err != nil {
		return nil, fmt.Errorf("morph to %s: %w", name, err)
	}
	// Optional: only AssociateAs with a label needs it.
	labelField, _ := lookupField(parentSchema, cols.Relationship)

	r := &MorphTo{
		db:          base,
		parent:      parent,
		parentValue: rv,
		parentType:  parentSchema.ModelType,
		name:        d.name,
		columns:     cols,
		typeField:   typeField,
		idField:     idField,
		labelField:  labelField,
		explicitKey: d.ownerKey,
		registry:    d.registry,
	}

	stored, _ := typeField.ValueOf(ctx, rv)
	morphType := stringValue(stored)
	if morphType == "" {
		r.unbind(ctx)
		return r, nil
	}
	target, err := r.registry.Resolve(morphType)
	if err != nil {
		return nil, fmt.Errorf("morph to %s: %w", name, err)
	}
	if err := r.bind(ctx, morphType, target); err != nil {
		return nil, fmt.Errorf("morph to %s: %w", name, err)
	}
	return r, nil
}

// bind points the relationship at target, keyed by the owner's current id.
func (r *MorphTo) bind(ctx context.Context, morphType string, target reflect.Type) error {
	targetSchema, err := parseSchema(r.db, reflect.New(target).Interface())
	if err != nil {
		return err
	}
	ownerField, err := keyField(targetSchema, r.explicitKey)
	if err != nil {
		return err
	}

	query := r.db.Model(reflect.New(target).Interface())
	if !ConstraintsDisabled(ctx) {
		id, _ := r.idField.ValueOf(ctx, r.parentValue)
		query = database.NewQuery().Equal(targetSchema.Table+"."+ownerField.DBName, id).Apply(query)
	}

	r.morphType = morphType
	r.target = target
	r.ownerKey = ownerField.DBName
	r.placeholder = false
	r.query = query.Session(&gorm.Session{})
	return nil
}

// unbind turns the relationship into a placeholder on the owner's own model.
func (r *MorphTo) unbind(ctx context.Context) {
	r.morphType = ""
	r.target = nil
	r.ownerKey = r.explicitKey
	r.placeholder = true
	r.query = r.db.Model(reflect.New(r.parentType).Interface()).Session(&gorm.Session{})
	zerolog.Ctx(ctx).Debug().
		Str("relationship", r.name).
		Str("model", r.parentType.Name()).
		Msg("morph type empty, using placeholder query")
}

// Placeholder reports whether the owner currently points at nothing.
func (r *MorphTo) Placeholder() bool {
	return r.placeholder
}

// Query returns the constrained target query.
func (r *MorphTo) Query() *gorm.DB {
	return r.query
}

// Columns returns the unqualified morph columns on the owning row.
func (r *MorphTo) Columns() Columns {
	return r.columns
}

// Name returns the snake cased morph name.
func (r *MorphTo) Name() string {
	return r.name
}

// MorphType returns the type the relationship points at: the stored value
// read at construction, or the one set by the last Associate or Dissociate.
func (r *MorphTo) MorphType() string {
	return r.morphType
}

// OwnerKey returns the target column matched against the id column. It is
// empty for a placeholder without an explicit owner key.
func (r *MorphTo) OwnerKey() string {
	return r.ownerKey
}

// Target returns the resolved target model type, or nil for a placeholder.
func (r *MorphTo) Target() reflect.Type {
	return r.target
}

// Get loads the target row. It returns nil without querying for a
// placeholder or when the id is zero.
func (r *MorphTo) Get(ctx context.Context) (any, error) {
	if r.placeholder {
		return nil, nil
	}
	if _, zero := r.idField.ValueOf(ctx, r.parentValue); zero {
		return nil, nil
	}
	target := reflect.New(r.target).Interface()
	if err := r.query.WithContext(ctx).Take(target).Error; err != nil {
		return nil, fmt.Errorf("get %s: %w", r.name, err)
	}
	return target, nil
}

// association is a validated target, ready to be written to the owner.
type association struct {
	key   any
	class string
	model reflect.Type
}

func (r *MorphTo) resolveTarget(ctx context.Context, target any) (association, error) {
	rv, err := addressable(target)
	if err != nil {
		return association{}, err
	}
	targetSchema, err := parseSchema(r.db, target)
	if err != nil {
		return association{}, err
	}
	ownerField, err := keyField(targetSchema, r.explicitKey)
	if err != nil {
		return association{}, err
	}
	class, err := r.registry.MorphClass(r.db, target)
	if err != nil {
		return association{}, err
	}
	key, _ := ownerField.ValueOf(ctx, rv)
	return association{key: key, class: class, model: targetSchema.ModelType}, nil
}

// Associate points the owner at target by setting its type and id
// attributes. The discriminant is left untouched and nothing is persisted.
// Get then loads target.
func (r *MorphTo) Associate(target any) (any, error) {
	return r.associate(target, "")
}

// AssociateAs records label in the {name}_relationship attribute, then
// associates target. An empty label behaves like Associate. Nothing is
// written to the owner unless every attribute can be set.
func (r *MorphTo) AssociateAs(target any, label string) (any, error) {
	if label == "" {
		zerolog.Ctx(contextOf(r.db)).Debug().
			Str("relationship", r.name).
			Msg("associate without label, discriminant untouched")
	}
	return r.associate(target, label)
}

func (r *MorphTo) associate(target any, label string) (any, error) {
	ctx := contextOf(r.db)
	if label != "" && r.labelField == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, r.columns.Relationship)
	}
	a, err := r.resolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	if label != "" {
		if err := r.labelField.Set(ctx, r.parentValue, label); err != nil {
			return nil, fmt.Errorf("set %s: %w", r.labelField.DBName, err)
		}
	}
	if err := r.idField.Set(ctx, r.parentValue, a.key); err != nil {
		return nil, fmt.Errorf("set %s: %w", r.idField.DBName, err)
	}
	if err := r.typeField.Set(ctx, r.parentValue, a.class); err != nil {
		return nil, fmt.Errorf("set %s: %w", r.typeField.DBName, err)
	}
	if err := r.bind(ctx, a.class, a.model); err != nil {
		return nil, err
	}
	return target, nil
}

// Dissociate clears the type and id attributes and turns the relationship
// into a placeholder. The discriminant is left untouched.
func (r *MorphTo) Dissociate() {
	ctx := contextOf(r.db)
	clearField(ctx, r.idField, r.parentValue)
	clearField(ctx, r.typeField, r.parentValue)
	r.unbind(ctx)
}

// eagerConcurrency bounds the per-type owner queries EagerLoadMorphTo runs at once.
const eagerConcurrency = 4

// EagerLoadMorphTo loads the owners of every row in children, one query per
// stored type, and hands each child its owner. Children with an empty type
// or id, or whose owner is missing, are not passed to assign. assign is
// always called from the calling goroutine.
func EagerLoadMorphTo[C any](ctx context.Context, db *gorm.DB, children []C, name string, assign func(C, any), opts ...Option) error {
	if len(children) == 0 {
		return nil
	}
	if name == "" {
		return ErrNameRequired
	}
	d := newDescriptor(strcase.ToSnake(name), "", opts)
	cols := d.columns()

	childSchema, err := parseSchema(db, children[0])
	if err != nil {
		return err
	}
	typeField, err := lookupField(childSchema, cols.Type)
	if err != nil {
		return err
	}
	idField, err := lookupField(childSchema, cols.ID)
	if err != nil {
		return err
	}

	type group struct {
		indexes []int
		keys    []any
		seen    map[string]bool
	}
	groups := make(map[string]*group)
	for i, c := range children {
		rv := reflect.ValueOf(c)
		stored, _ := typeField.ValueOf(ctx, rv)
		morphType := stringValue(stored)
		id, zero := idField.ValueOf(ctx, rv)
		if morphType == "" || zero {
			continue
		}
		grp, ok := groups[morphType]
		if !ok {
			grp = &group{seen: make(map[string]bool)}
			groups[morphType] = grp
		}
		grp.indexes = append(grp.indexes, i)
		if k := keyString(id); !grp.seen[k] {
			grp.seen[k] = true
			grp.keys = append(grp.keys, id)
		}
	}

	types := make([]string, 0, len(groups))
	for morphType := range groups {
		types = append(types, morphType)
	}
	sort.Strings(types)

	loaded := make([]map[string]any, len(types))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(eagerConcurrency)
	for i, morphType := range types {
		g.Go(func() error {
			owners, err := loadOwners(gctx, db, d, morphType, groups[morphType].keys)
			if err != nil {
				return err
			}
			loaded[i] = owners
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, morphType := range types {
		for _, idx := range groups[morphType].indexes {
			id, _ := idField.ValueOf(ctx, reflect.ValueOf(children[idx]))
			if owner, ok := loaded[i][keyString(id)]; ok {
				assign(children[idx], owner)
			}
		}
	}
	return nil
}

func loadOwners(ctx context.Context, db *gorm.DB, d descriptor, morphType string, keys []any) (map[string]any, error) {
	target, err := d.registry.Resolve(morphType)
	if err != nil {
		return nil, err
	}
	targetSchema, err := parseSchema(db, reflect.New(target).Interface())
	if err != nil {
		return nil, err
	}
	ownerField, err := keyField(targetSchema, d.ownerKey)
	if err != nil {
		return nil, err
	}

	rows := reflect.New(reflect.SliceOf(reflect.PointerTo(target)))
	query := database.NewQuery().
		In(targetSchema.Table+"."+ownerField.DBName, keys).
		Apply(session(db, ctx).Model(reflect.New(target).Interface()))
	if err := query.Find(rows.Interface()).Error; err != nil {
		return nil, fmt.Errorf("eager load %s: %w", morphType, err)
	}

	slice := rows.Elem()
	owners := make(map[string]any, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		owner := slice.Index(i)
		key, _ := ownerField.ValueOf(ctx, owner)
		owners[keyString(key)] = owner.Interface()
	}
	zerolog.Ctx(ctx).Debug().
		Str("morph_type", morphType).
		Int("keys", len(keys)).
		Int("rows", slice.Len()).
		Msg("eager loaded morph owners")
	return owners, nil
}
