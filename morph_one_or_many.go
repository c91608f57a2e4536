package multimorph

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/helixml/multimorph/internal/database"
)

// morphOneOrMany is the state shared by MorphMany and MorphOne: a related
// query constrained to one owner, one morph class and one label.
type morphOneOrMany[T any] struct {
	db          *gorm.DB
	parent      any
	parentTable string
	localField  *schema.Field
	parentKey   any
	morphClass  string
	label       string
	related     *schema.Schema
	idField     *schema.Field
	columns     Columns
	query       *gorm.DB
	constrained bool
}

func newMorphOneOrMany[T any](db *gorm.DB, parent any, name, label string, opts []Option) (morphOneOrMany[T], error) {
	var r morphOneOrMany[T]
	if name == "" {
		return r, ErrNameRequired
	}
	if label == "" {
		return r, fmt.Errorf("%w: %s", ErrLabelRequired, name)
	}
	if parent == nil {
		return r, fmt.Errorf("%w: parent is nil", ErrInvalidModel)
	}

	d := newDescriptor(name, label, opts)
	ctx := contextOf(db)
	base := db.Session(&gorm.Session{NewDB: true})

	related, err := parseSchema(base, new(T))
	if err != nil {
		return r, err
	}
	parentSchema, err := parseSchema(base, parent)
	if err != nil {
		return r, err
	}
	localField, err := keyField(parentSchema, d.localKey)
	if err != nil {
		return r, err
	}
	cols := d.columns()
	for _, column := range cols.Names() {
		if _, err := lookupField(related, column); err != nil {
			return r, err
		}
	}
	idField, _ := lookupField(related, cols.ID)
	morphClass, err := d.registry.MorphClass(base, parent)
	if err != nil {
		return r, err
	}
	parentKey, _ := localField.ValueOf(ctx, reflect.ValueOf(parent))

	r = morphOneOrMany[T]{
		db:          base,
		parent:      parent,
		parentTable: parentSchema.Table,
		localField:  localField,
		parentKey:   parentKey,
		morphClass:  morphClass,
		label:       label,
		related:     related,
		idField:     idField,
		columns:     cols.Qualify(related.Table),
	}

	query := base.Model(new(T))
	if ConstraintsDisabled(ctx) {
		zerolog.Ctx(ctx).Debug().
			Str("relationship", label).
			Str("table", related.Table).
			Msg("morph constraints suppressed")
	} else {
		query = r.constraints().Apply(query)
		r.constrained = true
	}
	r.query = query.Session(&gorm.Session{})
	return r, nil
}

func (r *morphOneOrMany[T]) constraints() database.Query {
	return database.NewQuery().
		Equal(r.columns.ID, r.parentKey).
		Equal(r.columns.Type, r.morphClass).
		Equal(r.columns.Relationship, r.label)
}

func (r *morphOneOrMany[T]) eagerConstraints(keys []any) database.Query {
	return database.NewQuery().
		Equal(r.columns.Type, r.morphClass).
		In(r.columns.ID, keys).
		Equal(r.columns.Relationship, r.label)
}

func (r *morphOneOrMany[T]) existenceConstraints() database.Query {
	return database.NewQuery().
		EqualColumn(r.columns.ID, r.parentTable+"."+r.localField.DBName).
		Equal(r.columns.Type, r.morphClass).
		Equal(r.columns.Relationship, r.label)
}

// Query returns the constrained related query. It is safe to chain from
// repeatedly.
func (r *morphOneOrMany[T]) Query() *gorm.DB {
	return r.query
}

// Constrained reports whether the single-record constraints were applied.
func (r *morphOneOrMany[T]) Constrained() bool {
	return r.constrained
}

// Columns returns the morph columns qualified with the related table.
func (r *morphOneOrMany[T]) Columns() Columns {
	return r.columns
}

// Label returns the relationship label written to the discriminant column.
func (r *morphOneOrMany[T]) Label() string {
	return r.label
}

// MorphClass returns the value written to the type column.
func (r *morphOneOrMany[T]) MorphClass() string {
	return r.morphClass
}

// LocalKey returns the owner column whose value is written to the id column.
func (r *morphOneOrMany[T]) LocalKey() string {
	return r.localField.DBName
}

// ParentKey returns the owner's local key value.
func (r *morphOneOrMany[T]) ParentKey() any {
	return r.parentKey
}

// Parent returns the owning model.
func (r *morphOneOrMany[T]) Parent() any {
	return r.parent
}

// Make sets the type, id and discriminant attributes on model without
// persisting it.
func (r *morphOneOrMany[T]) Make(ctx context.Context, model *T) error {
	rv, err := addressable(model)
	if err != nil {
		return err
	}
	values := []struct {
		column string
		value  any
	}{
		{r.columns.Relationship, r.label},
		{r.columns.Type, r.morphClass},
		{r.columns.ID, r.parentKey},
	}
	for _, v := range values {
		f, err := lookupField(r.related, v.column)
		if err != nil {
			return err
		}
		if err := f.Set(ctx, rv, v.value); err != nil {
			return fmt.Errorf("set %s: %w", f.DBName, err)
		}
	}
	return nil
}

// Create makes model and inserts it.
func (r *morphOneOrMany[T]) Create(ctx context.Context, model *T) error {
	if err := r.Make(ctx, model); err != nil {
		return err
	}
	if err := session(r.db, ctx).Create(model).Error; err != nil {
		return fmt.Errorf("create %s: %w", r.label, err)
	}
	zerolog.Ctx(ctx).Debug().
		Str("relationship", r.label).
		Str("table", r.related.Table).
		Msg("created related row")
	return nil
}

// CreateMany makes and inserts every model in one transaction.
func (r *morphOneOrMany[T]) CreateMany(ctx context.Context, models []*T) error {
	if len(models) == 0 {
		return nil
	}
	return database.WithTransaction(ctx, r.db, func(tx *gorm.DB) error {
		for _, model := range models {
			if err := r.Make(ctx, model); err != nil {
				return err
			}
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("create %s: %w", r.label, err)
			}
		}
		zerolog.Ctx(ctx).Debug().
			Str("relationship", r.label).
			Int("count", len(models)).
			Msg("created related rows")
		return nil
	})
}

// Save makes model and inserts or updates it.
func (r *morphOneOrMany[T]) Save(ctx context.Context, model *T) error {
	if err := r.Make(ctx, model); err != nil {
		return err
	}
	if err := session(r.db, ctx).Save(model).Error; err != nil {
		return fmt.Errorf("save %s: %w", r.label, err)
	}
	return nil
}

// Count returns the number of related rows.
func (r *morphOneOrMany[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.query.WithContext(ctx).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", r.label, err)
	}
	return n, nil
}

// Exists reports whether at least one related row exists.
func (r *morphOneOrMany[T]) Exists(ctx context.Context) (bool, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Has returns a scope for owner queries keeping owners with at least one
// related row under this label.
func (r *morphOneOrMany[T]) Has() func(*gorm.DB) *gorm.DB {
	return r.existence("EXISTS")
}

// DoesntHave returns a scope for owner queries keeping owners with no
// related row under this label.
func (r *morphOneOrMany[T]) DoesntHave() func(*gorm.DB) *gorm.DB {
	return r.existence("NOT EXISTS")
}

func (r *morphOneOrMany[T]) existence(keyword string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		sub := session(r.db, contextOf(db)).Model(new(T)).Select("1")
		sub = r.existenceConstraints().Apply(sub)
		return db.Where(clause.Expr{SQL: keyword + " (?)", Vars: []any{sub}})
	}
}

// keyOf returns the normalised local key of parent, or "" when unset.
func (r *morphOneOrMany[T]) keyOf(ctx context.Context, parent any) (string, any) {
	v, zero := r.localField.ValueOf(ctx, reflect.ValueOf(parent))
	if zero {
		return "", nil
	}
	return keyString(v), v
}

// eager loads every related row for keys in one query, grouped by
// normalised id. Rows keep primary key order within a group.
func (r *morphOneOrMany[T]) eager(ctx context.Context, keys []any) (map[string][]T, error) {
	dict := make(map[string][]T)
	if len(keys) == 0 {
		return dict, nil
	}
	var rows []T
	query := r.eagerConstraints(keys).Apply(session(r.db, ctx).Model(new(T)))
	if pk := r.related.PrioritizedPrimaryField; pk != nil {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Table: r.related.Table, Name: pk.DBName}})
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("eager load %s: %w", r.label, err)
	}
	for i := range rows {
		v, _ := r.idField.ValueOf(ctx, reflect.ValueOf(&rows[i]))
		k := keyString(v)
		dict[k] = append(dict[k], rows[i])
	}
	zerolog.Ctx(ctx).Debug().
		Str("relationship", r.label).
		Int("owners", len(keys)).
		Int("rows", len(rows)).
		Msg("eager loaded related rows")
	return dict, nil
}
