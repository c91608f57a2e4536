package multimorph

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// MorphOne is a one-to-one polymorphic relationship from an owner to a row
// of T, restricted to one relationship label.
type MorphOne[T any] struct {
	morphOneOrMany[T]
}

// NewMorphOne declares a labelled one-to-one polymorphic relationship.
func NewMorphOne[T any](db *gorm.DB, parent any, name, label string, opts ...Option) (*MorphOne[T], error) {
	core, err := newMorphOneOrMany[T](db, parent, name, label, opts)
	if err != nil {
		return nil, fmt.Errorf("morph one %s: %w", name, err)
	}
	return &MorphOne[T]{morphOneOrMany: core}, nil
}

// First returns the related row with the lowest primary key. It returns an
// error wrapping gorm.ErrRecordNotFound when there is none.
func (r *MorphOne[T]) First(ctx context.Context) (*T, error) {
	var row T
	if err := r.query.WithContext(ctx).First(&row).Error; err != nil {
		return nil, fmt.Errorf("first %s: %w", r.label, err)
	}
	return &row, nil
}

// EagerLoadOne loads the relationship returned by relation for every parent
// with one query and hands each parent its first row, or nil.
func EagerLoadOne[P any, T any](ctx context.Context, parents []P, relation func(P) (*MorphOne[T], error), assign func(P, *T)) error {
	if len(parents) == 0 {
		return nil
	}
	rel, err := relation(parents[0])
	if err != nil {
		return err
	}
	keys, values := parentKeys(ctx, &rel.morphOneOrMany, parents)
	dict, err := rel.eager(ctx, values)
	if err != nil {
		return err
	}
	for i, p := range parents {
		rows := dict[keys[i]]
		if len(rows) == 0 {
			assign(p, nil)
			continue
		}
		assign(p, &rows[0])
	}
	return nil
}
