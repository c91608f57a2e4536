package multimorph

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// MorphMany is a one-to-many polymorphic relationship from an owner to rows
// of T, restricted to one relationship label.
type MorphMany[T any] struct {
	morphOneOrMany[T]
}

// NewMorphMany declares a labelled one-to-many polymorphic relationship
// from parent to rows of T using the {name}_type, {name}_id and
// {name}_relationship columns of T.
func NewMorphMany[T any](db *gorm.DB, parent any, name, label string, opts ...Option) (*MorphMany[T], error) {
	core, err := newMorphOneOrMany[T](db, parent, name, label, opts)
	if err != nil {
		return nil, fmt.Errorf("morph many %s: %w", name, err)
	}
	return &MorphMany[T]{morphOneOrMany: core}, nil
}

// Find returns every related row.
func (r *MorphMany[T]) Find(ctx context.Context) ([]T, error) {
	var rows []T
	if err := r.query.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find %s: %w", r.label, err)
	}
	return rows, nil
}

// EagerLoadMany loads the relationship returned by relation for every parent
// with one query and hands each parent its rows. relation is called once,
// on the first parent, to obtain the relationship definition.
func EagerLoadMany[P any, T any](ctx context.Context, parents []P, relation func(P) (*MorphMany[T], error), assign func(P, []T)) error {
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
		assign(p, dict[keys[i]])
	}
	return nil
}

func parentKeys[P any, T any](ctx context.Context, r *morphOneOrMany[T], parents []P) ([]string, []any) {
	keys := make([]string, len(parents))
	values := make([]any, 0, len(parents))
	seen := make(map[string]bool, len(parents))
	for i, p := range parents {
		k, v := r.keyOf(ctx, p)
		keys[i] = k
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		values = append(values, v)
	}
	return keys, values
}
