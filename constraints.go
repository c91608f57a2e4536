package multimorph

import (
	"context"

	"gorm.io/gorm"
)

type constraintsKey struct{}

// WithoutConstraints returns a context under which relationships declared
// through a GORM session carrying it skip their single-record constraints,
// the discriminant included. Eager-load constraints still apply.
func WithoutConstraints(ctx context.Context) context.Context {
	return context.WithValue(ctx, constraintsKey{}, true)
}

// ConstraintsDisabled reports whether ctx was created by WithoutConstraints.
func ConstraintsDisabled(ctx context.Context) bool {
	disabled, _ := ctx.Value(constraintsKey{}).(bool)
	return disabled
}

func contextOf(db *gorm.DB) context.Context {
	if db != nil && db.Statement != nil && db.Statement.Context != nil {
		return db.Statement.Context
	}
	return context.Background()
}
