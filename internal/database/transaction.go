package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// InTransaction reports whether db is bound to an open transaction.
func InTransaction(db *gorm.DB) bool {
	committer, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok && committer != nil
}

// WithTransaction runs fn on a transaction begun from a clean session of db.
// fn's error rolls the transaction back, as does a panic. When db is already
// bound to a transaction fn runs on it and the outer caller decides the outcome.
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	clean := db.Session(&gorm.Session{NewDB: true, Context: ctx})
	if InTransaction(db) {
		return fn(clean)
	}

	tx := clean.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}

	done := false
	defer func() {
		if done {
			return
		}
		if err := tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("rollback transaction")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit().Error; err != nil {
		done = true
		return fmt.Errorf("commit transaction: %w", err)
	}
	done = true
	return nil
}
