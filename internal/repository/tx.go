package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goalbuddy/server/internal/db"
)

// TxRunner runs a unit of work inside a single database transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type txRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) TxRunner {
	return &txRunner{db: db}
}

// InTx commits when fn returns nil and rolls back otherwise.
func (r *txRunner) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = fn(tx)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockForShare returns the row-lock suffix for reads that must block a
// concurrent delete until the surrounding transaction ends. SQLite serializes
// writers at the database level and has no row locks.
func lockForShare(driver string) string {
	if driver == db.DriverPostgres {
		return " FOR SHARE"
	}
	return ""
}
