package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phrazzld/degreeplan-api/internal/platform/logger"
	"github.com/phrazzld/degreeplan-api/internal/redact"
)

// DBTX is satisfied by *sql.DB and *sql.Tx, so a store runs unchanged
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFn is the unit of work run by RunInTransaction.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn in a transaction on db. The transaction commits
// when fn returns nil and rolls back otherwise. fn's own error is returned
// unwrapped so callers can match store sentinels. A panic in fn rolls back
// and is re-raised.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx).With("component", "store_tx")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", "error", redact.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction after panic",
				"error", redact.Error(rbErr), "panic", p)
		} else {
			log.Error("rolled back transaction after panic", "panic", p)
		}
		// ALLOW-PANIC: Propagating caught panic from transaction
		panic(p)
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("failed to roll back transaction",
				"rollback_error", redact.Error(rbErr),
				"original_error", redact.Error(err))
			return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, err)
		}
		log.Debug("rolled back transaction", "error", redact.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", "error", redact.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
