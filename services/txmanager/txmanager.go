package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	dbtx "nrgbot/db/tx"
)

// TransactionManager opens read-committed transactions on a sqlx pool.
// Tag sync uses it to swap a member's tag rows atomically.
type TransactionManager struct {
	db   *sqlx.DB
	opts *sql.TxOptions
}

func NewTransactionManager(db *sqlx.DB) *TransactionManager {
	return &TransactionManager{
		db:   db,
		opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	}
}

// WithTransaction commits when fn returns nil and rolls back otherwise.
// A context that already carries a transaction is passed straight through.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(context.Context) error) (err error) {
	if dbtx.InTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTxx(ctx, tm.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		rollbackErr := tx.Rollback()
		if r := recover(); r != nil {
			log.Printf("❌ Rolled back transaction after panic: %v", r)
			panic(r)
		}
		if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = fmt.Errorf("%w (rollback failed: %v)", err, rollbackErr)
		}
	}()

	if err = fn(dbtx.WithTransaction(ctx, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}
