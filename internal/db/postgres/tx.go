package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"

	"Inkwell/internal/core/uow"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlTx struct {
	tx *sql.Tx
	id string
}

func (t *sqlTx) ID() string { return t.id }

// TxManager runs units of work on PostgreSQL transactions
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new transaction manager
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx runs fn in a transaction that is committed only if fn returns nil
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx uow.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	unit := &sqlTx{tx: tx, id: uuid.NewString()}

	// Rollback on error or panic - ignore "already committed" errors
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			log.Printf("Failed to rollback transaction %s: %v", unit.id, rollbackErr)
		}
	}()

	if err := fn(ctx, unit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// conn returns the executor for tx, or the pool when tx is nil
func conn(db *sql.DB, tx uow.Tx) dbtx {
	if t, ok := tx.(*sqlTx); ok && t != nil {
		return t.tx
	}
	return db
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Printf("Failed to close rows: %v", err)
	}
}
