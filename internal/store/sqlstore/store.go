package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/legionforge/engine/internal/store"
)

// execer is satisfied by both *sql.DB and *sql.Tx, letting every query
// method run unmodified whether or not it's inside WithTx. Grounded on the
// teacher's sqlite package, which threads *sql.Tx through in exactly this
// shape for its multi-statement operations.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the Dolt-backed store.Store implementation.
type Store struct {
	db   *sql.DB
	exec execer
}

// New wraps an already-open *sql.DB (see Open) as a store.Store.
func New(db *sql.DB) *Store {
	return &Store{db: db, exec: db}
}

var _ store.Store = (*Store)(nil)

// WithTx runs fn inside a single sql.Tx. A failure anywhere in fn rolls
// back every statement run through tx so a mid-phase error leaves
// Guild.CurrentTurn unadvanced and no partial turn committed.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
			return
		}
		err = sqlTx.Commit()
	}()

	txStore := &Store{db: s.db, exec: sqlTx}
	err = fn(ctx, txStore)
	return err
}
