// Package postgres is the pgx-backed implementation of
// billing.Repository: hand-written queries over a Querier/DBTX split so
// the same code runs inside or outside a transaction.
package postgres

import (
	"context"
	"fmt"

	"github.com/cyphera-core/billing-core/internal/billing"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx. Store methods are
// written against it so the same code
// runs inside or outside an explicit transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Store implements billing.Repository.
type Store struct {
	pool   *pgxpool.Pool
	db     dbtx
	logger *zap.Logger
}

var _ billing.Repository = (*Store)(nil)

func New(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{pool: pool, db: pool, logger: logger}
}

// WithTx runs fn against a transaction-scoped Store, matching
// commit-on-nil/rollback-on-error semantics. Proration application runs
// inside one transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx billing.Repository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	scoped := &Store{pool: s.pool, db: tx, logger: s.logger}
	if err := fn(scoped); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
