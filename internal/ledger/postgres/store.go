// Package postgres is the pgx-backed implementation of ledger.Repository,
// against the physically separate GL database. It mirrors
// internal/billing/postgres's dbtx/WithTx pattern, pointed at a
// different pool, since the two stores share no
// referential integrity and must be able to run against different
// connection strings.
package postgres

import (
	"context"
	"fmt"

	"github.com/cyphera-core/billing-core/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Store implements ledger.Repository.
type Store struct {
	pool   *pgxpool.Pool
	db     dbtx
	logger *zap.Logger
}

var _ ledger.Repository = (*Store)(nil)

func New(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{pool: pool, db: pool, logger: logger}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx ledger.Repository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	scoped := &Store{pool: s.pool, db: tx, logger: s.logger}
	if err := fn(scoped); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}
