package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stwalsh4118/landsync/internal/database"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so repositories run
// unchanged inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the PostgreSQL implementation of TxRunner.
type PostgresStore struct {
	db *database.Database
}

// NewPostgresStore creates a store backed by the given connection pool.
func NewPostgresStore(db *database.Database) *PostgresStore {
	return &PostgresStore{db: db}
}

// Landholders returns a landholder repository running outside any transaction.
func (s *PostgresStore) Landholders() LandholderRepository {
	return NewLandholderRepository(s.db.Pool)
}

// Parcels returns a parcel repository running outside any transaction.
func (s *PostgresStore) Parcels() ParcelRepository {
	return NewParcelRepository(s.db.Pool)
}

// WithinTx begins a transaction, runs fn and commits. Any error from fn, or a panic,
// rolls the transaction back.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type txStore struct {
	tx pgx.Tx
}

func (t txStore) Landholders() LandholderRepository { return NewLandholderRepository(t.tx) }
func (t txStore) Parcels() ParcelRepository         { return NewParcelRepository(t.tx) }

// translateError maps unique-index violations to ErrDuplicateKey.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, ErrDuplicateKey)
	}
	return err
}
