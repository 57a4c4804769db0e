package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"tripsync/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db    *sql.DB
	trips *TripRepository
	stops *StopRepository
}

// NewStore creates a Store over the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		trips: NewTripRepository(db),
		stops: NewStopRepository(db),
	}
}

// Trips returns the non-transactional trip repository.
func (s *Store) Trips() repository.TripRepository {
	return s.trips
}

// Stops returns the non-transactional stop repository.
func (s *Store) Stops() repository.StopRepository {
	return s.stops
}

// InTx runs fn inside a serializable transaction. The transaction is rolled
// back if fn returns an error or panics, and committed otherwise.
func (s *Store) InTx(ctx context.Context, fn func(trips repository.TripRepository, stops repository.StopRepository) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(NewTripRepositoryWithTx(tx), NewStopRepositoryWithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)
