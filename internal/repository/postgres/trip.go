package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"tripsync/internal/domain"
	"tripsync/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, share_code, name, dest_name, dest_lat, dest_lon, dest_address, route, status, created_at, updated_at`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var name sql.NullString
	if trip.Name != "" {
		name = sql.NullString{String: trip.Name, Valid: true}
	}

	var address sql.NullString
	if trip.Destination.Address != "" {
		address = sql.NullString{String: trip.Destination.Address, Valid: true}
	}

	var route []byte
	if len(trip.Route) > 0 {
		route = trip.Route
	}

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.ShareCode,
		name,
		trip.Destination.Name,
		trip.Destination.Lat,
		trip.Destination.Lon,
		address,
		route,
		trip.Status,
		trip.CreatedAt,
		trip.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		// 23505 unique_violation: lost the share-code uniqueness race.
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// GetByShareCode retrieves an active trip by its share code.
func (r *TripRepository) GetByShareCode(ctx context.Context, code string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips WHERE share_code = $1 AND status = $2
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, code, domain.TripStatusActive))
}

// GetByShareCodeForUpdate retrieves an active trip and locks its row for the
// duration of the enclosing transaction.
func (r *TripRepository) GetByShareCodeForUpdate(ctx context.Context, code string) (*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips WHERE share_code = $1 AND status = $2
		FOR UPDATE
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, code, domain.TripStatusActive))
}

// ExistsShareCode reports whether any trip, including deleted ones, holds
// the code.
func (r *TripRepository) ExistsShareCode(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM trips WHERE share_code = $1)`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Update updates an existing trip.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET name = $1, dest_name = $2, dest_lat = $3, dest_lon = $4, dest_address = $5, route = $6, status = $7, updated_at = $8
		WHERE id = $9
	`

	var name sql.NullString
	if trip.Name != "" {
		name = sql.NullString{String: trip.Name, Valid: true}
	}

	var address sql.NullString
	if trip.Destination.Address != "" {
		address = sql.NullString{String: trip.Destination.Address, Valid: true}
	}

	var route []byte
	if len(trip.Route) > 0 {
		route = trip.Route
	}

	result, err := r.q.ExecContext(ctx, query,
		name,
		trip.Destination.Name,
		trip.Destination.Lat,
		trip.Destination.Lon,
		address,
		route,
		trip.Status,
		trip.UpdatedAt,
		trip.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *TripRepository) scanOne(row *sql.Row) (*domain.Trip, error) {
	var trip domain.Trip
	var name sql.NullString
	var address sql.NullString
	var route []byte

	err := row.Scan(
		&trip.ID,
		&trip.ShareCode,
		&name,
		&trip.Destination.Name,
		&trip.Destination.Lat,
		&trip.Destination.Lon,
		&address,
		&route,
		&trip.Status,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if name.Valid {
		trip.Name = name.String
	}
	if address.Valid {
		trip.Destination.Address = address.String
	}
	if len(route) > 0 {
		trip.Route = route
	}

	return &trip, nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
