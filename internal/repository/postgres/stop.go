package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tripsync/internal/domain"
	"tripsync/internal/repository"
)

// StopRepository is a PostgreSQL implementation of repository.StopRepository.
type StopRepository struct {
	q Querier
}

// NewStopRepository creates a new PostgreSQL stop repository.
func NewStopRepository(db *sql.DB) *StopRepository {
	return &StopRepository{q: db}
}

// NewStopRepositoryWithTx creates a stop repository using a transaction.
func NewStopRepositoryWithTx(tx *sql.Tx) *StopRepository {
	return &StopRepository{q: tx}
}

const stopColumns = `id, trip_id, name, lat, lon, address, sort_order, added_at`

// Create persists a new stop.
func (r *StopRepository) Create(ctx context.Context, stop *domain.Stop) error {
	query := `
		INSERT INTO stops (` + stopColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var address sql.NullString
	if stop.Address != "" {
		address = sql.NullString{String: stop.Address, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		stop.ID,
		stop.TripID,
		stop.Name,
		stop.Lat,
		stop.Lon,
		address,
		stop.Order,
		stop.AddedAt,
	)

	return err
}

// GetByID retrieves a stop owned by the given trip.
func (r *StopRepository) GetByID(ctx context.Context, tripID, stopID string) (*domain.Stop, error) {
	query := `
		SELECT ` + stopColumns + `
		FROM stops WHERE id = $1 AND trip_id = $2
	`

	var stop domain.Stop
	var address sql.NullString

	err := r.q.QueryRowContext(ctx, query, stopID, tripID).Scan(
		&stop.ID,
		&stop.TripID,
		&stop.Name,
		&stop.Lat,
		&stop.Lon,
		&address,
		&stop.Order,
		&stop.AddedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if address.Valid {
		stop.Address = address.String
	}

	return &stop, nil
}

// ListByTrip returns the trip's stops in order.
func (r *StopRepository) ListByTrip(ctx context.Context, tripID string) ([]domain.Stop, error) {
	query := `
		SELECT ` + stopColumns + `
		FROM stops WHERE trip_id = $1 ORDER BY sort_order
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []domain.Stop
	for rows.Next() {
		var stop domain.Stop
		var address sql.NullString

		if err := rows.Scan(
			&stop.ID,
			&stop.TripID,
			&stop.Name,
			&stop.Lat,
			&stop.Lon,
			&address,
			&stop.Order,
			&stop.AddedAt,
		); err != nil {
			return nil, err
		}

		if address.Valid {
			stop.Address = address.String
		}

		stops = append(stops, stop)
	}

	return stops, rows.Err()
}

// CountByTrip returns the number of stops on the trip.
func (r *StopRepository) CountByTrip(ctx context.Context, tripID string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM stops WHERE trip_id = $1`, tripID).Scan(&count)
	return count, err
}

// Update updates a stop's name, coordinates and address. Order is only ever
// changed through SetOrders and CloseGap.
func (r *StopRepository) Update(ctx context.Context, stop *domain.Stop) error {
	query := `
		UPDATE stops
		SET name = $1, lat = $2, lon = $3, address = $4
		WHERE id = $5 AND trip_id = $6
	`

	var address sql.NullString
	if stop.Address != "" {
		address = sql.NullString{String: stop.Address, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		stop.Name,
		stop.Lat,
		stop.Lon,
		address,
		stop.ID,
		stop.TripID,
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

// Delete removes a stop owned by the given trip.
func (r *StopRepository) Delete(ctx context.Context, tripID, stopID string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM stops WHERE id = $1 AND trip_id = $2`, stopID, tripID)
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

// CloseGap decrements the order of every stop whose order exceeds the
// deleted stop's order, restoring density in a single pass.
func (r *StopRepository) CloseGap(ctx context.Context, tripID string, deletedOrder int) error {
	query := `
		UPDATE stops SET sort_order = sort_order - 1
		WHERE trip_id = $1 AND sort_order > $2
	`
	_, err := r.q.ExecContext(ctx, query, tripID, deletedOrder)
	return err
}

// SetOrders assigns order = index for each id. The (trip_id, sort_order)
// unique constraint is deferred, so the per-row updates inside one
// transaction never collide mid-pass.
func (r *StopRepository) SetOrders(ctx context.Context, tripID string, orderedIDs []string) error {
	query := `UPDATE stops SET sort_order = $1 WHERE id = $2 AND trip_id = $3`

	for i, id := range orderedIDs {
		result, err := r.q.ExecContext(ctx, query, i, id, tripID)
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
	}

	return nil
}

// Ensure StopRepository implements repository.StopRepository.
var _ repository.StopRepository = (*StopRepository)(nil)
