package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

const tripColumns = `id, name, slug, start_date, end_date, status_id, description, hero_image_url, resort_id, ship_id, created_at, updated_at`

type tripRepository struct {
	db DBTX
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db DBTX) repository.TripRepository {
	return &tripRepository{db: db}
}

func scanTrip(row scanner) (*models.Trip, error) {
	trip := &models.Trip{}
	var resortID, shipID sql.NullInt64
	err := row.Scan(
		&trip.ID,
		&trip.Name,
		&trip.Slug,
		&trip.StartDate,
		&trip.EndDate,
		&trip.StatusID,
		&trip.Description,
		&trip.HeroImageURL,
		&resortID,
		&shipID,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	trip.ResortID = nullableID(resortID)
	trip.ShipID = nullableID(shipID)
	return trip, nil
}

// Create inserts the trip. The trips_assign_always_content trigger links the
// "always" shared content inside the same statement.
func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	query := `
		INSERT INTO trips (name, slug, start_date, end_date, status_id, description, hero_image_url, resort_id, ship_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	trip.CreatedAt = now
	trip.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		trip.Name,
		trip.Slug,
		trip.StartDate,
		trip.EndDate,
		trip.StatusID,
		trip.Description,
		trip.HeroImageURL,
		trip.ResortID,
		trip.ShipID,
		trip.CreatedAt,
		trip.UpdatedAt,
	).Scan(&trip.ID, &trip.CreatedAt, &trip.UpdatedAt)

	if err != nil {
		return nil, mapError(err, "create trip")
	}

	return trip, nil
}

func (r *tripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

func (r *tripRepository) GetBySlug(ctx context.Context, slug string) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE slug = $1`

	trip, err := scanTrip(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip by slug: %w", err)
	}
	return trip, nil
}

func (r *tripRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func (r *tripRepository) List(ctx context.Context, filters repository.TripFilters) ([]*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE 1 = 1`
	args := []any{}
	argIdx := 1

	if filters.StatusID != nil {
		query += fmt.Sprintf(" AND status_id = $%d", argIdx)
		args = append(args, *filters.StatusID)
		argIdx++
	}

	query += " ORDER BY start_date DESC, id DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		argIdx++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

func (r *tripRepository) Update(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	query := `
		UPDATE trips
		SET name = $2, slug = $3, start_date = $4, end_date = $5, status_id = $6, description = $7,
		    hero_image_url = $8, resort_id = $9, ship_id = $10, updated_at = $11
		WHERE id = $1
		RETURNING updated_at`

	trip.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		trip.ID,
		trip.Name,
		trip.Slug,
		trip.StartDate,
		trip.EndDate,
		trip.StatusID,
		trip.Description,
		trip.HeroImageURL,
		trip.ResortID,
		trip.ShipID,
		trip.UpdatedAt,
	).Scan(&trip.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("trip with ID %d not found", trip.ID)
		}
		return nil, mapError(err, "update trip")
	}

	return trip, nil
}

func (r *tripRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete trip")
	}
	return expectOneRow(result, "trip", id)
}
