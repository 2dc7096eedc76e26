package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

// ---------------------------------------------------------------------------
// Resorts
// ---------------------------------------------------------------------------

const resortColumns = `id, name, location, capacity, room_count, image_url, description, property_map_url, check_in_time, check_out_time, created_at, updated_at`

type resortRepository struct {
	db DBTX
}

// NewResortRepository creates a new resort repository
func NewResortRepository(db DBTX) repository.ResortRepository {
	return &resortRepository{db: db}
}

func scanResort(row scanner) (*models.Resort, error) {
	resort := &models.Resort{}
	err := row.Scan(
		&resort.ID,
		&resort.Name,
		&resort.Location,
		&resort.Capacity,
		&resort.RoomCount,
		&resort.ImageURL,
		&resort.Description,
		&resort.PropertyMapURL,
		&resort.CheckInTime,
		&resort.CheckOutTime,
		&resort.CreatedAt,
		&resort.UpdatedAt,
	)
	return resort, err
}

func (r *resortRepository) Create(ctx context.Context, resort *models.Resort) (*models.Resort, error) {
	query := `
		INSERT INTO resorts (name, location, capacity, room_count, image_url, description, property_map_url, check_in_time, check_out_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	resort.CreatedAt = now
	resort.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		resort.Name,
		resort.Location,
		resort.Capacity,
		resort.RoomCount,
		resort.ImageURL,
		resort.Description,
		resort.PropertyMapURL,
		resort.CheckInTime,
		resort.CheckOutTime,
		resort.CreatedAt,
		resort.UpdatedAt,
	).Scan(&resort.ID, &resort.CreatedAt, &resort.UpdatedAt)

	if err != nil {
		return nil, mapError(err, "create resort")
	}

	return resort, nil
}

func (r *resortRepository) GetByID(ctx context.Context, id int64) (*models.Resort, error) {
	resort, err := scanResort(r.db.QueryRowContext(ctx, `SELECT `+resortColumns+` FROM resorts WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resort: %w", err)
	}
	return resort, nil
}

func (r *resortRepository) List(ctx context.Context) ([]*models.Resort, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+resortColumns+` FROM resorts ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resorts: %w", err)
	}
	defer rows.Close()

	var resorts []*models.Resort
	for rows.Next() {
		resort, err := scanResort(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resort: %w", err)
		}
		resorts = append(resorts, resort)
	}

	return resorts, rows.Err()
}

func (r *resortRepository) Update(ctx context.Context, resort *models.Resort) (*models.Resort, error) {
	query := `
		UPDATE resorts
		SET name = $2, location = $3, capacity = $4, room_count = $5, image_url = $6, description = $7,
		    property_map_url = $8, check_in_time = $9, check_out_time = $10, updated_at = $11
		WHERE id = $1
		RETURNING updated_at`

	resort.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		resort.ID,
		resort.Name,
		resort.Location,
		resort.Capacity,
		resort.RoomCount,
		resort.ImageURL,
		resort.Description,
		resort.PropertyMapURL,
		resort.CheckInTime,
		resort.CheckOutTime,
		resort.UpdatedAt,
	).Scan(&resort.UpdatedAt)

	if err != nil {
		return nil, mapError(err, "update resort")
	}

	return resort, nil
}

// Delete removes the resort together with its amenity junction rows.
// Venues cascade. Trips still pointing at it make the delete fail.
func (r *resortRepository) Delete(ctx context.Context, id int64) error {
	query := `
		WITH links AS (
			DELETE FROM property_amenities WHERE property_type = 'resort' AND property_id = $1
		)
		DELETE FROM resorts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapError(err, "delete resort")
	}
	return expectOneRow(result, "resort", id)
}

// ---------------------------------------------------------------------------
// Ships
// ---------------------------------------------------------------------------

const shipColumns = `id, name, cruise_line, capacity, decks, image_url, description, deck_plans_url, created_at, updated_at`

type shipRepository struct {
	db DBTX
}

// NewShipRepository creates a new ship repository
func NewShipRepository(db DBTX) repository.ShipRepository {
	return &shipRepository{db: db}
}

func scanShip(row scanner) (*models.Ship, error) {
	ship := &models.Ship{}
	err := row.Scan(
		&ship.ID,
		&ship.Name,
		&ship.CruiseLine,
		&ship.Capacity,
		&ship.Decks,
		&ship.ImageURL,
		&ship.Description,
		&ship.DeckPlansURL,
		&ship.CreatedAt,
		&ship.UpdatedAt,
	)
	return ship, err
}

func (r *shipRepository) Create(ctx context.Context, ship *models.Ship) (*models.Ship, error) {
	query := `
		INSERT INTO ships (name, cruise_line, capacity, decks, image_url, description, deck_plans_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	ship.CreatedAt = now
	ship.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		ship.Name,
		ship.CruiseLine,
		ship.Capacity,
		ship.Decks,
		ship.ImageURL,
		ship.Description,
		ship.DeckPlansURL,
		ship.CreatedAt,
		ship.UpdatedAt,
	).Scan(&ship.ID, &ship.CreatedAt, &ship.UpdatedAt)

	if err != nil {
		return nil, mapError(err, "create ship")
	}

	return ship, nil
}

func (r *shipRepository) GetByID(ctx context.Context, id int64) (*models.Ship, error) {
	ship, err := scanShip(r.db.QueryRowContext(ctx, `SELECT `+shipColumns+` FROM ships WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ship: %w", err)
	}
	return ship, nil
}

func (r *shipRepository) List(ctx context.Context) ([]*models.Ship, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+shipColumns+` FROM ships ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ships: %w", err)
	}
	defer rows.Close()

	var ships []*models.Ship
	for rows.Next() {
		ship, err := scanShip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ship: %w", err)
		}
		ships = append(ships, ship)
	}

	return ships, rows.Err()
}

func (r *shipRepository) Update(ctx context.Context, ship *models.Ship) (*models.Ship, error) {
	query := `
		UPDATE ships
		SET name = $2, cruise_line = $3, capacity = $4, decks = $5, image_url = $6, description = $7,
		    deck_plans_url = $8, updated_at = $9
		WHERE id = $1
		RETURNING updated_at`

	ship.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		ship.ID,
		ship.Name,
		ship.CruiseLine,
		ship.Capacity,
		ship.Decks,
		ship.ImageURL,
		ship.Description,
		ship.DeckPlansURL,
		ship.UpdatedAt,
	).Scan(&ship.UpdatedAt)

	if err != nil {
		return nil, mapError(err, "update ship")
	}

	return ship, nil
}

func (r *shipRepository) Delete(ctx context.Context, id int64) error {
	query := `
		WITH links AS (
			DELETE FROM property_amenities WHERE property_type = 'cruise' AND property_id = $1
		)
		DELETE FROM ships WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapError(err, "delete ship")
	}
	return expectOneRow(result, "ship", id)
}
