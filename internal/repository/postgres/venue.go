package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

type venueTypeRepository struct {
	db DBTX
}

// NewVenueTypeRepository creates a new venue type repository
func NewVenueTypeRepository(db DBTX) repository.VenueTypeRepository {
	return &venueTypeRepository{db: db}
}

func (r *venueTypeRepository) Create(ctx context.Context, vt *models.VenueType) (*models.VenueType, error) {
	err := r.db.QueryRowContext(ctx, `INSERT INTO venue_types (name) VALUES ($1) RETURNING id`, vt.Name).Scan(&vt.ID)
	if err != nil {
		return nil, mapError(err, "create venue type")
	}
	return vt, nil
}

func (r *venueTypeRepository) GetByID(ctx context.Context, id int64) (*models.VenueType, error) {
	vt := &models.VenueType{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM venue_types WHERE id = $1`, id).Scan(&vt.ID, &vt.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get venue type: %w", err)
	}
	return vt, nil
}

func (r *venueTypeRepository) GetByName(ctx context.Context, name string) (*models.VenueType, error) {
	vt := &models.VenueType{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM venue_types WHERE LOWER(name) = LOWER($1)`, name).Scan(&vt.ID, &vt.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get venue type by name: %w", err)
	}
	return vt, nil
}

func (r *venueTypeRepository) List(ctx context.Context) ([]*models.VenueType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM venue_types ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query venue types: %w", err)
	}
	defer rows.Close()

	var types []*models.VenueType
	for rows.Next() {
		vt := &models.VenueType{}
		if err := rows.Scan(&vt.ID, &vt.Name); err != nil {
			return nil, fmt.Errorf("failed to scan venue type: %w", err)
		}
		types = append(types, vt)
	}

	return types, rows.Err()
}

type venueRepository struct {
	db DBTX
}

// NewVenueRepository creates a new venue repository
func NewVenueRepository(db DBTX) repository.VenueRepository {
	return &venueRepository{db: db}
}

const venueColumns = `v.id, v.name, v.venue_type_id, v.description, v.resort_id, v.ship_id, v.created_at, v.updated_at, vt.name`

func scanVenue(row scanner) (*models.Venue, error) {
	venue := &models.Venue{}
	var resortID, shipID sql.NullInt64
	var typeName string
	err := row.Scan(
		&venue.ID,
		&venue.Name,
		&venue.VenueTypeID,
		&venue.Description,
		&resortID,
		&shipID,
		&venue.CreatedAt,
		&venue.UpdatedAt,
		&typeName,
	)
	if err != nil {
		return nil, err
	}
	switch {
	case resortID.Valid:
		venue.Owner = models.PropertyRef{Type: models.PropertyResort, ID: resortID.Int64}
	case shipID.Valid:
		venue.Owner = models.PropertyRef{Type: models.PropertyCruise, ID: shipID.Int64}
	}
	venue.VenueType = &models.VenueType{ID: venue.VenueTypeID, Name: typeName}
	return venue, nil
}

// ownerColumns splits an owner reference into the resort_id/ship_id pair
func ownerColumns(owner models.PropertyRef) (resortID, shipID *int64, err error) {
	id := owner.ID
	switch owner.Type {
	case models.PropertyResort:
		return &id, nil, nil
	case models.PropertyCruise:
		return nil, &id, nil
	default:
		return nil, nil, apperr.Invariant("venue owner %s has no property type", owner)
	}
}

func (r *venueRepository) Create(ctx context.Context, venue *models.Venue) (*models.Venue, error) {
	resortID, shipID, err := ownerColumns(venue.Owner)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO venues (name, venue_type_id, description, resort_id, ship_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	venue.CreatedAt = now
	venue.UpdatedAt = now

	err = r.db.QueryRowContext(ctx, query,
		venue.Name,
		venue.VenueTypeID,
		venue.Description,
		resortID,
		shipID,
		venue.CreatedAt,
		venue.UpdatedAt,
	).Scan(&venue.ID, &venue.CreatedAt, &venue.UpdatedAt)

	if err != nil {
		return nil, mapError(err, "create venue")
	}

	return venue, nil
}

func (r *venueRepository) GetByID(ctx context.Context, id int64) (*models.Venue, error) {
	query := `
		SELECT ` + venueColumns + `
		FROM venues v
		JOIN venue_types vt ON vt.id = v.venue_type_id
		WHERE v.id = $1`

	venue, err := scanVenue(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return venue, nil
}

func (r *venueRepository) ListByOwner(ctx context.Context, owner models.PropertyRef) ([]*models.Venue, error) {
	column := "v.resort_id"
	if owner.Type == models.PropertyCruise {
		column = "v.ship_id"
	}

	query := `
		SELECT ` + venueColumns + `
		FROM venues v
		JOIN venue_types vt ON vt.id = v.venue_type_id
		WHERE ` + column + ` = $1
		ORDER BY v.id ASC`

	rows, err := r.db.QueryContext(ctx, query, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query venues: %w", err)
	}
	defer rows.Close()

	var venues []*models.Venue
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venue: %w", err)
		}
		venues = append(venues, venue)
	}

	return venues, rows.Err()
}

// Update changes the venue's own fields. The owner columns are never written.
func (r *venueRepository) Update(ctx context.Context, venue *models.Venue) (*models.Venue, error) {
	query := `
		UPDATE venues
		SET name = $2, venue_type_id = $3, description = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at`

	venue.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		venue.ID,
		venue.Name,
		venue.VenueTypeID,
		venue.Description,
		venue.UpdatedAt,
	).Scan(&venue.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("venue with ID %d not found", venue.ID)
		}
		return nil, mapError(err, "update venue")
	}

	return venue, nil
}

func (r *venueRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete venue")
	}
	return expectOneRow(result, "venue", id)
}
