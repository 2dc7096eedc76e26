package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

type amenityRepository struct {
	db DBTX
}

// NewAmenityRepository creates a new amenity repository
func NewAmenityRepository(db DBTX) repository.AmenityRepository {
	return &amenityRepository{db: db}
}

func (r *amenityRepository) Create(ctx context.Context, amenity *models.Amenity) (*models.Amenity, error) {
	query := `INSERT INTO amenities (name, created_at) VALUES ($1, $2) RETURNING id, created_at`

	amenity.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query, amenity.Name, amenity.CreatedAt).Scan(&amenity.ID, &amenity.CreatedAt)
	if err != nil {
		return nil, mapError(err, "create amenity")
	}

	return amenity, nil
}

func (r *amenityRepository) GetByID(ctx context.Context, id int64) (*models.Amenity, error) {
	amenity := &models.Amenity{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM amenities WHERE id = $1`, id).
		Scan(&amenity.ID, &amenity.Name, &amenity.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get amenity: %w", err)
	}
	return amenity, nil
}

func (r *amenityRepository) GetByName(ctx context.Context, name string) (*models.Amenity, error) {
	amenity := &models.Amenity{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM amenities WHERE LOWER(name) = LOWER($1)`, name).
		Scan(&amenity.ID, &amenity.Name, &amenity.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get amenity by name: %w", err)
	}
	return amenity, nil
}

func (r *amenityRepository) List(ctx context.Context) ([]*models.Amenity, error) {
	return r.queryAmenities(ctx, `SELECT id, name, created_at FROM amenities ORDER BY name ASC`)
}

func (r *amenityRepository) ListForProperty(ctx context.Context, owner models.PropertyRef) ([]*models.Amenity, error) {
	query := `
		SELECT a.id, a.name, a.created_at
		FROM amenities a
		JOIN property_amenities pa ON pa.amenity_id = a.id
		WHERE pa.property_type = $1 AND pa.property_id = $2
		ORDER BY a.name ASC`

	return r.queryAmenities(ctx, query, string(owner.Type), owner.ID)
}

func (r *amenityRepository) queryAmenities(ctx context.Context, query string, args ...any) ([]*models.Amenity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query amenities: %w", err)
	}
	defer rows.Close()

	var amenities []*models.Amenity
	for rows.Next() {
		amenity := &models.Amenity{}
		if err := rows.Scan(&amenity.ID, &amenity.Name, &amenity.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan amenity: %w", err)
		}
		amenities = append(amenities, amenity)
	}

	return amenities, rows.Err()
}

// Usage counts the properties linked to each amenity
func (r *amenityRepository) Usage(ctx context.Context) ([]*models.AmenityUsage, error) {
	query := `
		SELECT a.id, a.name, a.created_at,
		       COUNT(pa.amenity_id) FILTER (WHERE pa.property_type = 'resort'),
		       COUNT(pa.amenity_id) FILTER (WHERE pa.property_type = 'cruise')
		FROM amenities a
		LEFT JOIN property_amenities pa ON pa.amenity_id = a.id
		GROUP BY a.id, a.name, a.created_at
		ORDER BY a.name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query amenity usage: %w", err)
	}
	defer rows.Close()

	var usage []*models.AmenityUsage
	for rows.Next() {
		u := &models.AmenityUsage{}
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt, &u.Resorts, &u.Ships); err != nil {
			return nil, fmt.Errorf("failed to scan amenity usage: %w", err)
		}
		usage = append(usage, u)
	}

	return usage, rows.Err()
}

func (r *amenityRepository) Link(ctx context.Context, owner models.PropertyRef, amenityID int64) error {
	query := `
		INSERT INTO property_amenities (property_type, property_id, amenity_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (property_type, property_id, amenity_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, string(owner.Type), owner.ID, amenityID); err != nil {
		return mapError(err, "link amenity")
	}
	return nil
}

func (r *amenityRepository) Unlink(ctx context.Context, owner models.PropertyRef, amenityID int64) error {
	query := `DELETE FROM property_amenities WHERE property_type = $1 AND property_id = $2 AND amenity_id = $3`

	if _, err := r.db.ExecContext(ctx, query, string(owner.Type), owner.ID, amenityID); err != nil {
		return mapError(err, "unlink amenity")
	}
	return nil
}
