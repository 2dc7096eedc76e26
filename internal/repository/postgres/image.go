package postgres

import (
	"context"
	"fmt"

	"github.com/Kerhoff/TripGuide/internal/repository"
)

type imageRepository struct {
	db DBTX
}

// NewImageRepository creates a new image reference repository
func NewImageRepository(db DBTX) repository.ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) CountReferences(ctx context.Context, url string) (int, error) {
	if url == "" {
		return 0, nil
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM trips WHERE hero_image_url = $1) +
			(SELECT COUNT(*) FROM trip_days WHERE image_url = $1) +
			(SELECT COUNT(*) FROM resorts WHERE image_url = $1) +
			(SELECT COUNT(*) FROM resorts WHERE property_map_url = $1) +
			(SELECT COUNT(*) FROM ships WHERE image_url = $1) +
			(SELECT COUNT(*) FROM ships WHERE deck_plans_url = $1)`

	var n int
	if err := r.db.QueryRowContext(ctx, query, url).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count image references: %w", err)
	}
	return n, nil
}
