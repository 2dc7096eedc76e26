package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

const contentColumns = `id, kind, content_type, title, body, created_at, updated_at`

type contentRepository struct {
	db DBTX
}

// NewContentRepository creates a new shared content repository
func NewContentRepository(db DBTX) repository.ContentRepository {
	return &contentRepository{db: db}
}

func scanContent(row scanner) (*models.SharedContentItem, error) {
	item := &models.SharedContentItem{}
	err := row.Scan(
		&item.ID,
		&item.Kind,
		&item.ContentType,
		&item.Title,
		&item.Body,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (r *contentRepository) Create(ctx context.Context, item *models.SharedContentItem) (*models.SharedContentItem, error) {
	query := `
		INSERT INTO shared_content (kind, content_type, title, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		string(item.Kind),
		string(item.ContentType),
		item.Title,
		item.Body,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return nil, mapError(err, "create shared content")
	}

	return item, nil
}

func (r *contentRepository) GetByID(ctx context.Context, id int64) (*models.SharedContentItem, error) {
	item, err := scanContent(r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM shared_content WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shared content: %w", err)
	}
	return item, nil
}

func (r *contentRepository) ListByType(ctx context.Context, contentType models.ContentType) ([]*models.SharedContentItem, error) {
	query := `SELECT ` + contentColumns + ` FROM shared_content WHERE content_type = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, string(contentType))
	if err != nil {
		return nil, fmt.Errorf("failed to query shared content: %w", err)
	}
	defer rows.Close()

	var items []*models.SharedContentItem
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shared content: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *contentRepository) ListForTrip(ctx context.Context, tripID int64) ([]*models.TripContent, error) {
	query := `
		SELECT tc.trip_id, tc.content_id, tc.order_index,
		       sc.id, sc.kind, sc.content_type, sc.title, sc.body, sc.created_at, sc.updated_at
		FROM trip_content tc
		JOIN shared_content sc ON sc.id = tc.content_id
		WHERE tc.trip_id = $1
		ORDER BY tc.order_index ASC, tc.content_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip content: %w", err)
	}
	defer rows.Close()

	var links []*models.TripContent
	for rows.Next() {
		link := &models.TripContent{Item: &models.SharedContentItem{}}
		err := rows.Scan(
			&link.TripID,
			&link.ContentID,
			&link.OrderIndex,
			&link.Item.ID,
			&link.Item.Kind,
			&link.Item.ContentType,
			&link.Item.Title,
			&link.Item.Body,
			&link.Item.CreatedAt,
			&link.Item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip content: %w", err)
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

// Assign appends the item to the trip's content list. Assigning an item that
// is already linked leaves the existing row untouched.
func (r *contentRepository) Assign(ctx context.Context, tripID, contentID int64) error {
	query := `
		INSERT INTO trip_content (trip_id, content_id, order_index)
		SELECT $1, $2, COALESCE(MAX(order_index) + 1, 0) FROM trip_content WHERE trip_id = $1
		ON CONFLICT (trip_id, content_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, tripID, contentID); err != nil {
		return mapError(err, "assign content")
	}
	return nil
}

func (r *contentRepository) Unassign(ctx context.Context, tripID, contentID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM trip_content WHERE trip_id = $1 AND content_id = $2`, tripID, contentID); err != nil {
		return mapError(err, "unassign content")
	}
	return nil
}

func (r *contentRepository) Reorder(ctx context.Context, tripID int64, updates []models.OrderUpdate) error {
	query := `
		WITH u AS (
			SELECT UNNEST($2::bigint[]) AS id, UNNEST($3::int[]) AS order_index
		), matched AS (
			SELECT COUNT(*) AS n FROM trip_content tc JOIN u ON u.id = tc.content_id WHERE tc.trip_id = $1
		)
		UPDATE trip_content AS tc
		SET order_index = u.order_index
		FROM u, matched
		WHERE tc.content_id = u.id AND tc.trip_id = $1 AND matched.n = $4`

	return applyOrder(ctx, r.db, query, "trip content", tripID, updates)
}
