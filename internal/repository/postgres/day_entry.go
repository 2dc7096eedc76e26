package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

const dayEntryColumns = `id, trip_id, kind, date, day_number, order_index, description, image_url,
	location_name, arrival_time, departure_time, all_aboard_time, created_at, updated_at`

type dayEntryRepository struct {
	db DBTX
}

// NewDayEntryRepository creates a new day entry repository
func NewDayEntryRepository(db DBTX) repository.DayEntryRepository {
	return &dayEntryRepository{db: db}
}

func scanDayEntry(row scanner) (*models.DayEntry, error) {
	entry := &models.DayEntry{}
	err := row.Scan(
		&entry.ID,
		&entry.TripID,
		&entry.Kind,
		&entry.Date,
		&entry.DayNumber,
		&entry.OrderIndex,
		&entry.Description,
		&entry.ImageURL,
		&entry.LocationName,
		&entry.ArrivalTime,
		&entry.DepartureTime,
		&entry.AllAboardTime,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	return entry, err
}

func (r *dayEntryRepository) Create(ctx context.Context, entry *models.DayEntry) (*models.DayEntry, error) {
	query := `
		INSERT INTO trip_days (trip_id, kind, date, day_number, order_index, description, image_url,
		                       location_name, arrival_time, departure_time, all_aboard_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		entry.TripID,
		string(entry.Kind),
		entry.Date,
		entry.DayNumber,
		entry.OrderIndex,
		entry.Description,
		entry.ImageURL,
		entry.LocationName,
		entry.ArrivalTime,
		entry.DepartureTime,
		entry.AllAboardTime,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		return nil, mapError(err, "create day entry")
	}

	return entry, nil
}

func (r *dayEntryRepository) GetByID(ctx context.Context, id int64) (*models.DayEntry, error) {
	entry, err := scanDayEntry(r.db.QueryRowContext(ctx, `SELECT `+dayEntryColumns+` FROM trip_days WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get day entry: %w", err)
	}
	return entry, nil
}

func (r *dayEntryRepository) ListByTrip(ctx context.Context, tripID int64) ([]*models.DayEntry, error) {
	query := `SELECT ` + dayEntryColumns + ` FROM trip_days WHERE trip_id = $1 ORDER BY order_index ASC, date ASC`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query day entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.DayEntry
	for rows.Next() {
		entry, err := scanDayEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *dayEntryRepository) Update(ctx context.Context, entry *models.DayEntry) (*models.DayEntry, error) {
	query := `
		UPDATE trip_days
		SET date = $2, day_number = $3, order_index = $4, description = $5, image_url = $6,
		    location_name = $7, arrival_time = $8, departure_time = $9, all_aboard_time = $10, updated_at = $11
		WHERE id = $1
		RETURNING updated_at`

	entry.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.Date,
		entry.DayNumber,
		entry.OrderIndex,
		entry.Description,
		entry.ImageURL,
		entry.LocationName,
		entry.ArrivalTime,
		entry.DepartureTime,
		entry.AllAboardTime,
		entry.UpdatedAt,
	).Scan(&entry.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFound("day entry with ID %d not found", entry.ID)
		}
		return nil, mapError(err, "update day entry")
	}

	return entry, nil
}

func (r *dayEntryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trip_days WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete day entry")
	}
	return expectOneRow(result, "day entry", id)
}

// Reorder writes every order index in one statement. The statement only
// touches rows when all of the ids belong to the trip, so a partial match
// changes nothing and is reported as a conflict.
func (r *dayEntryRepository) Reorder(ctx context.Context, tripID int64, updates []models.OrderUpdate) error {
	query := `
		WITH u AS (
			SELECT UNNEST($2::bigint[]) AS id, UNNEST($3::int[]) AS order_index
		), matched AS (
			SELECT COUNT(*) AS n FROM trip_days d JOIN u ON u.id = d.id WHERE d.trip_id = $1
		)
		UPDATE trip_days AS d
		SET order_index = u.order_index, updated_at = NOW()
		FROM u, matched
		WHERE d.id = u.id AND d.trip_id = $1 AND matched.n = $4`

	return applyOrder(ctx, r.db, query, "day entries", tripID, updates)
}

// applyOrder runs a guarded batch reorder statement and checks that every
// update matched a row.
func applyOrder(ctx context.Context, db DBTX, query, what string, tripID int64, updates []models.OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(updates))
	orders := make([]int64, 0, len(updates))
	seen := make(map[int64]bool, len(updates))
	for _, u := range updates {
		if seen[u.ID] {
			return apperr.Validation("order", "id %d appears more than once", u.ID)
		}
		seen[u.ID] = true
		ids = append(ids, u.ID)
		orders = append(orders, int64(u.OrderIndex))
	}

	result, err := db.ExecContext(ctx, query, tripID, pq.Array(ids), pq.Array(orders), len(updates))
	if err != nil {
		return mapError(err, "reorder "+what)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected != int64(len(updates)) {
		return apperr.Conflict("order", "reorder of %s for trip %d matched %d of %d rows", what, tripID, rowsAffected, len(updates))
	}
	return nil
}
