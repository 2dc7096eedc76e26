package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories use
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store hands out repositories bound either to the pool or to one transaction
type Store struct {
	db   *sql.DB
	q    DBTX
	inTx bool
}

// NewStore creates a store backed by the connection pool
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Trips() repository.TripRepository           { return NewTripRepository(s.q) }
func (s *Store) Resorts() repository.ResortRepository       { return NewResortRepository(s.q) }
func (s *Store) Ships() repository.ShipRepository           { return NewShipRepository(s.q) }
func (s *Store) VenueTypes() repository.VenueTypeRepository { return NewVenueTypeRepository(s.q) }
func (s *Store) Venues() repository.VenueRepository         { return NewVenueRepository(s.q) }
func (s *Store) Amenities() repository.AmenityRepository    { return NewAmenityRepository(s.q) }
func (s *Store) Days() repository.DayEntryRepository        { return NewDayEntryRepository(s.q) }
func (s *Store) Content() repository.ContentRepository      { return NewContentRepository(s.q) }
func (s *Store) Images() repository.ImageRepository         { return NewImageRepository(s.q) }

// WithTx runs fn in a transaction. The transaction commits when fn returns
// nil and rolls back otherwise, including on panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, q: tx, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err, "commit transaction")
	}
	return nil
}

// constraintFields maps unique constraints to the input field they guard
var constraintFields = map[string]string{
	"trips_slug_key":          "slug",
	"trip_days_trip_date_key": "date",
	"amenities_name_key":      "name",
	"venue_types_name_key":    "name",
}

// mapError classifies postgres constraint failures and wraps everything else
// the way the rest of the repository layer does.
func mapError(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s: record not found", op)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			field := constraintFields[pqErr.Constraint]
			if field == "" {
				field = pqErr.Constraint
			}
			return &apperr.Error{Kind: apperr.KindConflict, Field: field, Msg: op + ": duplicate value", Err: err}
		case "23503": // foreign_key_violation
			return &apperr.Error{Kind: apperr.KindConflict, Msg: op + ": record is still referenced", Err: err}
		case "23514": // check_violation
			return &apperr.Error{Kind: apperr.KindInvariant, Msg: op + ": " + pqErr.Constraint, Err: err}
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// expectOneRow turns a zero-row delete into a not-found error
func expectOneRow(result sql.Result, what string, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.NotFound("%s with ID %d not found", what, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func nullableID(id sql.NullInt64) *int64 {
	if !id.Valid {
		return nil
	}
	v := id.Int64
	return &v
}
