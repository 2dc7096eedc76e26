package models

import (
	"time"

	"github.com/Kerhoff/TripGuide/internal/apperr"
)

// Trip statuses as seeded in the trip_status table
const (
	TripStatusDraft     int64 = 1
	TripStatusUpcoming  int64 = 2
	TripStatusCurrent   int64 = 3
	TripStatusPast      int64 = 4
	TripStatusPublished int64 = 5
)

// TripStatusName returns the display name of a status id
func TripStatusName(id int64) string {
	switch id {
	case TripStatusDraft:
		return "draft"
	case TripStatusUpcoming:
		return "upcoming"
	case TripStatusCurrent:
		return "current"
	case TripStatusPast:
		return "past"
	case TripStatusPublished:
		return "published"
	default:
		return "unknown"
	}
}

// Trip is a cruise or a resort stay. Start and end dates are inclusive.
type Trip struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	StartDate    Date      `json:"start_date" db:"start_date"`
	EndDate      Date      `json:"end_date" db:"end_date"`
	StatusID     int64     `json:"status_id" db:"status_id"`
	Description  string    `json:"description" db:"description"`
	HeroImageURL string    `json:"hero_image_url" db:"hero_image_url"`
	ResortID     *int64    `json:"resort_id" db:"resort_id"`
	ShipID       *int64    `json:"ship_id" db:"ship_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PropertyType reports which property variant the trip references
func (t *Trip) PropertyType() PropertyType {
	switch {
	case t.ResortID != nil && t.ShipID == nil:
		return PropertyResort
	case t.ShipID != nil && t.ResortID == nil:
		return PropertyCruise
	default:
		return PropertyUnset
	}
}

// ValidateProperty enforces that exactly one of resort and ship is set.
func (t *Trip) ValidateProperty() error {
	if t.ResortID != nil && t.ShipID != nil {
		return apperr.Invariant("trip cannot reference both a resort and a ship")
	}
	if t.ResortID == nil && t.ShipID == nil {
		return apperr.Invariant("trip must reference a resort or a ship")
	}
	return nil
}

// Days returns the number of days in the main span
func (t *Trip) Days() int {
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return 0
	}
	return t.EndDate.Sub(t.StartDate) + 1
}
