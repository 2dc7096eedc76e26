package models

import (
	"fmt"
	"time"
)

// EntryKind tells a resort schedule row from a cruise itinerary row
type EntryKind string

const (
	EntrySchedule  EntryKind = "schedule"
	EntryItinerary EntryKind = "itinerary"
)

// EntryKindFor returns the day entry variant used by a property type
func EntryKindFor(pt PropertyType) EntryKind {
	if pt == PropertyCruise {
		return EntryItinerary
	}
	return EntrySchedule
}

// Day numbering zones
const (
	FirstPostTripDay = 100
	MaxMainSpanDays  = FirstPostTripDay - 1
)

// DayEntry is one day of a trip. DayNumber is derived from the date and the
// trip span; OrderIndex is the editor's display order and is independent.
type DayEntry struct {
	ID         int64     `json:"id" db:"id"`
	TripID     int64     `json:"trip_id" db:"trip_id"`
	Kind       EntryKind `json:"kind" db:"kind"`
	Date       Date      `json:"date" db:"date"`
	DayNumber  int       `json:"day_number" db:"day_number"`
	OrderIndex int       `json:"order_index" db:"order_index"`

	Description string `json:"description" db:"description"`
	ImageURL    string `json:"image_url" db:"image_url"`

	LocationName  string `json:"location_name,omitempty" db:"location_name"`
	ArrivalTime   string `json:"arrival_time,omitempty" db:"arrival_time"`
	DepartureTime string `json:"departure_time,omitempty" db:"departure_time"`
	AllAboardTime string `json:"all_aboard_time,omitempty" db:"all_aboard_time"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Label is the editor-facing name of the entry's day
func (e *DayEntry) Label() string {
	return DayLabel(e.DayNumber)
}

// IsMainSpan reports whether the entry lies between start and end date
func (e *DayEntry) IsMainSpan() bool {
	return e.DayNumber >= 1 && e.DayNumber < FirstPostTripDay
}

// DayLabel maps a signed day number to its display label
func DayLabel(dayNumber int) string {
	switch {
	case dayNumber < 1:
		return "Pre-Trip"
	case dayNumber >= FirstPostTripDay:
		return "Post-Trip"
	default:
		return fmt.Sprintf("Day %d", dayNumber)
	}
}

// DayNumberFor computes the signed day number of date for a trip span.
// The day before start is -1, the day after end is 100.
func DayNumberFor(start, end, date Date) int {
	switch {
	case date.Before(start):
		return -start.Sub(date)
	case date.After(end):
		return MaxMainSpanDays + date.Sub(end)
	default:
		return date.Sub(start) + 1
	}
}

// OrderUpdate moves one row to a new order index
type OrderUpdate struct {
	ID         int64 `json:"id"`
	OrderIndex int   `json:"order_index"`
}
