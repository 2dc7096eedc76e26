package models

import "time"

// VenueType categorizes venues (restaurant, bar, theater, ...)
type VenueType struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Venue is a place inside exactly one property. It is never shared.
type Venue struct {
	ID          int64       `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	VenueTypeID int64       `json:"venue_type_id" db:"venue_type_id"`
	Description string      `json:"description" db:"description"`
	Owner       PropertyRef `json:"owner"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	VenueType   *VenueType  `json:"venue_type,omitempty"`
}

// Amenity is a shared-pool feature linked to properties through a junction row
type Amenity struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AmenityUsage counts how many properties link an amenity
type AmenityUsage struct {
	Amenity
	Resorts int `json:"resorts"`
	Ships   int `json:"ships"`
}
