package models

import (
	"fmt"
	"time"
)

// PropertyType names the variant a trip is built around
type PropertyType string

const (
	PropertyUnset  PropertyType = ""
	PropertyResort PropertyType = "resort"
	PropertyCruise PropertyType = "cruise"
)

// ParsePropertyType accepts "resort", "cruise" and "ship" (an alias used by
// the extraction service).
func ParsePropertyType(s string) (PropertyType, error) {
	switch s {
	case "resort":
		return PropertyResort, nil
	case "cruise", "ship":
		return PropertyCruise, nil
	default:
		return PropertyUnset, fmt.Errorf("unknown property type %q", s)
	}
}

// Property is a Resort or a Ship. The unexported method closes the set.
type Property interface {
	PropertyType() PropertyType
	PropertyID() int64
	DisplayName() string
	ImageURLs() []string
	isProperty()
}

// PropertyRef identifies the owner of venues and amenity links
type PropertyRef struct {
	Type PropertyType `json:"type"`
	ID   int64        `json:"id"`
}

func (r PropertyRef) String() string {
	return fmt.Sprintf("%s#%d", r.Type, r.ID)
}

// RefOf returns the reference to a persisted property
func RefOf(p Property) PropertyRef {
	return PropertyRef{Type: p.PropertyType(), ID: p.PropertyID()}
}

// Resort is a land-based property
type Resort struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Location       string    `json:"location" db:"location"`
	Capacity       int       `json:"capacity" db:"capacity"`
	RoomCount      int       `json:"room_count" db:"room_count"`
	ImageURL       string    `json:"image_url" db:"image_url"`
	Description    string    `json:"description" db:"description"`
	PropertyMapURL string    `json:"property_map_url" db:"property_map_url"`
	CheckInTime    string    `json:"check_in_time" db:"check_in_time"`
	CheckOutTime   string    `json:"check_out_time" db:"check_out_time"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

func (r *Resort) PropertyType() PropertyType { return PropertyResort }
func (r *Resort) PropertyID() int64          { return r.ID }
func (r *Resort) DisplayName() string        { return r.Name }
func (r *Resort) isProperty()                {}

func (r *Resort) ImageURLs() []string {
	return nonEmpty(r.ImageURL, r.PropertyMapURL)
}

// Ship is a cruise vessel
type Ship struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	CruiseLine   string    `json:"cruise_line" db:"cruise_line"`
	Capacity     int       `json:"capacity" db:"capacity"`
	Decks        int       `json:"decks" db:"decks"`
	ImageURL     string    `json:"image_url" db:"image_url"`
	Description  string    `json:"description" db:"description"`
	DeckPlansURL string    `json:"deck_plans_url" db:"deck_plans_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (s *Ship) PropertyType() PropertyType { return PropertyCruise }
func (s *Ship) PropertyID() int64          { return s.ID }
func (s *Ship) DisplayName() string        { return s.Name }
func (s *Ship) isProperty()                {}

func (s *Ship) ImageURLs() []string {
	return nonEmpty(s.ImageURL, s.DeckPlansURL)
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
