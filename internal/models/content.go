package models

import "time"

// ContentKind is a section or a FAQ
type ContentKind string

const (
	ContentSection ContentKind = "section"
	ContentFAQ     ContentKind = "faq"
)

// ContentType controls how a shared item reaches trips
type ContentType string

const (
	// ContentTripSpecific items are written for one trip
	ContentTripSpecific ContentType = "trip-specific"
	// ContentGeneral items may be reused by manual selection
	ContentGeneral ContentType = "general"
	// ContentAlways items are attached to every trip on creation and
	// cannot be detached
	ContentAlways ContentType = "always"
)

// SharedContentItem is a section or FAQ that can be linked to trips
type SharedContentItem struct {
	ID          int64       `json:"id" db:"id"`
	Kind        ContentKind `json:"kind" db:"kind"`
	ContentType ContentType `json:"content_type" db:"content_type"`
	Title       string      `json:"title" db:"title"`
	Body        string      `json:"body" db:"body"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// IsAlways reports whether the item is auto-attached
func (c *SharedContentItem) IsAlways() bool {
	return c.ContentType == ContentAlways
}

// TripContent is a junction row linking a trip to a shared item
type TripContent struct {
	TripID     int64              `json:"trip_id" db:"trip_id"`
	ContentID  int64              `json:"content_id" db:"content_id"`
	OrderIndex int                `json:"order_index" db:"order_index"`
	Item       *SharedContentItem `json:"item,omitempty"`
}
