package repository

import (
	"context"

	"github.com/Kerhoff/TripGuide/internal/models"
)

// Store groups the repositories and defines a transaction scope. Every
// repository obtained from the Store passed to fn shares fn's transaction.
// Calling WithTx on a Store that is already transactional joins the
// running transaction.
type Store interface {
	Trips() TripRepository
	Resorts() ResortRepository
	Ships() ShipRepository
	VenueTypes() VenueTypeRepository
	Venues() VenueRepository
	Amenities() AmenityRepository
	Days() DayEntryRepository
	Content() ContentRepository
	Images() ImageRepository

	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// TripRepository defines the interface for trip data operations.
// Create links every "always" shared content item to the new trip before the
// creating transaction becomes visible. A slug clash is reported as an
// apperr conflict on field "slug".
type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	GetByID(ctx context.Context, id int64) (*models.Trip, error)
	GetBySlug(ctx context.Context, slug string) (*models.Trip, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filters TripFilters) ([]*models.Trip, error)
	Update(ctx context.Context, trip *models.Trip) (*models.Trip, error)
	Delete(ctx context.Context, id int64) error
}

// ResortRepository defines the interface for resort data operations
type ResortRepository interface {
	Create(ctx context.Context, resort *models.Resort) (*models.Resort, error)
	GetByID(ctx context.Context, id int64) (*models.Resort, error)
	List(ctx context.Context) ([]*models.Resort, error)
	Update(ctx context.Context, resort *models.Resort) (*models.Resort, error)
	Delete(ctx context.Context, id int64) error
}

// ShipRepository defines the interface for ship data operations
type ShipRepository interface {
	Create(ctx context.Context, ship *models.Ship) (*models.Ship, error)
	GetByID(ctx context.Context, id int64) (*models.Ship, error)
	List(ctx context.Context) ([]*models.Ship, error)
	Update(ctx context.Context, ship *models.Ship) (*models.Ship, error)
	Delete(ctx context.Context, id int64) error
}

// VenueTypeRepository defines the interface for venue type lookups
type VenueTypeRepository interface {
	Create(ctx context.Context, vt *models.VenueType) (*models.VenueType, error)
	GetByID(ctx context.Context, id int64) (*models.VenueType, error)
	GetByName(ctx context.Context, name string) (*models.VenueType, error)
	List(ctx context.Context) ([]*models.VenueType, error)
}

// VenueRepository defines the interface for venue data operations.
// A venue's owner is fixed at creation.
type VenueRepository interface {
	Create(ctx context.Context, venue *models.Venue) (*models.Venue, error)
	GetByID(ctx context.Context, id int64) (*models.Venue, error)
	ListByOwner(ctx context.Context, owner models.PropertyRef) ([]*models.Venue, error)
	Update(ctx context.Context, venue *models.Venue) (*models.Venue, error)
	Delete(ctx context.Context, id int64) error
}

// AmenityRepository defines the interface for the shared amenity pool and
// its property junction rows. Link and Unlink are idempotent.
type AmenityRepository interface {
	Create(ctx context.Context, amenity *models.Amenity) (*models.Amenity, error)
	GetByID(ctx context.Context, id int64) (*models.Amenity, error)
	GetByName(ctx context.Context, name string) (*models.Amenity, error)
	List(ctx context.Context) ([]*models.Amenity, error)
	Usage(ctx context.Context) ([]*models.AmenityUsage, error)
	ListForProperty(ctx context.Context, owner models.PropertyRef) ([]*models.Amenity, error)
	Link(ctx context.Context, owner models.PropertyRef, amenityID int64) error
	Unlink(ctx context.Context, owner models.PropertyRef, amenityID int64) error
}

// DayEntryRepository defines the interface for schedule and itinerary rows.
// Reorder applies every update or none of them.
type DayEntryRepository interface {
	Create(ctx context.Context, entry *models.DayEntry) (*models.DayEntry, error)
	GetByID(ctx context.Context, id int64) (*models.DayEntry, error)
	ListByTrip(ctx context.Context, tripID int64) ([]*models.DayEntry, error)
	Update(ctx context.Context, entry *models.DayEntry) (*models.DayEntry, error)
	Delete(ctx context.Context, id int64) error
	Reorder(ctx context.Context, tripID int64, updates []models.OrderUpdate) error
}

// ContentRepository defines the interface for shared sections/FAQs and
// their trip assignments. Reorder applies every update or none of them.
type ContentRepository interface {
	Create(ctx context.Context, item *models.SharedContentItem) (*models.SharedContentItem, error)
	GetByID(ctx context.Context, id int64) (*models.SharedContentItem, error)
	ListByType(ctx context.Context, contentType models.ContentType) ([]*models.SharedContentItem, error)
	ListForTrip(ctx context.Context, tripID int64) ([]*models.TripContent, error)
	Assign(ctx context.Context, tripID, contentID int64) error
	Unassign(ctx context.Context, tripID, contentID int64) error
	Reorder(ctx context.Context, tripID int64, updates []models.OrderUpdate) error
}

// ImageRepository answers questions about stored image URLs across trips,
// days and properties.
type ImageRepository interface {
	// CountReferences returns how many image columns hold url
	CountReferences(ctx context.Context, url string) (int, error)
}

// TripFilters represents filters for querying trips
type TripFilters struct {
	StatusID *int64
	Limit    int
	Offset   int
}
