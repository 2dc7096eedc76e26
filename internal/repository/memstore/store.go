// Package memstore is an in-process implementation of repository.Store. It
// enforces the same uniqueness, ownership and cascade rules as the postgres
// schema and backs the MEMORY_STORE mode and the package tests.
package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

type linkKey struct {
	owner     models.PropertyRef
	amenityID int64
}

type tripContentKey struct {
	tripID    int64
	contentID int64
}

type data struct {
	nextID      int64
	trips       map[int64]*models.Trip
	resorts     map[int64]*models.Resort
	ships       map[int64]*models.Ship
	venueTypes  map[int64]*models.VenueType
	venues      map[int64]*models.Venue
	amenities   map[int64]*models.Amenity
	links       map[linkKey]struct{}
	days        map[int64]*models.DayEntry
	content     map[int64]*models.SharedContentItem
	tripContent map[tripContentKey]int
	writes      int
}

func newData() *data {
	return &data{
		trips:       make(map[int64]*models.Trip),
		resorts:     make(map[int64]*models.Resort),
		ships:       make(map[int64]*models.Ship),
		venueTypes:  make(map[int64]*models.VenueType),
		venues:      make(map[int64]*models.Venue),
		amenities:   make(map[int64]*models.Amenity),
		links:       make(map[linkKey]struct{}),
		days:        make(map[int64]*models.DayEntry),
		content:     make(map[int64]*models.SharedContentItem),
		tripContent: make(map[tripContentKey]int),
	}
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *data) clone() *data {
	c := &data{nextID: d.nextID, writes: d.writes}
	c.trips = cloneMap(d.trips, copyTrip)
	c.resorts = cloneMap(d.resorts, func(r *models.Resort) *models.Resort { v := *r; return &v })
	c.ships = cloneMap(d.ships, func(s *models.Ship) *models.Ship { v := *s; return &v })
	c.venueTypes = cloneMap(d.venueTypes, func(vt *models.VenueType) *models.VenueType { v := *vt; return &v })
	c.venues = cloneMap(d.venues, func(ve *models.Venue) *models.Venue { v := *ve; return &v })
	c.amenities = cloneMap(d.amenities, func(a *models.Amenity) *models.Amenity { v := *a; return &v })
	c.days = cloneMap(d.days, func(e *models.DayEntry) *models.DayEntry { v := *e; return &v })
	c.content = cloneMap(d.content, func(i *models.SharedContentItem) *models.SharedContentItem { v := *i; return &v })
	c.links = make(map[linkKey]struct{}, len(d.links))
	for k := range d.links {
		c.links[k] = struct{}{}
	}
	c.tripContent = make(map[tripContentKey]int, len(d.tripContent))
	for k, v := range d.tripContent {
		c.tripContent[k] = v
	}
	return c
}

func cloneMap[T any](m map[int64]*T, cp func(*T) *T) map[int64]*T {
	out := make(map[int64]*T, len(m))
	for k, v := range m {
		out[k] = cp(v)
	}
	return out
}

func copyTrip(t *models.Trip) *models.Trip {
	c := *t
	if t.ResortID != nil {
		id := *t.ResortID
		c.ResortID = &id
	}
	if t.ShipID != nil {
		id := *t.ShipID
		c.ShipID = &id
	}
	return &c
}

type state struct {
	mu sync.Mutex
	d  *data
}

// Store is safe for concurrent use. A transaction holds the store lock for
// its whole duration and restores a snapshot when it fails.
type Store struct {
	st   *state
	inTx bool
}

// New creates an empty store
func New() *Store {
	return &Store{st: &state{d: newData()}}
}

// Writes returns the number of mutating operations applied so far
func (s *Store) Writes() int {
	unlock := s.lock()
	defer unlock()
	return s.st.d.writes
}

// lock takes the store lock unless the caller is already inside a transaction
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.st.mu.Lock()
	return s.st.mu.Unlock
}

func (s *Store) data() *data { return s.st.d }

func (s *Store) Trips() repository.TripRepository           { return &tripRepository{s} }
func (s *Store) Resorts() repository.ResortRepository       { return &resortRepository{s} }
func (s *Store) Ships() repository.ShipRepository           { return &shipRepository{s} }
func (s *Store) VenueTypes() repository.VenueTypeRepository { return &venueTypeRepository{s} }
func (s *Store) Venues() repository.VenueRepository         { return &venueRepository{s} }
func (s *Store) Amenities() repository.AmenityRepository    { return &amenityRepository{s} }
func (s *Store) Days() repository.DayEntryRepository        { return &dayEntryRepository{s} }
func (s *Store) Content() repository.ContentRepository      { return &contentRepository{s} }
func (s *Store) Images() repository.ImageRepository         { return &imageRepository{s} }

// WithTx runs fn with exclusive access to the store. Changes made by fn are
// discarded when it returns an error or panics.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	snapshot := s.st.d.clone()
	committed := false
	defer func() {
		if !committed {
			s.st.d = snapshot
		}
	}()

	if err := fn(&Store{st: s.st, inTx: true}); err != nil {
		return err
	}
	committed = true
	return nil
}

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
