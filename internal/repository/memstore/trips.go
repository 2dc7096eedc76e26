package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

type tripRepository struct{ s *Store }

// Create stores the trip and links every "always" content item to it, ordered
// by item id, under the same lock.
func (r *tripRepository) Create(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if err := checkTrip(d, trip, 0); err != nil {
		return nil, err
	}

	now := time.Now()
	trip.ID = d.id()
	trip.CreatedAt = now
	trip.UpdatedAt = now
	d.trips[trip.ID] = copyTrip(trip)
	d.writes++

	var always []int64
	for id, item := range d.content {
		if item.IsAlways() {
			always = append(always, id)
		}
	}
	sort.Slice(always, func(i, j int) bool { return always[i] < always[j] })
	for i, id := range always {
		d.tripContent[tripContentKey{tripID: trip.ID, contentID: id}] = i
	}

	return trip, nil
}

// checkTrip applies the constraints the trips table declares
func checkTrip(d *data, trip *models.Trip, selfID int64) error {
	if err := trip.ValidateProperty(); err != nil {
		return err
	}
	if trip.EndDate.Before(trip.StartDate) {
		return apperr.Invariant("trip ends before it starts")
	}
	if trip.ResortID != nil && d.resorts[*trip.ResortID] == nil {
		return apperr.Conflict("resort_id", "resort %d does not exist", *trip.ResortID)
	}
	if trip.ShipID != nil && d.ships[*trip.ShipID] == nil {
		return apperr.Conflict("ship_id", "ship %d does not exist", *trip.ShipID)
	}
	for id, existing := range d.trips {
		if id != selfID && existing.Slug == trip.Slug {
			return apperr.Conflict("slug", "slug %q is already taken", trip.Slug)
		}
	}
	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id int64) (*models.Trip, error) {
	unlock := r.s.lock()
	defer unlock()

	trip, ok := r.s.data().trips[id]
	if !ok {
		return nil, nil
	}
	return copyTrip(trip), nil
}

func (r *tripRepository) GetBySlug(ctx context.Context, slug string) (*models.Trip, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, trip := range r.s.data().trips {
		if trip.Slug == slug {
			return copyTrip(trip), nil
		}
	}
	return nil, nil
}

func (r *tripRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	trip, err := r.GetBySlug(ctx, slug)
	return trip != nil, err
}

func (r *tripRepository) List(ctx context.Context, filters repository.TripFilters) ([]*models.Trip, error) {
	unlock := r.s.lock()
	defer unlock()

	var trips []*models.Trip
	for _, trip := range r.s.data().trips {
		if filters.StatusID != nil && trip.StatusID != *filters.StatusID {
			continue
		}
		trips = append(trips, copyTrip(trip))
	}
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].StartDate.Equal(trips[j].StartDate) {
			return trips[i].StartDate.After(trips[j].StartDate)
		}
		return trips[i].ID > trips[j].ID
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(trips) {
			return nil, nil
		}
		trips = trips[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(trips) {
		trips = trips[:filters.Limit]
	}
	return trips, nil
}

func (r *tripRepository) Update(ctx context.Context, trip *models.Trip) (*models.Trip, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	existing, ok := d.trips[trip.ID]
	if !ok {
		return nil, apperr.NotFound("trip with ID %d not found", trip.ID)
	}
	if err := checkTrip(d, trip, trip.ID); err != nil {
		return nil, err
	}

	trip.CreatedAt = existing.CreatedAt
	trip.UpdatedAt = time.Now()
	d.trips[trip.ID] = copyTrip(trip)
	d.writes++
	return trip, nil
}

func (r *tripRepository) Delete(ctx context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if _, ok := d.trips[id]; !ok {
		return apperr.NotFound("trip with ID %d not found", id)
	}
	delete(d.trips, id)
	for dayID, entry := range d.days {
		if entry.TripID == id {
			delete(d.days, dayID)
		}
	}
	for key := range d.tripContent {
		if key.tripID == id {
			delete(d.tripContent, key)
		}
	}
	d.writes++
	return nil
}

type resortRepository struct{ s *Store }

func (r *resortRepository) Create(ctx context.Context, resort *models.Resort) (*models.Resort, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	now := time.Now()
	resort.ID = d.id()
	resort.CreatedAt = now
	resort.UpdatedAt = now
	stored := *resort
	d.resorts[resort.ID] = &stored
	d.writes++
	return resort, nil
}

func (r *resortRepository) GetByID(ctx context.Context, id int64) (*models.Resort, error) {
	unlock := r.s.lock()
	defer unlock()

	resort, ok := r.s.data().resorts[id]
	if !ok {
		return nil, nil
	}
	c := *resort
	return &c, nil
}

func (r *resortRepository) List(ctx context.Context) ([]*models.Resort, error) {
	unlock := r.s.lock()
	defer unlock()

	var resorts []*models.Resort
	for _, resort := range r.s.data().resorts {
		c := *resort
		resorts = append(resorts, &c)
	}
	sort.Slice(resorts, func(i, j int) bool { return resorts[i].Name < resorts[j].Name })
	return resorts, nil
}

func (r *resortRepository) Update(ctx context.Context, resort *models.Resort) (*models.Resort, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	existing, ok := d.resorts[resort.ID]
	if !ok {
		return nil, apperr.NotFound("resort with ID %d not found", resort.ID)
	}
	resort.CreatedAt = existing.CreatedAt
	resort.UpdatedAt = time.Now()
	stored := *resort
	d.resorts[resort.ID] = &stored
	d.writes++
	return resort, nil
}

func (r *resortRepository) Delete(ctx context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if _, ok := d.resorts[id]; !ok {
		return apperr.NotFound("resort with ID %d not found", id)
	}
	for _, trip := range d.trips {
		if trip.ResortID != nil && *trip.ResortID == id {
			return apperr.Conflict("resort_id", "resort %d is used by trip %d", id, trip.ID)
		}
	}
	deleteProperty(d, models.PropertyRef{Type: models.PropertyResort, ID: id})
	delete(d.resorts, id)
	d.writes++
	return nil
}

type shipRepository struct{ s *Store }

func (r *shipRepository) Create(ctx context.Context, ship *models.Ship) (*models.Ship, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	now := time.Now()
	ship.ID = d.id()
	ship.CreatedAt = now
	ship.UpdatedAt = now
	stored := *ship
	d.ships[ship.ID] = &stored
	d.writes++
	return ship, nil
}

func (r *shipRepository) GetByID(ctx context.Context, id int64) (*models.Ship, error) {
	unlock := r.s.lock()
	defer unlock()

	ship, ok := r.s.data().ships[id]
	if !ok {
		return nil, nil
	}
	c := *ship
	return &c, nil
}

func (r *shipRepository) List(ctx context.Context) ([]*models.Ship, error) {
	unlock := r.s.lock()
	defer unlock()

	var ships []*models.Ship
	for _, ship := range r.s.data().ships {
		c := *ship
		ships = append(ships, &c)
	}
	sort.Slice(ships, func(i, j int) bool { return ships[i].Name < ships[j].Name })
	return ships, nil
}

func (r *shipRepository) Update(ctx context.Context, ship *models.Ship) (*models.Ship, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	existing, ok := d.ships[ship.ID]
	if !ok {
		return nil, apperr.NotFound("ship with ID %d not found", ship.ID)
	}
	ship.CreatedAt = existing.CreatedAt
	ship.UpdatedAt = time.Now()
	stored := *ship
	d.ships[ship.ID] = &stored
	d.writes++
	return ship, nil
}

func (r *shipRepository) Delete(ctx context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if _, ok := d.ships[id]; !ok {
		return apperr.NotFound("ship with ID %d not found", id)
	}
	for _, trip := range d.trips {
		if trip.ShipID != nil && *trip.ShipID == id {
			return apperr.Conflict("ship_id", "ship %d is used by trip %d", id, trip.ID)
		}
	}
	deleteProperty(d, models.PropertyRef{Type: models.PropertyCruise, ID: id})
	delete(d.ships, id)
	d.writes++
	return nil
}

// deleteProperty drops the venues and amenity links owned by a property
func deleteProperty(d *data, owner models.PropertyRef) {
	for id, venue := range d.venues {
		if venue.Owner == owner {
			delete(d.venues, id)
		}
	}
	for key := range d.links {
		if key.owner == owner {
			delete(d.links, key)
		}
	}
}

func propertyExists(d *data, owner models.PropertyRef) bool {
	switch owner.Type {
	case models.PropertyResort:
		return d.resorts[owner.ID] != nil
	case models.PropertyCruise:
		return d.ships[owner.ID] != nil
	default:
		return false
	}
}
