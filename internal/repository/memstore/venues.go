package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
)

type venueTypeRepository struct{ s *Store }

func (r *venueTypeRepository) Create(ctx context.Context, vt *models.VenueType) (*models.VenueType, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	for _, existing := range d.venueTypes {
		if sameName(existing.Name, vt.Name) {
			return nil, apperr.Conflict("name", "venue type %q already exists", vt.Name)
		}
	}
	vt.ID = d.id()
	stored := *vt
	d.venueTypes[vt.ID] = &stored
	d.writes++
	return vt, nil
}

func (r *venueTypeRepository) GetByID(ctx context.Context, id int64) (*models.VenueType, error) {
	unlock := r.s.lock()
	defer unlock()

	vt, ok := r.s.data().venueTypes[id]
	if !ok {
		return nil, nil
	}
	c := *vt
	return &c, nil
}

func (r *venueTypeRepository) GetByName(ctx context.Context, name string) (*models.VenueType, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, vt := range r.s.data().venueTypes {
		if sameName(vt.Name, name) {
			c := *vt
			return &c, nil
		}
	}
	return nil, nil
}

func (r *venueTypeRepository) List(ctx context.Context) ([]*models.VenueType, error) {
	unlock := r.s.lock()
	defer unlock()

	var types []*models.VenueType
	for _, vt := range r.s.data().venueTypes {
		c := *vt
		types = append(types, &c)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

type venueRepository struct{ s *Store }

func (r *venueRepository) Create(ctx context.Context, venue *models.Venue) (*models.Venue, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if venue.Owner.Type == models.PropertyUnset {
		return nil, apperr.Invariant("venue owner %s has no property type", venue.Owner)
	}
	if !propertyExists(d, venue.Owner) {
		return nil, apperr.Conflict("owner", "property %s does not exist", venue.Owner)
	}
	if d.venueTypes[venue.VenueTypeID] == nil {
		return nil, apperr.Conflict("venue_type_id", "venue type %d does not exist", venue.VenueTypeID)
	}

	now := time.Now()
	venue.ID = d.id()
	venue.CreatedAt = now
	venue.UpdatedAt = now
	stored := *venue
	stored.VenueType = nil
	d.venues[venue.ID] = &stored
	d.writes++
	return venue, nil
}

func (r *venueRepository) GetByID(ctx context.Context, id int64) (*models.Venue, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	venue, ok := d.venues[id]
	if !ok {
		return nil, nil
	}
	return withType(d, venue), nil
}

func withType(d *data, venue *models.Venue) *models.Venue {
	c := *venue
	if vt := d.venueTypes[venue.VenueTypeID]; vt != nil {
		t := *vt
		c.VenueType = &t
	}
	return &c
}

func (r *venueRepository) ListByOwner(ctx context.Context, owner models.PropertyRef) ([]*models.Venue, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	var venues []*models.Venue
	for _, venue := range d.venues {
		if venue.Owner == owner {
			venues = append(venues, withType(d, venue))
		}
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i].ID < venues[j].ID })
	return venues, nil
}

// Update writes the venue's own fields. The stored owner is kept.
func (r *venueRepository) Update(ctx context.Context, venue *models.Venue) (*models.Venue, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	existing, ok := d.venues[venue.ID]
	if !ok {
		return nil, apperr.NotFound("venue with ID %d not found", venue.ID)
	}
	if d.venueTypes[venue.VenueTypeID] == nil {
		return nil, apperr.Conflict("venue_type_id", "venue type %d does not exist", venue.VenueTypeID)
	}

	existing.Name = venue.Name
	existing.VenueTypeID = venue.VenueTypeID
	existing.Description = venue.Description
	existing.UpdatedAt = time.Now()
	d.writes++

	venue.Owner = existing.Owner
	venue.CreatedAt = existing.CreatedAt
	venue.UpdatedAt = existing.UpdatedAt
	return venue, nil
}

func (r *venueRepository) Delete(ctx context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if _, ok := d.venues[id]; !ok {
		return apperr.NotFound("venue with ID %d not found", id)
	}
	delete(d.venues, id)
	d.writes++
	return nil
}

type amenityRepository struct{ s *Store }

func (r *amenityRepository) Create(ctx context.Context, amenity *models.Amenity) (*models.Amenity, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	for _, existing := range d.amenities {
		if sameName(existing.Name, amenity.Name) {
			return nil, apperr.Conflict("name", "amenity %q already exists", amenity.Name)
		}
	}
	amenity.ID = d.id()
	amenity.CreatedAt = time.Now()
	stored := *amenity
	d.amenities[amenity.ID] = &stored
	d.writes++
	return amenity, nil
}

func (r *amenityRepository) GetByID(ctx context.Context, id int64) (*models.Amenity, error) {
	unlock := r.s.lock()
	defer unlock()

	amenity, ok := r.s.data().amenities[id]
	if !ok {
		return nil, nil
	}
	c := *amenity
	return &c, nil
}

func (r *amenityRepository) GetByName(ctx context.Context, name string) (*models.Amenity, error) {
	unlock := r.s.lock()
	defer unlock()

	for _, amenity := range r.s.data().amenities {
		if sameName(amenity.Name, name) {
			c := *amenity
			return &c, nil
		}
	}
	return nil, nil
}

func (r *amenityRepository) List(ctx context.Context) ([]*models.Amenity, error) {
	unlock := r.s.lock()
	defer unlock()

	var amenities []*models.Amenity
	for _, amenity := range r.s.data().amenities {
		c := *amenity
		amenities = append(amenities, &c)
	}
	sortAmenities(amenities)
	return amenities, nil
}

func sortAmenities(amenities []*models.Amenity) {
	sort.Slice(amenities, func(i, j int) bool {
		return strings.ToLower(amenities[i].Name) < strings.ToLower(amenities[j].Name)
	})
}

func (r *amenityRepository) Usage(ctx context.Context) ([]*models.AmenityUsage, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	byID := make(map[int64]*models.AmenityUsage, len(d.amenities))
	var usage []*models.AmenityUsage
	for _, amenity := range d.amenities {
		u := &models.AmenityUsage{Amenity: *amenity}
		byID[amenity.ID] = u
		usage = append(usage, u)
	}
	for key := range d.links {
		u := byID[key.amenityID]
		if u == nil {
			continue
		}
		if key.owner.Type == models.PropertyCruise {
			u.Ships++
		} else {
			u.Resorts++
		}
	}
	sort.Slice(usage, func(i, j int) bool {
		return strings.ToLower(usage[i].Name) < strings.ToLower(usage[j].Name)
	})
	return usage, nil
}

func (r *amenityRepository) ListForProperty(ctx context.Context, owner models.PropertyRef) ([]*models.Amenity, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	var amenities []*models.Amenity
	for key := range d.links {
		if key.owner != owner {
			continue
		}
		if amenity := d.amenities[key.amenityID]; amenity != nil {
			c := *amenity
			amenities = append(amenities, &c)
		}
	}
	sortAmenities(amenities)
	return amenities, nil
}

func (r *amenityRepository) Link(ctx context.Context, owner models.PropertyRef, amenityID int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if d.amenities[amenityID] == nil {
		return apperr.Conflict("amenity_id", "amenity %d does not exist", amenityID)
	}
	key := linkKey{owner: owner, amenityID: amenityID}
	if _, ok := d.links[key]; ok {
		return nil
	}
	d.links[key] = struct{}{}
	d.writes++
	return nil
}

func (r *amenityRepository) Unlink(ctx context.Context, owner models.PropertyRef, amenityID int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	key := linkKey{owner: owner, amenityID: amenityID}
	if _, ok := d.links[key]; !ok {
		return nil
	}
	delete(d.links, key)
	d.writes++
	return nil
}
