package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
)

type dayEntryRepository struct{ s *Store }

func (r *dayEntryRepository) Create(ctx context.Context, entry *models.DayEntry) (*models.DayEntry, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if d.trips[entry.TripID] == nil {
		return nil, apperr.Conflict("trip_id", "trip %d does not exist", entry.TripID)
	}
	if err := checkDate(d, entry, 0); err != nil {
		return nil, err
	}

	now := time.Now()
	entry.ID = d.id()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	stored := *entry
	d.days[entry.ID] = &stored
	d.writes++
	return entry, nil
}

func checkDate(d *data, entry *models.DayEntry, selfID int64) error {
	for id, other := range d.days {
		if id != selfID && other.TripID == entry.TripID && other.Date.Equal(entry.Date) {
			return apperr.Conflict("date", "trip %d already has an entry for %s", entry.TripID, entry.Date)
		}
	}
	return nil
}

func (r *dayEntryRepository) GetByID(ctx context.Context, id int64) (*models.DayEntry, error) {
	unlock := r.s.lock()
	defer unlock()

	entry, ok := r.s.data().days[id]
	if !ok {
		return nil, nil
	}
	c := *entry
	return &c, nil
}

func (r *dayEntryRepository) ListByTrip(ctx context.Context, tripID int64) ([]*models.DayEntry, error) {
	unlock := r.s.lock()
	defer unlock()

	var entries []*models.DayEntry
	for _, entry := range r.s.data().days {
		if entry.TripID == tripID {
			c := *entry
			entries = append(entries, &c)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].OrderIndex != entries[j].OrderIndex {
			return entries[i].OrderIndex < entries[j].OrderIndex
		}
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}

func (r *dayEntryRepository) Update(ctx context.Context, entry *models.DayEntry) (*models.DayEntry, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	existing, ok := d.days[entry.ID]
	if !ok {
		return nil, apperr.NotFound("day entry with ID %d not found", entry.ID)
	}
	entry.TripID = existing.TripID
	entry.Kind = existing.Kind
	if err := checkDate(d, entry, entry.ID); err != nil {
		return nil, err
	}

	entry.CreatedAt = existing.CreatedAt
	entry.UpdatedAt = time.Now()
	stored := *entry
	d.days[entry.ID] = &stored
	d.writes++
	return entry, nil
}

func (r *dayEntryRepository) Delete(ctx context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if _, ok := d.days[id]; !ok {
		return apperr.NotFound("day entry with ID %d not found", id)
	}
	delete(d.days, id)
	d.writes++
	return nil
}

// Reorder validates every id before writing any order index
func (r *dayEntryRepository) Reorder(ctx context.Context, tripID int64, updates []models.OrderUpdate) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if err := checkUpdates(updates); err != nil {
		return err
	}
	for _, u := range updates {
		entry := d.days[u.ID]
		if entry == nil || entry.TripID != tripID {
			return apperr.Conflict("order", "day entry %d does not belong to trip %d", u.ID, tripID)
		}
	}
	now := time.Now()
	for _, u := range updates {
		d.days[u.ID].OrderIndex = u.OrderIndex
		d.days[u.ID].UpdatedAt = now
	}
	if len(updates) > 0 {
		d.writes++
	}
	return nil
}

func checkUpdates(updates []models.OrderUpdate) error {
	seen := make(map[int64]bool, len(updates))
	for _, u := range updates {
		if seen[u.ID] {
			return apperr.Validation("order", "id %d appears more than once", u.ID)
		}
		seen[u.ID] = true
	}
	return nil
}

type contentRepository struct{ s *Store }

func (r *contentRepository) Create(ctx context.Context, item *models.SharedContentItem) (*models.SharedContentItem, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	now := time.Now()
	item.ID = d.id()
	item.CreatedAt = now
	item.UpdatedAt = now
	stored := *item
	d.content[item.ID] = &stored
	d.writes++
	return item, nil
}

func (r *contentRepository) GetByID(ctx context.Context, id int64) (*models.SharedContentItem, error) {
	unlock := r.s.lock()
	defer unlock()

	item, ok := r.s.data().content[id]
	if !ok {
		return nil, nil
	}
	c := *item
	return &c, nil
}

func (r *contentRepository) ListByType(ctx context.Context, contentType models.ContentType) ([]*models.SharedContentItem, error) {
	unlock := r.s.lock()
	defer unlock()

	var items []*models.SharedContentItem
	for _, item := range r.s.data().content {
		if item.ContentType == contentType {
			c := *item
			items = append(items, &c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *contentRepository) ListForTrip(ctx context.Context, tripID int64) ([]*models.TripContent, error) {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	var links []*models.TripContent
	for key, order := range d.tripContent {
		if key.tripID != tripID {
			continue
		}
		link := &models.TripContent{TripID: key.tripID, ContentID: key.contentID, OrderIndex: order}
		if item := d.content[key.contentID]; item != nil {
			c := *item
			link.Item = &c
		}
		links = append(links, link)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].OrderIndex != links[j].OrderIndex {
			return links[i].OrderIndex < links[j].OrderIndex
		}
		return links[i].ContentID < links[j].ContentID
	})
	return links, nil
}

func (r *contentRepository) Assign(ctx context.Context, tripID, contentID int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if d.trips[tripID] == nil {
		return apperr.Conflict("trip_id", "trip %d does not exist", tripID)
	}
	if d.content[contentID] == nil {
		return apperr.Conflict("content_id", "content item %d does not exist", contentID)
	}
	key := tripContentKey{tripID: tripID, contentID: contentID}
	if _, ok := d.tripContent[key]; ok {
		return nil
	}

	next := 0
	for k, order := range d.tripContent {
		if k.tripID == tripID && order >= next {
			next = order + 1
		}
	}
	d.tripContent[key] = next
	d.writes++
	return nil
}

func (r *contentRepository) Unassign(ctx context.Context, tripID, contentID int64) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	key := tripContentKey{tripID: tripID, contentID: contentID}
	if _, ok := d.tripContent[key]; !ok {
		return nil
	}
	delete(d.tripContent, key)
	d.writes++
	return nil
}

func (r *contentRepository) Reorder(ctx context.Context, tripID int64, updates []models.OrderUpdate) error {
	unlock := r.s.lock()
	defer unlock()
	d := r.s.data()

	if err := checkUpdates(updates); err != nil {
		return err
	}
	for _, u := range updates {
		if _, ok := d.tripContent[tripContentKey{tripID: tripID, contentID: u.ID}]; !ok {
			return apperr.Conflict("order", "content item %d is not assigned to trip %d", u.ID, tripID)
		}
	}
	for _, u := range updates {
		d.tripContent[tripContentKey{tripID: tripID, contentID: u.ID}] = u.OrderIndex
	}
	if len(updates) > 0 {
		d.writes++
	}
	return nil
}
