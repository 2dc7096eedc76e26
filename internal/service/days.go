package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

// ListDays returns the days of a trip in display order
func (s *Service) ListDays(ctx context.Context, tripID int64) ([]*models.DayEntry, error) {
	if _, err := s.tripByID(ctx, s.store, tripID); err != nil {
		return nil, err
	}
	return s.store.Days().ListByTrip(ctx, tripID)
}

// AddDay adds a pre- or post-trip day to a persisted trip. The entries after
// it in display order shift down by one. An image URL that is not already in
// the media store is fetched and stored first.
func (s *Service) AddDay(ctx context.Context, tripID int64, date models.Date, details daygen.Details) (*models.DayEntry, error) {
	trip, err := s.tripByID(ctx, s.store, tripID)
	if err != nil {
		return nil, err
	}
	draft := &models.DayEntry{Kind: models.EntryKindFor(trip.PropertyType())}
	if err := daygen.ApplyDetails(draft, details); err != nil {
		return nil, err
	}
	fresh, err := s.adoptImage(ctx, &details)
	if err != nil {
		return nil, err
	}

	var created *models.DayEntry
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		trip, err := s.tripByID(ctx, tx, tripID)
		if err != nil {
			return err
		}
		entries, err := tx.Days().ListByTrip(ctx, tripID)
		if err != nil {
			return err
		}

		kind := models.EntryKindFor(trip.PropertyType())
		updated, added, err := daygen.AddDay(trip.StartDate, trip.EndDate, kind, entries, date)
		if err != nil {
			return err
		}
		if err := daygen.ApplyDetails(added, details); err != nil {
			return err
		}
		added.TripID = tripID

		if created, err = tx.Days().Create(ctx, added); err != nil {
			return err
		}
		return persistOrder(ctx, tx, tripID, entries, updated)
	})
	if err != nil {
		if fresh {
			s.pipeline.DeleteObject(ctx, details.ImageURL)
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id": tripID,
		"date":    date.String(),
		"label":   created.Label(),
	}).Info("Day added")
	return created, nil
}

// UpdateDay edits the contents of a day. Date and numbering never change.
// A new image URL goes through the media pipeline; the previous object is
// deleted once nothing references it.
func (s *Service) UpdateDay(ctx context.Context, id int64, details daygen.Details) (*models.DayEntry, error) {
	entry, err := s.store.Days().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, apperr.NotFound("day with ID %d not found", id)
	}
	oldImage := entry.ImageURL

	check := *entry
	if err := daygen.ApplyDetails(&check, details); err != nil {
		return nil, err
	}
	fresh := false
	if details.ImageURL != oldImage {
		if fresh, err = s.adoptImage(ctx, &details); err != nil {
			return nil, err
		}
	}

	if err := daygen.ApplyDetails(entry, details); err != nil {
		return nil, err
	}
	updated, err := s.store.Days().Update(ctx, entry)
	if err != nil {
		if fresh {
			s.pipeline.DeleteObject(ctx, details.ImageURL)
		}
		return nil, err
	}

	if oldImage != updated.ImageURL {
		s.releaseImage(ctx, oldImage)
	}
	return updated, nil
}

// DeleteDay removes a pre- or post-trip day. Main-span days go away only by
// changing the trip dates.
func (s *Service) DeleteDay(ctx context.Context, id int64) error {
	var removed *models.DayEntry

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		entry, err := tx.Days().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperr.NotFound("day with ID %d not found", id)
		}
		entries, err := tx.Days().ListByTrip(ctx, entry.TripID)
		if err != nil {
			return err
		}

		remaining, r, err := daygen.RemoveDay(entries, entry.Date)
		if err != nil {
			return err
		}
		removed = r
		if err := tx.Days().Delete(ctx, id); err != nil {
			return err
		}
		return persistOrder(ctx, tx, entry.TripID, entries, remaining)
	})
	if err != nil {
		return err
	}

	s.releaseImage(ctx, removed.ImageURL)
	s.logger.WithFields(logrus.Fields{
		"trip_id": removed.TripID,
		"date":    removed.Date.String(),
	}).Info("Day deleted")
	return nil
}

// ReorderDays applies a batch of order changes all at once
func (s *Service) ReorderDays(ctx context.Context, tripID int64, updates []models.OrderUpdate) ([]*models.DayEntry, error) {
	if err := checkOrder(updates); err != nil {
		return nil, err
	}

	var days []*models.DayEntry
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := s.tripByID(ctx, tx, tripID); err != nil {
			return err
		}
		if err := tx.Days().Reorder(ctx, tripID, updates); err != nil {
			return err
		}
		var err error
		days, err = tx.Days().ListByTrip(ctx, tripID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return days, nil
}

// persistOrder writes the order indexes that differ between before and
// after as one batch
func persistOrder(ctx context.Context, tx repository.Store, tripID int64, before, after []*models.DayEntry) error {
	old := make(map[int64]int, len(before))
	for _, e := range before {
		old[e.ID] = e.OrderIndex
	}

	var updates []models.OrderUpdate
	for _, e := range after {
		if prev, ok := old[e.ID]; ok && e.ID != 0 && prev != e.OrderIndex {
			updates = append(updates, models.OrderUpdate{ID: e.ID, OrderIndex: e.OrderIndex})
		}
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Days().Reorder(ctx, tripID, updates)
}
