package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

// CreateContent adds a shared section or FAQ. New "always" items reach the
// trips created after them, not existing ones.
func (s *Service) CreateContent(ctx context.Context, item *models.SharedContentItem) (*models.SharedContentItem, error) {
	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		return nil, apperr.Validation("title", "title is required")
	}
	switch item.Kind {
	case models.ContentSection, models.ContentFAQ:
	default:
		return nil, apperr.Validation("kind", "unknown content kind %q", item.Kind)
	}
	switch item.ContentType {
	case models.ContentTripSpecific, models.ContentGeneral, models.ContentAlways:
	case "":
		item.ContentType = models.ContentGeneral
	default:
		return nil, apperr.Validation("content_type", "unknown content type %q", item.ContentType)
	}

	created, err := s.store.Content().Create(ctx, item)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"content_id":   created.ID,
		"content_type": created.ContentType,
	}).Info("Shared content created")
	return created, nil
}

// ListContent returns the shared items of one content type
func (s *Service) ListContent(ctx context.Context, contentType models.ContentType) ([]*models.SharedContentItem, error) {
	return s.store.Content().ListByType(ctx, contentType)
}

// ListTripContent returns the items linked to a trip in display order
func (s *Service) ListTripContent(ctx context.Context, tripID int64) ([]*models.TripContent, error) {
	if _, err := s.tripByID(ctx, s.store, tripID); err != nil {
		return nil, err
	}
	return s.store.Content().ListForTrip(ctx, tripID)
}

// AssignContent links a shared item to a trip. Assigning twice is a no-op.
func (s *Service) AssignContent(ctx context.Context, tripID, contentID int64) ([]*models.TripContent, error) {
	var links []*models.TripContent
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := s.tripByID(ctx, tx, tripID); err != nil {
			return err
		}
		if _, err := contentByID(ctx, tx, contentID); err != nil {
			return err
		}
		if err := tx.Content().Assign(ctx, tripID, contentID); err != nil {
			return err
		}
		var err error
		links, err = tx.Content().ListForTrip(ctx, tripID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

// UnassignContent unlinks a shared item from a trip. "always" items stay.
func (s *Service) UnassignContent(ctx context.Context, tripID, contentID int64) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		item, err := contentByID(ctx, tx, contentID)
		if err != nil {
			return err
		}
		if item.IsAlways() {
			return apperr.Invariant("%q is attached to every trip and cannot be removed", item.Title)
		}
		return tx.Content().Unassign(ctx, tripID, contentID)
	})
}

// ReorderContent sets the display order of a trip's content in one batch.
// Update IDs are content item IDs.
func (s *Service) ReorderContent(ctx context.Context, tripID int64, updates []models.OrderUpdate) ([]*models.TripContent, error) {
	if err := checkOrder(updates); err != nil {
		return nil, err
	}

	var links []*models.TripContent
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := s.tripByID(ctx, tx, tripID); err != nil {
			return err
		}
		if err := tx.Content().Reorder(ctx, tripID, updates); err != nil {
			return err
		}
		var err error
		links, err = tx.Content().ListForTrip(ctx, tripID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return links, nil
}

func contentByID(ctx context.Context, store repository.Store, id int64) (*models.SharedContentItem, error) {
	item, err := store.Content().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("content item with ID %d not found", id)
	}
	return item, nil
}
