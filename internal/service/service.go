package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/media"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

// Service is the business logic layer behind the admin API and the bot for
// everything outside the wizard: persisted trips, their days and content,
// and the property catalog.
type Service struct {
	store    repository.Store
	pipeline *media.Pipeline
	logger   *logrus.Logger
}

// New creates a new Service with all required dependencies.
func New(store repository.Store, pipeline *media.Pipeline, logger *logrus.Logger) *Service {
	return &Service{store: store, pipeline: pipeline, logger: logger}
}

// ListTrips returns trips, newest first
func (s *Service) ListTrips(ctx context.Context, filters repository.TripFilters) ([]*models.Trip, error) {
	return s.store.Trips().List(ctx, filters)
}

// GetTrip returns a trip by ID
func (s *Service) GetTrip(ctx context.Context, id int64) (*models.Trip, error) {
	return s.tripByID(ctx, s.store, id)
}

// GetTripBySlug returns a trip by its slug
func (s *Service) GetTripBySlug(ctx context.Context, slug string) (*models.Trip, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	trip, err := s.store.Trips().GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, apperr.NotFound("trip %q not found", slug)
	}
	return trip, nil
}

// TripOverview returns a trip by slug together with its days in display order
func (s *Service) TripOverview(ctx context.Context, slug string) (*models.Trip, []*models.DayEntry, error) {
	trip, err := s.GetTripBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}
	days, err := s.store.Days().ListByTrip(ctx, trip.ID)
	if err != nil {
		return nil, nil, err
	}
	return trip, days, nil
}

func (s *Service) tripByID(ctx context.Context, store repository.Store, id int64) (*models.Trip, error) {
	trip, err := store.Trips().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, apperr.NotFound("trip with ID %d not found", id)
	}
	return trip, nil
}

// checkOrder rejects negative and repeated order indexes
func checkOrder(updates []models.OrderUpdate) error {
	if len(updates) == 0 {
		return apperr.Validation("order", "at least one order update is required")
	}
	seen := make(map[int]bool, len(updates))
	for _, u := range updates {
		if u.OrderIndex < 0 {
			return apperr.Validation("order", "order index %d is negative", u.OrderIndex)
		}
		if seen[u.OrderIndex] {
			return apperr.Validation("order", "order index %d is used twice", u.OrderIndex)
		}
		seen[u.OrderIndex] = true
	}
	return nil
}
