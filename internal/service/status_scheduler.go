package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/metrics"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
)

// StatusCallback is told about every trip whose status moved
type StatusCallback func(ctx context.Context, trip *models.Trip, from int64)

// StartStatusScheduler moves upcoming trips to current and current trips to
// past as their dates pass, checking every interval. It blocks until the
// context is cancelled, so it should be launched in a separate goroutine.
func (s *Service) StartStatusScheduler(ctx context.Context, interval time.Duration, callback StatusCallback) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Trip status scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Trip status scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.AdvanceTripStatuses(ctx, models.DateOf(time.Now()), callback); err != nil {
				s.logger.WithError(err).Error("Failed to advance trip statuses")
			}
		}
	}
}

// AdvanceTripStatuses applies the date-driven status transitions for today
// and returns the number of trips that moved. Draft and published trips are
// left alone.
func (s *Service) AdvanceTripStatuses(ctx context.Context, today models.Date, callback StatusCallback) (int, error) {
	moved := 0
	for _, from := range []int64{models.TripStatusUpcoming, models.TripStatusCurrent} {
		status := from
		trips, err := s.store.Trips().List(ctx, repository.TripFilters{StatusID: &status})
		if err != nil {
			return moved, err
		}

		for _, trip := range trips {
			next := nextStatus(trip, today)
			if next == trip.StatusID {
				continue
			}
			trip.StatusID = next
			if _, err := s.store.Trips().Update(ctx, trip); err != nil {
				s.logger.WithError(err).WithField("trip_id", trip.ID).Error("Failed to update trip status")
				continue
			}
			moved++
			metrics.TripStatusChanges.WithLabelValues(models.TripStatusName(next)).Inc()

			s.logger.WithFields(logrus.Fields{
				"trip_id": trip.ID,
				"from":    from,
				"to":      next,
			}).Info("Trip status advanced")
			if callback != nil {
				callback(ctx, trip, from)
			}
		}
	}
	return moved, nil
}

func nextStatus(trip *models.Trip, today models.Date) int64 {
	switch {
	case trip.EndDate.Before(today):
		return models.TripStatusPast
	case !trip.StartDate.After(today):
		return models.TripStatusCurrent
	default:
		return trip.StatusID
	}
}
