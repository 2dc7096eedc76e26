package wizard

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/metrics"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/reconcile"
	"github.com/Kerhoff/TripGuide/internal/repository"
	"github.com/Kerhoff/TripGuide/internal/slug"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

// maxCommitAttempts bounds the retries after a slug unique violation
const maxCommitAttempts = 3

// Commit persists the draft from the Finalize page: the property, its
// venues and amenity links, the trip under a fresh slug and its day entries,
// all in one transaction. On failure the session stays on Finalize with its
// temporary files intact. On success the session is closed.
func (o *Orchestrator) Commit(ctx context.Context, id string) (*models.Trip, error) {
	var trip *models.Trip
	err := o.withSession(id, func(s *Session) error {
		if err := s.expect(StepFinalize); err != nil {
			return err
		}
		if err := validateAll(s); err != nil {
			return err
		}

		log := logger.WithSession(o.logger, s.ID)
		t, err := o.persist(ctx, s)
		if err != nil {
			metrics.Commits.WithLabelValues(apperr.KindOf(err).String()).Inc()
			log.WithError(err).Error("Failed to commit trip")
			return err
		}

		trip = t
		s.step = StepCommitted
		s.closed = true
		o.sessions.remove(s.ID)
		metrics.Commits.WithLabelValues("committed").Inc()

		if err := s.temps.ReleaseAll(); err != nil {
			log.WithError(err).Warn("Some temporary files could not be released")
		}
		o.deleteUnreferenced(ctx, s)

		log.WithFields(logrus.Fields{
			"trip_id": t.ID,
			"slug":    t.Slug,
			"days":    len(s.days),
		}).Info("Trip committed")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if o.notifier != nil {
		if err := o.notifier.TripCommitted(ctx, trip); err != nil {
			o.logger.WithError(err).WithField("trip_id", trip.ID).Warn("Failed to send trip notification")
		}
	}
	return trip, nil
}

// persist allocates a slug and writes the aggregate. A unique violation on
// the slug means another trip took it between allocation and insert, so a
// new slug is allocated and the whole transaction is retried.
func (o *Orchestrator) persist(ctx context.Context, s *Session) (*models.Trip, error) {
	alloc := slug.NewAllocator(o.store.Trips().SlugExists)

	var lastErr error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		candidate, err := alloc.Allocate(ctx, s.trip.Name)
		if err != nil {
			return nil, err
		}

		trip, err := o.persistOnce(ctx, s, candidate)
		if err == nil {
			return trip, nil
		}
		if !apperr.Is(err, apperr.KindConflict) || apperr.FieldOf(err) != "slug" {
			return nil, err
		}

		metrics.SlugConflicts.Inc()
		logger.WithSession(o.logger, s.ID).WithFields(logrus.Fields{
			"slug":    candidate,
			"attempt": attempt,
		}).Warn("Slug taken during commit, allocating again")
		lastErr = err
	}
	return nil, lastErr
}

func (o *Orchestrator) persistOnce(ctx context.Context, s *Session, tripSlug string) (*models.Trip, error) {
	var created *models.Trip

	err := o.store.WithTx(ctx, func(tx repository.Store) error {
		owner, err := persistProperty(ctx, tx, s.branch)
		if err != nil {
			return err
		}

		rec := reconcile.New(tx, o.logger)
		d := s.branch.draft()
		if _, _, err := rec.Venues(ctx, owner, d.Venues); err != nil {
			return err
		}
		if _, _, err := rec.Amenities(ctx, owner, d.Amenities); err != nil {
			return err
		}

		trip := s.trip
		trip.Slug = tripSlug
		trip.ResortID, trip.ShipID = nil, nil
		switch owner.Type {
		case models.PropertyResort:
			trip.ResortID = &owner.ID
		case models.PropertyCruise:
			trip.ShipID = &owner.ID
		}
		if err := trip.ValidateProperty(); err != nil {
			return err
		}

		if created, err = tx.Trips().Create(ctx, &trip); err != nil {
			return err
		}

		for _, e := range daygen.Sorted(s.days) {
			entry := *e
			entry.ID = 0
			entry.TripID = created.ID
			if _, err := tx.Days().Create(ctx, &entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// persistProperty creates the drafted property or updates the selected one
func persistProperty(ctx context.Context, tx repository.Store, b Branch) (models.PropertyRef, error) {
	switch b := b.(type) {
	case *ResortBranch:
		r := b.Resort
		if r.ID == 0 {
			created, err := tx.Resorts().Create(ctx, &r)
			if err != nil {
				return models.PropertyRef{}, err
			}
			return models.RefOf(created), nil
		}
		updated, err := tx.Resorts().Update(ctx, &r)
		if err != nil {
			return models.PropertyRef{}, err
		}
		return models.RefOf(updated), nil

	case *CruiseBranch:
		sh := b.Ship
		if sh.ID == 0 {
			created, err := tx.Ships().Create(ctx, &sh)
			if err != nil {
				return models.PropertyRef{}, err
			}
			return models.RefOf(created), nil
		}
		updated, err := tx.Ships().Update(ctx, &sh)
		if err != nil {
			return models.PropertyRef{}, err
		}
		return models.RefOf(updated), nil

	default:
		return models.PropertyRef{}, apperr.Invariant("no property type chosen")
	}
}

// deleteUnreferenced removes objects uploaded during the session that the
// committed trip does not use, such as a replaced hero image
func (o *Orchestrator) deleteUnreferenced(ctx context.Context, s *Session) {
	used := map[string]bool{s.trip.HeroImageURL: true}
	for _, u := range s.branch.Property().ImageURLs() {
		used[u] = true
	}
	for _, e := range s.days {
		used[e.ImageURL] = true
	}
	for _, u := range s.uploaded {
		if !used[u] {
			o.pipeline.DeleteObject(ctx, u)
		}
	}
}
