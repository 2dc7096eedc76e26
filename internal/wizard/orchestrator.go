// Package wizard drives trip creation: an editor walks a session through
// the wizard pages, and commit turns the draft into a persisted trip with
// its property, venues, amenity links and day entries.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/extract"
	"github.com/Kerhoff/TripGuide/internal/media"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

// TripNotifier is told about every committed trip. Failures are logged.
type TripNotifier interface {
	TripCommitted(ctx context.Context, trip *models.Trip) error
}

// Orchestrator runs the wizard state machine over a SessionStore
type Orchestrator struct {
	store     repository.Store
	sessions  *SessionStore
	pipeline  *media.Pipeline
	extractor extract.Extractor
	notifier  TripNotifier
	logger    *logrus.Logger
	now       func() time.Time
}

// New creates an orchestrator. extractor may be nil when no extraction
// service is configured.
func New(store repository.Store, pipeline *media.Pipeline, extractor extract.Extractor, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		sessions:  NewSessionStore(),
		pipeline:  pipeline,
		extractor: extractor,
		logger:    logger,
		now:       time.Now,
	}
}

// SetNotifier registers the receiver of commit notifications
func (o *Orchestrator) SetNotifier(n TripNotifier) {
	o.notifier = n
}

// Sessions exposes the session store
func (o *Orchestrator) Sessions() *SessionStore {
	return o.sessions
}

// Start opens a new session on the ChooseMethod page
func (o *Orchestrator) Start(ctx context.Context) (*View, error) {
	now := o.now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		step:      StepChooseMethod,
		trip:      models.Trip{StatusID: models.TripStatusDraft},
		temps:     media.NewTempRegistry(o.logger),
	}
	s.touch(now)
	o.sessions.add(s)

	logger.WithSession(o.logger, s.ID).Info("Wizard session started")
	return s.view(), nil
}

// Get returns a snapshot of a session
func (o *Orchestrator) Get(ctx context.Context, id string) (*View, error) {
	var v *View
	err := o.withSession(id, func(s *Session) error {
		v = s.view()
		return nil
	})
	return v, err
}

// withSession runs fn with the session locked and returns its view on
// success. A session that was committed or abandoned is not found.
func (o *Orchestrator) withSession(id string, fn func(s *Session) error) error {
	s := o.sessions.get(id)
	if s == nil {
		return apperr.NotFound("wizard session %s not found", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperr.NotFound("wizard session %s not found", id)
	}
	s.touch(o.now())
	return fn(s)
}

func (o *Orchestrator) mutate(id string, fn func(s *Session) error) (*View, error) {
	var v *View
	err := o.withSession(id, func(s *Session) error {
		if err := fn(s); err != nil {
			return err
		}
		v = s.view()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ChooseMethod records how the draft will be seeded
func (o *Orchestrator) ChooseMethod(ctx context.Context, id string, method BuildMethod) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepChooseMethod); err != nil {
			return err
		}
		m, err := ParseBuildMethod(string(method))
		if err != nil {
			return err
		}
		s.method = m
		return nil
	})
}

// Advance validates the current page and moves one page forward
func (o *Orchestrator) Advance(ctx context.Context, id string) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		switch s.step {
		case StepFinalize:
			return apperr.Invariant("finalize is the last page; commit the trip instead")
		case StepCommitted:
			return apperr.Invariant("session is already committed")
		}
		if err := validatePage(s, s.step); err != nil {
			return err
		}
		s.step++
		logger.WithSession(o.logger, s.ID).WithField("page", s.CurrentPage()).Debug("Wizard advanced")
		return nil
	})
}

// Back moves one page backwards
func (o *Orchestrator) Back(ctx context.Context, id string) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		switch s.step {
		case StepChooseMethod:
			return apperr.Invariant("already on the first page")
		case StepCommitted:
			return apperr.Invariant("session is already committed")
		}
		s.step--
		return nil
	})
}

// validatePage checks the required fields of one page
func validatePage(s *Session, step Step) error {
	switch step {
	case StepChooseMethod:
		if s.method == "" {
			return apperr.Validation("method", "choose how to build the trip")
		}
	case StepBasicInfo:
		if strings.TrimSpace(s.trip.Name) == "" {
			return apperr.Validation("name", "trip name is required")
		}
		if err := daygen.ValidateRange(s.trip.StartDate, s.trip.EndDate); err != nil {
			return err
		}
		if s.branch == nil {
			return apperr.Validation("property_type", "choose a resort or a cruise")
		}
	case StepDetails:
		if strings.TrimSpace(s.branch.Property().DisplayName()) == "" {
			field := "resort.name"
			if s.propertyType() == models.PropertyCruise {
				field = "ship.name"
			}
			return apperr.Validation(field, "property name is required")
		}
	case StepVenuesAmenities:
		return validateVenues(s.branch.draft().Venues)
	case StepDays:
		if len(s.days) < s.trip.Days() {
			return apperr.Validation("days", "the trip has %d days but only %d entries", s.trip.Days(), len(s.days))
		}
		for _, e := range s.days {
			if e.Kind != s.entryKind() {
				return apperr.Invariant("day %s is a %s entry on a %s trip", e.Date, e.Kind, s.propertyType())
			}
		}
	}
	return nil
}

// validateAll re-checks every page before commit
func validateAll(s *Session) error {
	for step := StepChooseMethod; step < StepFinalize; step++ {
		if err := validatePage(s, step); err != nil {
			return fmt.Errorf("page %d: %w", step, err)
		}
	}
	return nil
}

// Abandon discards a session from any page. Every temporary file is
// released and every object uploaded during the session is deleted; single
// failures are logged and do not stop the rest. Abandoning an unknown or
// finished session does nothing.
func (o *Orchestrator) Abandon(ctx context.Context, id string) error {
	s := o.sessions.get(id)
	if s == nil {
		return nil
	}
	o.abandon(ctx, s, time.Time{})
	return nil
}

// abandon closes s. With a non-zero cutoff the session is only abandoned if
// it is still idle once locked.
func (o *Orchestrator) abandon(ctx context.Context, s *Session, cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if !cutoff.IsZero() && !s.LastActivity().Before(cutoff) {
		return false
	}
	s.closed = true
	o.sessions.remove(s.ID)

	log := logger.WithSession(o.logger, s.ID)
	if err := s.temps.ReleaseAll(); err != nil {
		log.WithError(err).Warn("Some temporary files could not be released")
	}
	for _, url := range s.uploaded {
		o.pipeline.DeleteObject(ctx, url)
	}

	log.WithFields(logrus.Fields{
		"page":     s.CurrentPage(),
		"uploaded": len(s.uploaded),
	}).Info("Wizard session abandoned")
	return true
}
