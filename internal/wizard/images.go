package wizard

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/media"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

// ImageSlot names the draft field an image is attached to
type ImageSlot string

const (
	SlotHero        ImageSlot = "hero"
	SlotProperty    ImageSlot = "property"
	SlotPropertyMap ImageSlot = "property-map"
	SlotDeckPlans   ImageSlot = "deck-plans"
	SlotDay         ImageSlot = "day"
)

// ImageTarget is where an ingested image goes. Date selects the day for
// SlotDay.
type ImageTarget struct {
	Slot ImageSlot   `json:"slot"`
	Date models.Date `json:"date"`
}

// AttachImageURL downloads an image into durable storage and sets it on
// the target field
func (o *Orchestrator) AttachImageURL(ctx context.Context, id string, target ImageTarget, rawURL string) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		set, err := s.imageSetter(target)
		if err != nil {
			return err
		}
		asset, err := o.pipeline.IngestURL(ctx, s.temps, rawURL)
		if err != nil {
			return err
		}
		o.attach(s, target, asset, set)
		return nil
	})
}

// AttachImageUpload stores an uploaded image and sets it on the target field
func (o *Orchestrator) AttachImageUpload(ctx context.Context, id string, target ImageTarget, up media.Upload) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		set, err := s.imageSetter(target)
		if err != nil {
			return err
		}
		asset, err := o.pipeline.IngestUpload(ctx, s.temps, up)
		if err != nil {
			return err
		}
		o.attach(s, target, asset, set)
		return nil
	})
}

func (o *Orchestrator) attach(s *Session, target ImageTarget, asset *media.Asset, set func(string)) {
	s.uploaded = append(s.uploaded, asset.URL)
	set(asset.URL)

	logger.WithSession(o.logger, s.ID).WithFields(logrus.Fields{
		"slot": target.Slot,
		"url":  asset.URL,
		"size": asset.Size,
	}).Info("Image attached")
}

// imageSetter resolves target before anything is downloaded, so an image
// is never stored for a field that does not exist
func (s *Session) imageSetter(target ImageTarget) (func(string), error) {
	if s.step == StepCommitted {
		return nil, apperr.Invariant("session is already committed")
	}

	switch target.Slot {
	case SlotHero:
		return func(url string) { s.trip.HeroImageURL = url }, nil
	case SlotDay:
		e := findDay(s.days, target.Date)
		if e == nil {
			return nil, apperr.NotFound("no entry for %s", target.Date)
		}
		if e.Kind != models.EntrySchedule {
			return nil, apperr.Validation("slot", "cruise itinerary days have no image")
		}
		return func(url string) { e.ImageURL = url }, nil
	}

	switch b := s.branch.(type) {
	case *ResortBranch:
		switch target.Slot {
		case SlotProperty:
			return func(url string) { b.Resort.ImageURL = url }, nil
		case SlotPropertyMap:
			return func(url string) { b.Resort.PropertyMapURL = url }, nil
		}
	case *CruiseBranch:
		switch target.Slot {
		case SlotProperty:
			return func(url string) { b.Ship.ImageURL = url }, nil
		case SlotDeckPlans:
			return func(url string) { b.Ship.DeckPlansURL = url }, nil
		}
	case nil:
		return nil, apperr.Validation("property_type", "choose a resort or a cruise before adding property images")
	}
	return nil, apperr.Validation("slot", "image slot %q does not apply to a %s trip", target.Slot, s.propertyType())
}
