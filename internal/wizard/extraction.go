package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/extract"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/reconcile"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

// maxExtractedImages bounds the hero candidates tried per extraction
const maxExtractedImages = 5

// Extract runs the extraction service on a URL or document and pre-fills
// the draft with what it returns. Only available on the first page.
func (o *Orchestrator) Extract(ctx context.Context, id string, src extract.Source) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepChooseMethod); err != nil {
			return err
		}
		if o.extractor == nil {
			return apperr.Validation("source", "the extraction service is not configured")
		}

		method := MethodPDF
		label := src.Filename
		if src.URL != "" {
			method, label = MethodURL, src.URL
		}

		res, err := o.extractor.Extract(ctx, src)
		if err != nil {
			return err
		}
		s.method = method
		s.say("user", "Extract trip details from "+label, o.now())
		o.applyExtraction(ctx, s, res)
		return nil
	})
}

// applyExtraction copies the values of res that pass the same checks as
// manual input into the draft. Rejected values are reported in the chat.
func (o *Orchestrator) applyExtraction(ctx context.Context, s *Session, res *extract.Result) {
	var notes []string
	note := func(format string, args ...any) {
		notes = append(notes, fmt.Sprintf(format, args...))
	}

	if name := strings.TrimSpace(res.Name); name != "" {
		s.trip.Name = name
	}
	if res.Description != "" {
		s.trip.Description = res.Description
	}

	start, startErr := parseOptionalDate(res.StartDate)
	if startErr != nil {
		note("Ignored the start date: %v", startErr)
	}
	end, endErr := parseOptionalDate(res.EndDate)
	if endErr != nil {
		note("Ignored the end date: %v", endErr)
	}
	if !start.IsZero() && !end.IsZero() {
		if err := daygen.ValidateRange(start, end); err != nil {
			note("Ignored the dates: %v", err)
			start, end = models.Date{}, models.Date{}
		}
	}
	s.trip.StartDate, s.trip.EndDate = start, end

	pt := models.PropertyUnset
	if res.PropertyType != "" {
		parsed, err := models.ParsePropertyType(res.PropertyType)
		if err != nil {
			note("Ignored the property type: %v", err)
		} else {
			pt = parsed
		}
	}
	if pt == models.PropertyUnset {
		switch {
		case res.Ship != nil && res.Resort == nil:
			pt = models.PropertyCruise
		case res.Resort != nil && res.Ship == nil:
			pt = models.PropertyResort
		}
	}
	if pt != models.PropertyUnset {
		s.branch, _ = newBranch(pt)
	}

	var propertyImage string
	switch b := s.branch.(type) {
	case *ResortBranch:
		if r := res.Resort; r != nil {
			b.Resort.Name = strings.TrimSpace(r.Name)
			b.Resort.Location = r.Location
			b.Resort.Description = r.Description
			b.Resort.Capacity = keepCount(r.Capacity, "resort capacity", note)
			b.Resort.RoomCount = keepCount(r.RoomCount, "room count", note)
			b.Resort.CheckInTime = keepClock(r.CheckInTime, "check-in time", note)
			b.Resort.CheckOutTime = keepClock(r.CheckOutTime, "check-out time", note)
			propertyImage = r.ImageURL
		}
	case *CruiseBranch:
		if sh := res.Ship; sh != nil {
			b.Ship.Name = strings.TrimSpace(sh.Name)
			b.Ship.CruiseLine = sh.CruiseLine
			b.Ship.Description = sh.Description
			b.Ship.Capacity = keepCount(sh.Capacity, "ship capacity", note)
			b.Ship.Decks = keepCount(sh.Decks, "deck count", note)
			propertyImage = sh.ImageURL
		}
	}

	if s.branch != nil {
		d := s.branch.draft()
		d.Venues = nil
		for _, v := range res.Venues {
			if strings.TrimSpace(v.Name) == "" || strings.TrimSpace(v.Type) == "" {
				note("Skipped a venue without a name or type")
				continue
			}
			d.Venues = append(d.Venues, reconcile.VenueInput{
				Name:          strings.TrimSpace(v.Name),
				VenueTypeName: strings.TrimSpace(v.Type),
				Description:   v.Description,
			})
		}
		d.Amenities = reconcile.NormalizeNames(append(d.Amenities, res.Amenities...))
	} else if len(res.Venues) > 0 || len(res.Amenities) > 0 {
		note("Ignored venues and amenities because the property type is unknown")
	}

	if !start.IsZero() && !end.IsZero() {
		if err := o.regenerateDays(s, nil); err != nil {
			note("Could not build the day list: %v", err)
		} else {
			o.applyExtractedDays(s, res.Days, note)
		}
	} else {
		s.days = nil
		if len(res.Days) > 0 {
			note("Ignored %d days because the trip dates are unknown", len(res.Days))
		}
	}

	o.ingestExtractedImages(ctx, s, res.ImageURLs, propertyImage, note)

	if res.Message != "" {
		s.say("assistant", res.Message, o.now())
	}
	for _, n := range notes {
		s.say("system", n, o.now())
	}

	logger.WithSession(o.logger, s.ID).WithFields(logrus.Fields{
		"property_type": s.propertyType(),
		"days":          len(s.days),
		"notes":         len(notes),
	}).Info("Extraction applied")
}

func (o *Orchestrator) applyExtractedDays(s *Session, days []extract.Day, note func(string, ...any)) {
	for _, d := range days {
		date, err := models.ParseDate(d.Date)
		if err != nil {
			note("Skipped a day: %v", err)
			continue
		}

		e := findDay(s.days, date)
		if e == nil {
			updated, added, err := daygen.AddDay(s.trip.StartDate, s.trip.EndDate, s.entryKind(), s.days, date)
			if err != nil {
				note("Skipped day %s: %v", date, err)
				continue
			}
			s.days, e = updated, added
		}

		in := daygen.Details{Description: d.Description}
		if e.Kind == models.EntryItinerary {
			in.LocationName = d.Location
			in.ArrivalTime = keepClock(d.Arrival, "arrival time on "+date.String(), note)
			in.DepartureTime = keepClock(d.Departure, "departure time on "+date.String(), note)
			in.AllAboardTime = keepClock(d.AllAboard, "all aboard time on "+date.String(), note)
		}
		if err := daygen.ApplyDetails(e, in); err != nil {
			note("Skipped day %s: %v", date, err)
		}
	}
}

func (o *Orchestrator) ingestExtractedImages(ctx context.Context, s *Session, urls []string, propertyImage string, note func(string, ...any)) {
	if propertyImage != "" && s.branch != nil {
		set, _ := s.imageSetter(ImageTarget{Slot: SlotProperty})
		if asset, err := o.pipeline.IngestURL(ctx, s.temps, propertyImage); err != nil {
			note("Could not import the property image: %v", err)
		} else {
			o.attach(s, ImageTarget{Slot: SlotProperty}, asset, set)
		}
	}

	// the first image that imports becomes the hero
	for i, url := range urls {
		if s.trip.HeroImageURL != "" || i == maxExtractedImages {
			break
		}
		asset, err := o.pipeline.IngestURL(ctx, s.temps, url)
		if err != nil {
			note("Could not import image %s: %v", url, err)
			continue
		}
		o.attach(s, ImageTarget{Slot: SlotHero}, asset, func(u string) { s.trip.HeroImageURL = u })
	}
}

func parseOptionalDate(v string) (models.Date, error) {
	if strings.TrimSpace(v) == "" {
		return models.Date{}, nil
	}
	return models.ParseDate(v)
}

func keepCount(n int, what string, note func(string, ...any)) int {
	if n < 0 {
		note("Ignored a negative %s", what)
		return 0
	}
	return n
}

func keepClock(v, what string, note func(string, ...any)) string {
	v = strings.TrimSpace(v)
	if err := daygen.CheckClock(what, v); err != nil {
		note("Ignored the %s %q", what, v)
		return ""
	}
	return v
}
