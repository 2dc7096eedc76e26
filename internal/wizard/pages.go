package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/reconcile"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

// BasicInfo is the input of the basic info page
type BasicInfo struct {
	Name        string      `json:"name"`
	StartDate   models.Date `json:"start_date"`
	EndDate     models.Date `json:"end_date"`
	Description string      `json:"description"`
	StatusID    int64       `json:"status_id"`
}

// ResortDetails is the editable part of the resort details page
type ResortDetails struct {
	Name         string `json:"name"`
	Location     string `json:"location"`
	Capacity     int    `json:"capacity"`
	RoomCount    int    `json:"room_count"`
	Description  string `json:"description"`
	CheckInTime  string `json:"check_in_time"`
	CheckOutTime string `json:"check_out_time"`
}

// ShipDetails is the editable part of the ship details page
type ShipDetails struct {
	Name        string `json:"name"`
	CruiseLine  string `json:"cruise_line"`
	Capacity    int    `json:"capacity"`
	Decks       int    `json:"decks"`
	Description string `json:"description"`
}

// SetBasicInfo stores the trip basics. Once both dates are known the day
// entries are regenerated for the new span.
func (o *Orchestrator) SetBasicInfo(ctx context.Context, id string, in BasicInfo) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepBasicInfo); err != nil {
			return err
		}
		datesKnown := !in.StartDate.IsZero() && !in.EndDate.IsZero()
		if datesKnown {
			if err := daygen.ValidateRange(in.StartDate, in.EndDate); err != nil {
				return err
			}
		}

		s.trip.Name = strings.TrimSpace(in.Name)
		s.trip.Description = in.Description
		s.trip.StartDate = in.StartDate
		s.trip.EndDate = in.EndDate
		if in.StatusID != 0 {
			s.trip.StatusID = in.StatusID
		}

		if datesKnown {
			return o.regenerateDays(s, s.days)
		}
		return nil
	})
}

func (o *Orchestrator) regenerateDays(s *Session, existing []*models.DayEntry) error {
	res, err := daygen.Generate(s.trip.StartDate, s.trip.EndDate, s.entryKind(), existing)
	if err != nil {
		return err
	}
	for _, e := range res.Entries {
		clearVariantFields(e)
	}
	s.days = res.Entries

	if len(res.Added) > 0 || len(res.Removed) > 0 {
		logger.WithSession(o.logger, s.ID).WithFields(logrus.Fields{
			"added":   len(res.Added),
			"removed": len(res.Removed),
		}).Debug("Day entries regenerated")
	}
	return nil
}

func clearVariantFields(e *models.DayEntry) {
	if e.Kind == models.EntrySchedule {
		e.LocationName, e.ArrivalTime, e.DepartureTime, e.AllAboardTime = "", "", "", ""
	} else {
		e.ImageURL = ""
	}
}

// SetPropertyType forks the session into the resort or cruise branch.
// Switching an already chosen branch throws its draft away, including the
// day entry contents.
func (o *Orchestrator) SetPropertyType(ctx context.Context, id string, pt models.PropertyType) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepBasicInfo); err != nil {
			return err
		}
		if s.propertyType() == pt {
			return nil
		}
		b, err := newBranch(pt)
		if err != nil {
			return err
		}

		existing := s.days
		if s.branch != nil {
			existing = nil
			logger.WithSession(o.logger, s.ID).WithFields(logrus.Fields{
				"from": s.propertyType(),
				"to":   pt,
			}).Info("Property type changed, branch draft discarded")
		}
		s.branch = b

		if s.trip.StartDate.IsZero() || s.trip.EndDate.IsZero() {
			s.days = nil
			return nil
		}
		return o.regenerateDays(s, existing)
	})
}

// SelectResort makes the draft edit an existing resort, loading its venues
// and amenities. resortID 0 goes back to a new resort.
func (o *Orchestrator) SelectResort(ctx context.Context, id string, resortID int64) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepDetails); err != nil {
			return err
		}
		b, err := branchAs[*ResortBranch](s)
		if err != nil {
			return err
		}
		if resortID == 0 {
			*b = ResortBranch{}
			return nil
		}

		r, err := o.store.Resorts().GetByID(ctx, resortID)
		if err != nil {
			return err
		}
		if r == nil {
			return apperr.NotFound("resort with ID %d not found", resortID)
		}
		draft, err := o.loadBranchDraft(ctx, models.RefOf(r))
		if err != nil {
			return err
		}
		*b = ResortBranch{Resort: *r, branchDraft: *draft}
		return nil
	})
}

// SelectShip makes the draft edit an existing ship. shipID 0 goes back to a
// new ship.
func (o *Orchestrator) SelectShip(ctx context.Context, id string, shipID int64) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepDetails); err != nil {
			return err
		}
		b, err := branchAs[*CruiseBranch](s)
		if err != nil {
			return err
		}
		if shipID == 0 {
			*b = CruiseBranch{}
			return nil
		}

		sh, err := o.store.Ships().GetByID(ctx, shipID)
		if err != nil {
			return err
		}
		if sh == nil {
			return apperr.NotFound("ship with ID %d not found", shipID)
		}
		draft, err := o.loadBranchDraft(ctx, models.RefOf(sh))
		if err != nil {
			return err
		}
		*b = CruiseBranch{Ship: *sh, branchDraft: *draft}
		return nil
	})
}

func (o *Orchestrator) loadBranchDraft(ctx context.Context, owner models.PropertyRef) (*branchDraft, error) {
	venues, err := o.store.Venues().ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	amenities, err := o.store.Amenities().ListForProperty(ctx, owner)
	if err != nil {
		return nil, err
	}

	d := &branchDraft{}
	for _, v := range venues {
		d.Venues = append(d.Venues, reconcile.VenueInput{
			ID:          v.ID,
			Name:        v.Name,
			VenueTypeID: v.VenueTypeID,
			Description: v.Description,
		})
	}
	for _, a := range amenities {
		d.Amenities = append(d.Amenities, a.Name)
	}
	return d, nil
}

// SetResortDetails fills the resort details page
func (o *Orchestrator) SetResortDetails(ctx context.Context, id string, in ResortDetails) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepDetails); err != nil {
			return err
		}
		b, err := branchAs[*ResortBranch](s)
		if err != nil {
			return err
		}
		if err := checkCount("resort.capacity", in.Capacity); err != nil {
			return err
		}
		if err := checkCount("resort.room_count", in.RoomCount); err != nil {
			return err
		}
		if err := daygen.CheckClock("resort.check_in_time", in.CheckInTime); err != nil {
			return err
		}
		if err := daygen.CheckClock("resort.check_out_time", in.CheckOutTime); err != nil {
			return err
		}

		r := &b.Resort
		r.Name = strings.TrimSpace(in.Name)
		r.Location = in.Location
		r.Capacity = in.Capacity
		r.RoomCount = in.RoomCount
		r.Description = in.Description
		r.CheckInTime = in.CheckInTime
		r.CheckOutTime = in.CheckOutTime
		return nil
	})
}

// SetShipDetails fills the ship details page
func (o *Orchestrator) SetShipDetails(ctx context.Context, id string, in ShipDetails) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepDetails); err != nil {
			return err
		}
		b, err := branchAs[*CruiseBranch](s)
		if err != nil {
			return err
		}
		if err := checkCount("ship.capacity", in.Capacity); err != nil {
			return err
		}
		if err := checkCount("ship.decks", in.Decks); err != nil {
			return err
		}

		sh := &b.Ship
		sh.Name = strings.TrimSpace(in.Name)
		sh.CruiseLine = in.CruiseLine
		sh.Capacity = in.Capacity
		sh.Decks = in.Decks
		sh.Description = in.Description
		return nil
	})
}

// SetVenues replaces the venue selection of the branch
func (o *Orchestrator) SetVenues(ctx context.Context, id string, venues []reconcile.VenueInput) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepVenuesAmenities); err != nil {
			return err
		}
		if err := validateVenues(venues); err != nil {
			return err
		}
		s.branch.draft().Venues = append([]reconcile.VenueInput(nil), venues...)
		return nil
	})
}

// SetAmenities replaces the amenity selection of the branch
func (o *Orchestrator) SetAmenities(ctx context.Context, id string, names []string) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepVenuesAmenities); err != nil {
			return err
		}
		s.branch.draft().Amenities = reconcile.NormalizeNames(names)
		return nil
	})
}

func validateVenues(venues []reconcile.VenueInput) error {
	for i, v := range venues {
		if strings.TrimSpace(v.Name) == "" {
			return apperr.Validation(fmt.Sprintf("venues[%d].name", i), "venue name is required")
		}
		if v.VenueTypeID == 0 && strings.TrimSpace(v.VenueTypeName) == "" {
			return apperr.Validation(fmt.Sprintf("venues[%d].venue_type", i), "venue type is required")
		}
	}
	return nil
}

// AddDay adds a pre- or post-trip day
func (o *Orchestrator) AddDay(ctx context.Context, id string, date models.Date) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepDays); err != nil {
			return err
		}
		days, _, err := daygen.AddDay(s.trip.StartDate, s.trip.EndDate, s.entryKind(), s.days, date)
		if err != nil {
			return err
		}
		s.days = days
		return nil
	})
}

// RemoveDay removes a pre- or post-trip day
func (o *Orchestrator) RemoveDay(ctx context.Context, id string, date models.Date) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepDays); err != nil {
			return err
		}
		days, _, err := daygen.RemoveDay(s.days, date)
		if err != nil {
			return err
		}
		s.days = days
		return nil
	})
}

// UpdateDay edits the text of the entry on date
func (o *Orchestrator) UpdateDay(ctx context.Context, id string, date models.Date, in daygen.Details) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepDays); err != nil {
			return err
		}
		e := findDay(s.days, date)
		if e == nil {
			return apperr.NotFound("no entry for %s", date)
		}
		// day images go through the image slots
		in.ImageURL = e.ImageURL
		return daygen.ApplyDetails(e, in)
	})
}

// ReorderDays sets the display order of the entries
func (o *Orchestrator) ReorderDays(ctx context.Context, id string, dates []models.Date) (*View, error) {
	return o.mutate(id, func(s *Session) error {
		if err := s.expect(StepDays); err != nil {
			return err
		}
		days, err := daygen.Reorder(daygen.Sorted(s.days), dates)
		if err != nil {
			return err
		}
		s.days = days
		return nil
	})
}

func findDay(days []*models.DayEntry, date models.Date) *models.DayEntry {
	for _, e := range days {
		if e.Date.Equal(date) {
			return e
		}
	}
	return nil
}

func checkCount(field string, n int) error {
	if n < 0 {
		return apperr.Validation(field, "must not be negative")
	}
	return nil
}
