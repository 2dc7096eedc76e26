package daygen

import (
	"strings"
	"time"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
)

// Details is the editable content of a day entry. The port fields only
// apply to itinerary entries.
type Details struct {
	Description   string `json:"description"`
	ImageURL      string `json:"image_url,omitempty"`
	LocationName  string `json:"location_name,omitempty"`
	ArrivalTime   string `json:"arrival_time,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	AllAboardTime string `json:"all_aboard_time,omitempty"`
}

// ApplyDetails validates d against the entry kind and copies it into e.
// e is left untouched when d is rejected.
func ApplyDetails(e *models.DayEntry, d Details) error {
	if e.Kind == models.EntrySchedule {
		if d.LocationName != "" || d.ArrivalTime != "" || d.DepartureTime != "" || d.AllAboardTime != "" {
			return apperr.Validation("location_name", "resort schedule days have no port details")
		}
		e.Description = d.Description
		e.ImageURL = d.ImageURL
		return nil
	}

	if d.ImageURL != "" {
		return apperr.Validation("image_url", "cruise itinerary days have no image")
	}
	if err := CheckClock("arrival_time", d.ArrivalTime); err != nil {
		return err
	}
	if err := CheckClock("departure_time", d.DepartureTime); err != nil {
		return err
	}
	if err := CheckClock("all_aboard_time", d.AllAboardTime); err != nil {
		return err
	}
	e.Description = d.Description
	e.LocationName = strings.TrimSpace(d.LocationName)
	e.ArrivalTime = d.ArrivalTime
	e.DepartureTime = d.DepartureTime
	e.AllAboardTime = d.AllAboardTime
	return nil
}

// DetailsOf returns the editable content of e
func DetailsOf(e *models.DayEntry) Details {
	return Details{
		Description:   e.Description,
		ImageURL:      e.ImageURL,
		LocationName:  e.LocationName,
		ArrivalTime:   e.ArrivalTime,
		DepartureTime: e.DepartureTime,
		AllAboardTime: e.AllAboardTime,
	}
}

// CheckClock accepts an empty value or a 24h HH:MM time
func CheckClock(field, v string) error {
	if v == "" {
		return nil
	}
	if _, err := time.Parse("15:04", v); err != nil {
		return apperr.Validation(field, "%q is not a HH:MM time", v)
	}
	return nil
}
