package daygen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
)

func TestApplyDetailsFollowsKind(t *testing.T) {
	schedule := &models.DayEntry{Kind: models.EntrySchedule}
	err := ApplyDetails(schedule, Details{Description: "Luau", LocationName: "Lahaina"})
	assert.Equal(t, "location_name", apperr.FieldOf(err))
	assert.Empty(t, schedule.Description)

	assert.NoError(t, ApplyDetails(schedule, Details{Description: "Luau", ImageURL: "https://cdn.example.com/luau.jpg"}))
	assert.Equal(t, "https://cdn.example.com/luau.jpg", schedule.ImageURL)

	itinerary := &models.DayEntry{Kind: models.EntryItinerary}
	err = ApplyDetails(itinerary, Details{LocationName: "Ibiza", AllAboardTime: "1:30 AM"})
	assert.Equal(t, "all_aboard_time", apperr.FieldOf(err))
	assert.Empty(t, itinerary.LocationName)

	err = ApplyDetails(itinerary, Details{ImageURL: "https://cdn.example.com/ibiza.jpg"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.NoError(t, ApplyDetails(itinerary, Details{LocationName: " Ibiza ", ArrivalTime: "09:00", AllAboardTime: "01:30"}))
	assert.Equal(t, "Ibiza", itinerary.LocationName)
	assert.Equal(t, Details{LocationName: "Ibiza", ArrivalTime: "09:00", AllAboardTime: "01:30"}, DetailsOf(itinerary))
}
