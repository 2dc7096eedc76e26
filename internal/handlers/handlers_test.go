package handlers

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/TripGuide/internal/daygen"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository/memstore"
	"github.com/Kerhoff/TripGuide/internal/service"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

type recordingSender struct {
	texts []string
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.texts = append(s.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func newService(t *testing.T) *service.Service {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()

	ship, err := store.Ships().Create(ctx, &models.Ship{Name: "Resilient Lady"})
	require.NoError(t, err)
	start, end := models.MustParseDate("2025-06-01"), models.MustParseDate("2025-06-03")
	trip, err := store.Trips().Create(ctx, &models.Trip{
		Name:      "Greek Isles",
		Slug:      "greek-isles",
		StartDate: start,
		EndDate:   end,
		StatusID:  models.TripStatusUpcoming,
		ShipID:    &ship.ID,
	})
	require.NoError(t, err)

	res, err := daygen.Generate(start, end, models.EntryItinerary, nil)
	require.NoError(t, err)
	res.Entries[1].LocationName = "Mykonos"
	for _, e := range res.Entries {
		e.TripID = trip.ID
		_, err := store.Days().Create(ctx, e)
		require.NoError(t, err)
	}

	return service.New(store, nil, logger.Discard())
}

func TestTripsHandler(t *testing.T) {
	h := NewTripsHandler(newService(t), logger.Discard())
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}
	sender := &recordingSender{}

	require.NoError(t, h.Handle(context.Background(), sender, msg, nil))
	require.NoError(t, h.Handle(context.Background(), sender, msg, []string{"past"}))
	require.NoError(t, h.Handle(context.Background(), sender, msg, []string{"someday"}))

	require.Len(t, sender.texts, 3)
	assert.Contains(t, sender.texts[0], "Greek Isles")
	assert.Contains(t, sender.texts[0], "upcoming")
	assert.Contains(t, sender.texts[1], "No trips yet")
	assert.Contains(t, sender.texts[2], "Unknown status")
}

func TestTripHandler(t *testing.T) {
	h := NewTripHandler(newService(t), logger.Discard())
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}
	sender := &recordingSender{}

	require.NoError(t, h.Handle(context.Background(), sender, msg, []string{"greek-isles"}))
	require.NoError(t, h.Handle(context.Background(), sender, msg, []string{"atlantis"}))
	require.NoError(t, h.Handle(context.Background(), sender, msg, nil))

	require.Len(t, sender.texts, 3)
	assert.Contains(t, sender.texts[0], "*Day 1* 2025-06-01")
	assert.Contains(t, sender.texts[0], "*Day 2* 2025-06-02 Mykonos")
	assert.Contains(t, sender.texts[0], "*Day 3* 2025-06-03")
	assert.Contains(t, sender.texts[1], "No trip with that slug")
	assert.Contains(t, sender.texts[2], "Usage")
}
