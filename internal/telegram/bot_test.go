package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/pkg/logger"
)

type recordingSender struct {
	sent []tgbotapi.MessageConfig
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

type failingHandler struct{ calls [][]string }

func (h *failingHandler) Handle(ctx context.Context, bot Sender, message *tgbotapi.Message, args []string) error {
	h.calls = append(h.calls, args)
	return errors.New("boom")
}

func command(text string) *tgbotapi.Message {
	name := text
	for i, r := range text {
		if r == ' ' {
			name = text[:i]
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: 42},
		From:      &tgbotapi.User{ID: 7, UserName: "editor"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func TestRouterDispatch(t *testing.T) {
	r := NewRouter(logger.Discard())
	h := &failingHandler{}
	r.RegisterCommand("trip", h)
	sender := &recordingSender{}

	r.HandleMessage(context.Background(), sender, command("/trip maui-escape"))
	require.Len(t, h.calls, 1)
	assert.Equal(t, []string{"maui-escape"}, h.calls[0])
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "An error occurred")

	r.HandleMessage(context.Background(), sender, command("/nope"))
	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[1].Text, "Unknown command")

	r.HandleMessage(context.Background(), sender, &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}, Text: "hello"})
	assert.Len(t, sender.sent, 2)
}

func TestTripNotices(t *testing.T) {
	shipID := int64(3)
	trip := &models.Trip{
		ID:        9,
		Name:      "Med_Cruise",
		Slug:      "med-cruise",
		StartDate: models.MustParseDate("2025-06-01"),
		EndDate:   models.MustParseDate("2025-06-07"),
		StatusID:  models.TripStatusCurrent,
		ShipID:    &shipID,
	}

	silent := &recordingSender{}
	require.NoError(t, newBot(silent, 0, logger.Discard()).TripCommitted(context.Background(), trip))
	assert.Empty(t, silent.sent)

	sender := &recordingSender{}
	b := newBot(sender, 1001, logger.Discard())
	require.NoError(t, b.TripCommitted(context.Background(), trip))
	b.TripStatusChanged(context.Background(), trip, models.TripStatusUpcoming)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(1001), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, `Cruise: Med\_Cruise`)
	assert.Contains(t, sender.sent[0].Text, "2025-06-01 to 2025-06-07 (7 days)")
	assert.Contains(t, sender.sent[1].Text, "is now current (was upcoming)")
}
