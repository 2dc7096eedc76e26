package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/apperr"
	"github.com/Kerhoff/TripGuide/internal/models"
	"github.com/Kerhoff/TripGuide/internal/repository"
	"github.com/Kerhoff/TripGuide/internal/service"
	"github.com/Kerhoff/TripGuide/internal/telegram"
)

const tripListLimit = 10

var statusByName = map[string]int64{
	"draft":     models.TripStatusDraft,
	"upcoming":  models.TripStatusUpcoming,
	"current":   models.TripStatusCurrent,
	"past":      models.TripStatusPast,
	"published": models.TripStatusPublished,
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func reply(bot telegram.Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// TripsHandler – /trips [status]
// ---------------------------------------------------------------------------

// TripsHandler lists the latest trips
type TripsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewTripsHandler creates a new TripsHandler.
func NewTripsHandler(svc *service.Service, logger *logrus.Logger) *TripsHandler {
	return &TripsHandler{svc: svc, logger: logger}
}

// Handle processes the /trips command.
func (h *TripsHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	filters := repository.TripFilters{Limit: tripListLimit}
	if len(args) > 0 {
		status, ok := statusByName[strings.ToLower(args[0])]
		if !ok {
			return reply(bot, message.Chat.ID, "❌ Unknown status. Use one of: draft, upcoming, current, past, published.")
		}
		filters.StatusID = &status
	}

	trips, err := h.svc.ListTrips(ctx, filters)
	if err != nil {
		return fmt.Errorf("list trips: %w", err)
	}
	if len(trips) == 0 {
		return reply(bot, message.Chat.ID, "📭 No trips yet.")
	}

	var sb strings.Builder
	sb.WriteString("🧳 *Trips*\n\n")
	for _, t := range trips {
		fmt.Fprintf(&sb, "• *%s* (%s to %s, %s)\n  `%s`\n",
			escape(t.Name), t.StartDate, t.EndDate, models.TripStatusName(t.StatusID), t.Slug)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"count":   len(trips),
	}).Debug("Listed trips")
	return reply(bot, message.Chat.ID, sb.String())
}

// ---------------------------------------------------------------------------
// TripHandler – /trip <slug>
// ---------------------------------------------------------------------------

// TripHandler shows one trip with its day labels in display order
type TripHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(svc *service.Service, logger *logrus.Logger) *TripHandler {
	return &TripHandler{svc: svc, logger: logger}
}

// Handle processes the /trip command.
func (h *TripHandler) Handle(ctx context.Context, bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return reply(bot, message.Chat.ID, "❌ Please provide a trip slug.\nUsage: `/trip maui-escape`")
	}

	trip, days, err := h.svc.TripOverview(ctx, args[0])
	if apperr.Is(err, apperr.KindNotFound) {
		return reply(bot, message.Chat.ID, "🔍 No trip with that slug.")
	}
	if err != nil {
		return fmt.Errorf("trip overview: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧳 *%s*\n%s to %s, %s\n\n", escape(trip.Name), trip.StartDate, trip.EndDate, models.TripStatusName(trip.StatusID))
	for _, d := range days {
		line := d.Description
		if d.LocationName != "" {
			line = d.LocationName
		}
		fmt.Fprintf(&sb, "*%s* %s", d.Label(), d.Date)
		if line != "" {
			fmt.Fprintf(&sb, " %s", escape(firstLine(line)))
		}
		sb.WriteString("\n")
	}

	return reply(bot, message.Chat.ID, sb.String())
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
