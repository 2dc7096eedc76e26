package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Kerhoff/TripGuide/internal/models"
)

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// CommittedNotice is the admin chat message for a newly published trip
func CommittedNotice(trip *models.Trip) string {
	kind := "Resort stay"
	if trip.PropertyType() == models.PropertyCruise {
		kind = "Cruise"
	}
	return fmt.Sprintf("📌 *New trip created*\n%s: %s\n%s to %s (%d days)\nSlug: `%s`",
		kind, escape(trip.Name), trip.StartDate, trip.EndDate, trip.Days(), trip.Slug)
}

// StatusNotice is the admin chat message for a status transition
func StatusNotice(trip *models.Trip, from int64) string {
	return fmt.Sprintf("🗓 *%s* is now %s (was %s)",
		escape(trip.Name), models.TripStatusName(trip.StatusID), models.TripStatusName(from))
}
