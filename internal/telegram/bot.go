package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/TripGuide/internal/models"
)

// Sender is the part of the Bot API the bot needs. *tgbotapi.BotAPI
// implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot wraps the Telegram bot API. It answers editor commands and posts trip
// notices to the admin chat.
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      Sender
	adminChatID int64
	logger      *logrus.Logger
	router      *Router
}

// NewBot creates a new Telegram bot instance. adminChatID 0 turns notices off.
func NewBot(token string, adminChatID int64, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	b := newBot(api, adminChatID, logger)
	b.api = api
	return b, nil
}

func newBot(sender Sender, adminChatID int64, logger *logrus.Logger) *Bot {
	return &Bot{
		sender:      sender,
		adminChatID: adminChatID,
		logger:      logger,
		router:      NewRouter(logger),
	}
}

// Start starts the bot with long polling
func (b *Bot) Start(ctx context.Context) error {
	// Delete webhook if exists and use polling
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate processes incoming updates
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Panic in update handler: %v", r)
		}
	}()

	if update.Message != nil {
		b.router.HandleMessage(ctx, b.sender, update.Message)
	}
}

// SendMessage sends a Markdown message to a chat
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := b.sender.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// RegisterCommand registers a command handler on the router
func (b *Bot) RegisterCommand(command string, handler CommandHandler) {
	b.router.RegisterCommand(command, handler)
}

// TripCommitted tells the admin chat that the wizard published a trip
func (b *Bot) TripCommitted(ctx context.Context, trip *models.Trip) error {
	if b.adminChatID == 0 {
		return nil
	}
	return b.SendMessage(b.adminChatID, CommittedNotice(trip))
}

// TripStatusChanged tells the admin chat that a trip moved to a new status.
// Failures are logged; the status change has already happened.
func (b *Bot) TripStatusChanged(ctx context.Context, trip *models.Trip, from int64) {
	if b.adminChatID == 0 {
		return
	}
	if err := b.SendMessage(b.adminChatID, StatusNotice(trip, from)); err != nil {
		b.logger.WithError(err).WithField("trip_id", trip.ID).Warn("Failed to send status notice")
	}
}
