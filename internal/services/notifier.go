package services

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/models"
)

// Notifier delivers a triggered alert to the user's channel.
type Notifier interface {
	NotifyAlert(ctx context.Context, alert models.PriceAlert, offer models.FlightOffer) error
}

// TelegramNotifier posts alert notifications to a Telegram chat.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	logger *logrus.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *logrus.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chatID: chatID, logger: logger}, nil
}

func (n *TelegramNotifier) NotifyAlert(ctx context.Context, alert models.PriceAlert, offer models.FlightOffer) error {
	text := fmt.Sprintf(
		"Price alert for %s → %s\nCurrent fare: %s %s (target %s)\nAirline: %s, departure %s",
		alert.Origin, alert.Destination,
		offer.Price.StringFixed(2), offer.Currency, alert.TargetPrice.StringFixed(2),
		offer.Airline, alert.DepartureDate,
	)
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	n.logger.WithFields(logrus.Fields{
		"alert": alert.ID,
		"route": alert.Origin + "-" + alert.Destination,
	}).Info("Alert notification sent")
	return nil
}
