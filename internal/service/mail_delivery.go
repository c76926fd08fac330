package service

import (
	"context"
	"net/mail"

	"github.com/rs/zerolog"
)

// LogMailDelivery is used when no mail provider is configured; it only logs.
type LogMailDelivery struct {
	logger zerolog.Logger
}

// NewLogMailDelivery constructs a logging provider.
func NewLogMailDelivery(logger zerolog.Logger) *LogMailDelivery {
	return &LogMailDelivery{logger: logger.With().Str("component", "mail_delivery").Logger()}
}

// Deliver logs the message and returns nil to indicate success.
func (l *LogMailDelivery) Deliver(ctx context.Context, to mail.Address, subject, html, text string) error {
	l.logger.Info().Str("to", maskEmailAddress(to.Address)).Str("subject", subject).Msg("email delivered to log")
	return nil
}
