package notifications

import (
	"busbook/pkg/logger"
	"context"
)

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// LogMailer records outgoing mail in the log instead of delivering it.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.log.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
		"bytes", len(email.HTML),
	)
	return nil
}
