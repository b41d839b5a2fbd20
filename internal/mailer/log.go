package mailer

import (
	"context"

	"lost_and_found/internal/logger"
)

// LogSender writes messages to the application log instead of sending them.
// Development only: the logged body contains the verification link.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, m Message) error {
	s.log.Infow("mail_logged", "to", m.To, "subject", m.Subject, "body", m.Text)
	return nil
}
