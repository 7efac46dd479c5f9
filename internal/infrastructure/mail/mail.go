// Package mail provides transactional email delivery for receipts.
package mail

import (
	"context"

	"go.uber.org/zap"
)

// Sender delivers one HTML message to one or more recipients.
type Sender interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

var _ Sender = (*NoopSender)(nil)

// NoopSender drops every message. Wired when mail delivery is disabled so
// the sale workflow keeps a non-nil collaborator.
type NoopSender struct {
	logger *zap.Logger
}

// NewNoopSender creates a NoopSender
func NewNoopSender(logger *zap.Logger) *NoopSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoopSender{logger: logger}
}

// Send logs and drops the message
func (s *NoopSender) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	s.logger.Debug("Mail delivery disabled, dropping message",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(htmlBody)))
	return nil
}
