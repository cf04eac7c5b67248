package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/hospitalquick/platform/pkg/logging"
)

// SMSSender delivers a text message to a phone number. Implementations
// wrap whichever SMS gateway a deployment uses.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (messageID string, err error)
}

// LogSender is the development sender: it logs the message and reports
// success. Matches the mocked gateway of the reference deployment.
type LogSender struct {
	logger   *logging.Logger
	senderID string
}

// NewLogSender creates a sender that only logs.
func NewLogSender(senderID string, logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger, senderID: senderID}
}

// SendSMS logs the outbound message and returns a synthetic message id.
func (s *LogSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	messageID := "mock_" + uuid.NewString()
	s.logger.Info("SMS sent",
		"provider", "log",
		"sender_id", s.senderID,
		"to", to,
		"message_id", messageID,
		"body", body,
	)
	return messageID, nil
}
