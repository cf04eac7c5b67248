// Package notify formats and sends the SMS confirmations of the booking
// flow. Delivery is best effort: a failed send never fails the operation
// that triggered it.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/hospitalquick/platform/pkg/logging"
)

// BookingDetails is what the booking confirmation SMS is built from.
type BookingDetails struct {
	Reference    string
	HospitalName string
	DoctorName   string
	Date         string
	Time         string
}

// Service sends caller-facing SMS notifications.
type Service struct {
	sms          SMSSender
	supportPhone string
	logger       *logging.Logger
}

// NewService creates a notification service.
func NewService(sms SMSSender, supportPhone string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{sms: sms, supportPhone: supportPhone, logger: logger}
}

// BookingConfirmed texts the appointment confirmation to the caller.
func (s *Service) BookingConfirmed(ctx context.Context, phoneNumber string, details BookingDetails) error {
	body := fmt.Sprintf(`Your Hospital Quick appointment is confirmed!
Reference: %s
Hospital: %s
Doctor: %s
Date: %s
Time: %s
Thank you for using Hospital Quick.`,
		details.Reference, details.HospitalName, details.DoctorName, details.Date, details.Time)
	return s.send(ctx, phoneNumber, body)
}

// AccountCreated texts the temporary-account PIN to the caller.
func (s *Service) AccountCreated(ctx context.Context, phoneNumber, pin string, expiry time.Time) error {
	body := fmt.Sprintf(`Your temporary Hospital Quick account has been created. This account will be available for 48 hours.
Your PIN: %s
Expiry: %s
For assistance call: %s`,
		pin, expiry.Format("2006-01-02"), s.supportPhone)
	return s.send(ctx, phoneNumber, body)
}

func (s *Service) send(ctx context.Context, to, body string) error {
	if s.sms == nil {
		s.logger.Debug("no SMS sender configured, dropping message", "to", to)
		return nil
	}
	messageID, err := s.sms.SendSMS(ctx, to, body)
	if err != nil {
		return fmt.Errorf("notify: send SMS: %w", err)
	}
	s.logger.Info("notification dispatched", "to", to, "message_id", messageID)
	return nil
}
