package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hospitalquick/platform/pkg/logging"
)

// recordingSender captures outbound messages for assertions.
type recordingSender struct {
	to   []string
	body []string
	err  error
}

func (r *recordingSender) SendSMS(_ context.Context, to, body string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.to = append(r.to, to)
	r.body = append(r.body, body)
	return "msg-1", nil
}

func TestBookingConfirmedMessageBody(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "+250 791 640 062", logging.Default())

	err := svc.BookingConfirmed(context.Background(), "+250788000001", BookingDetails{
		Reference:    "HQ54321",
		HospitalName: "CHUK",
		DoctorName:   "Dr. Uwimana",
		Date:         "2026-09-01",
		Time:         "09:00",
	})
	if err != nil {
		t.Fatalf("BookingConfirmed: %v", err)
	}
	if len(sender.body) != 1 {
		t.Fatalf("expected one SMS, got %d", len(sender.body))
	}
	for _, want := range []string{"HQ54321", "CHUK", "Dr. Uwimana", "2026-09-01", "09:00"} {
		if !strings.Contains(sender.body[0], want) {
			t.Errorf("confirmation SMS missing %q:\n%s", want, sender.body[0])
		}
	}
}

func TestAccountCreatedMessageBody(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, "+250 791 640 062", logging.Default())

	expiry := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if err := svc.AccountCreated(context.Background(), "+250788000002", "654321", expiry); err != nil {
		t.Fatalf("AccountCreated: %v", err)
	}
	body := sender.body[0]
	if !strings.Contains(body, "654321") {
		t.Errorf("SMS missing PIN:\n%s", body)
	}
	if !strings.Contains(body, "2026-08-30") {
		t.Errorf("SMS missing expiry date:\n%s", body)
	}
	if !strings.Contains(body, "+250 791 640 062") {
		t.Errorf("SMS missing support phone:\n%s", body)
	}
}

func TestSendFaultIsReturned(t *testing.T) {
	sender := &recordingSender{err: errors.New("gateway down")}
	svc := NewService(sender, "", logging.Default())

	err := svc.BookingConfirmed(context.Background(), "+250788000003", BookingDetails{})
	if err == nil {
		t.Fatal("expected send fault to be returned for the caller to log")
	}
}

func TestNilSenderDropsSilently(t *testing.T) {
	svc := NewService(nil, "", logging.Default())
	if err := svc.BookingConfirmed(context.Background(), "+250788000004", BookingDetails{}); err != nil {
		t.Fatalf("nil sender should drop silently, got %v", err)
	}
}
