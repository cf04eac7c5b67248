package accounts

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospitalquick/platform/pkg/logging"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingNotifier) AccountCreated(_ context.Context, phoneNumber, pin string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, phoneNumber+":"+pin)
	return nil
}

func TestVerifyCredentialsSuccess(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery("SELECT id, pin_hash FROM users").
		WithArgs("+250788000001").
		WillReturnRows(pgxmock.NewRows([]string{"id", "pin_hash"}).AddRow("u-1", string(hash)))

	svc := NewService(mock, nil, logging.Default())
	v, err := svc.VerifyCredentials(context.Background(), "+250788000001", "123456")
	if err != nil {
		t.Fatalf("VerifyCredentials: %v", err)
	}
	if !v.Success || v.UserID != "u-1" {
		t.Errorf("expected success for u-1, got %+v", v)
	}
}

func TestVerifyCredentialsWrongPINIsDataNotError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.MinCost)
	mock.ExpectQuery("SELECT id, pin_hash FROM users").
		WithArgs("+250788000001").
		WillReturnRows(pgxmock.NewRows([]string{"id", "pin_hash"}).AddRow("u-1", string(hash)))

	svc := NewService(mock, nil, logging.Default())
	v, err := svc.VerifyCredentials(context.Background(), "+250788000001", "999999")
	if err != nil {
		t.Fatalf("wrong PIN must not be an error: %v", err)
	}
	if v.Success {
		t.Error("expected failed verification")
	}
}

func TestVerifyCredentialsUnknownAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, pin_hash FROM users").
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "pin_hash"}))

	svc := NewService(mock, nil, logging.Default())
	v, err := svc.VerifyCredentials(context.Background(), "nobody@example.com", "123456")
	if err != nil {
		t.Fatalf("unknown account must not be an error: %v", err)
	}
	if v.Success {
		t.Error("expected failed verification for unknown account")
	}
}

func TestVerifyCredentialsStoreFault(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, pin_hash FROM users").
		WithArgs("+250788000001").
		WillReturnError(errors.New("connection reset"))

	svc := NewService(mock, nil, logging.Default())
	if _, err := svc.VerifyCredentials(context.Background(), "+250788000001", "123456"); err == nil {
		t.Fatal("expected store fault to propagate")
	}
}

func TestCreateTemporaryAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "+250788000002", "caller@example.com", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	notifier := &recordingNotifier{}
	svc := NewService(mock, notifier, logging.Default())

	account, err := svc.CreateTemporaryAccount(context.Background(), TempAccountDetails{
		PhoneNumber: "+250788000002",
		Contact:     "caller@example.com",
		Method:      "email",
	})
	if err != nil {
		t.Fatalf("CreateTemporaryAccount: %v", err)
	}
	if !regexp.MustCompile(`^\d{6}$`).MatchString(account.PIN) {
		t.Errorf("expected a 6-digit PIN, got %q", account.PIN)
	}
	until := time.Until(account.Expiry)
	if until < 47*time.Hour || until > 49*time.Hour {
		t.Errorf("expected ~48h expiry, got %s", until)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("expected one account-creation SMS, got %d", len(notifier.calls))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestEnsureUserByPhoneExisting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id FROM users WHERE phone").
		WithArgs("+250788000003").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("u-7"))

	svc := NewService(mock, nil, logging.Default())
	userID, err := svc.EnsureUserByPhone(context.Background(), "+250788000003")
	if err != nil {
		t.Fatalf("EnsureUserByPhone: %v", err)
	}
	if userID != "u-7" {
		t.Errorf("expected u-7, got %s", userID)
	}
}

func TestEnsureUserByPhoneCreates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id FROM users WHERE phone").
		WithArgs("+250788000004").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO users").
		WithArgs(pgxmock.AnyArg(), "+250788000004", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	notifier := &recordingNotifier{}
	svc := NewService(mock, notifier, logging.Default())
	userID, err := svc.EnsureUserByPhone(context.Background(), "+250788000004")
	if err != nil {
		t.Fatalf("EnsureUserByPhone: %v", err)
	}
	if userID == "" {
		t.Error("expected a user id for the silently created account")
	}
	if len(notifier.calls) != 1 {
		t.Errorf("expected the PIN to be texted, got %d calls", len(notifier.calls))
	}
}

func TestUserAppointments(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("FROM appointments a").
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "ref", "hospital", "doctor", "date", "time", "status", "emergency"}).
			AddRow("a-1", "HQ12345", "CHUK", "Dr. Uwimana", "2026-09-01", "09:00", "confirmed", false))

	svc := NewService(mock, nil, logging.Default())
	appointments, err := svc.UserAppointments(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("UserAppointments: %v", err)
	}
	if len(appointments) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appointments))
	}
	if appointments[0].Reference != "HQ12345" {
		t.Errorf("unexpected reference %s", appointments[0].Reference)
	}
}
