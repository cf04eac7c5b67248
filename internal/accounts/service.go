package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospitalquick/platform/pkg/logging"
)

// tempAccountLifetime is how long a temporary account stays usable.
const tempAccountLifetime = 48 * time.Hour

// Querier is the subset of pgxpool.Pool the service needs; pgxmock
// satisfies it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Notifier delivers the account-creation SMS. Failures are logged and
// swallowed; the account exists either way.
type Notifier interface {
	AccountCreated(ctx context.Context, phoneNumber, pin string, expiry time.Time) error
}

// Service implements Gateway on Postgres with bcrypt-hashed PINs.
type Service struct {
	db       Querier
	notifier Notifier
	logger   *logging.Logger
}

// NewService creates an account service.
func NewService(db Querier, notifier Notifier, logger *logging.Logger) *Service {
	if db == nil {
		panic("accounts: querier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{db: db, notifier: notifier, logger: logger}
}

// VerifyCredentials looks the account up by phone or email and compares
// the PIN against its bcrypt hash.
func (s *Service) VerifyCredentials(ctx context.Context, identifier, pin string) (Verification, error) {
	var (
		userID  string
		pinHash string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, pin_hash FROM users WHERE phone = $1 OR email = $1 LIMIT 1`,
		identifier,
	).Scan(&userID, &pinHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Verification{}, nil
	}
	if err != nil {
		return Verification{}, fmt.Errorf("accounts: verify credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(pinHash), []byte(pin)) != nil {
		s.logger.Info("PIN rejected", "identifier", identifier)
		return Verification{}, nil
	}
	return Verification{Success: true, UserID: userID}, nil
}

// CreateTemporaryAccount inserts a 48-hour account with a random 6-digit
// PIN and texts the PIN to the caller.
func (s *Service) CreateTemporaryAccount(ctx context.Context, details TempAccountDetails) (TempAccount, error) {
	pin, err := generatePIN()
	if err != nil {
		return TempAccount{}, fmt.Errorf("accounts: generate PIN: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return TempAccount{}, fmt.Errorf("accounts: hash PIN: %w", err)
	}

	var email string
	if details.Method == "email" {
		email = details.Contact
	}

	userID := uuid.NewString()
	expiry := time.Now().UTC().Add(tempAccountLifetime)

	_, err = s.db.Exec(ctx, `
		INSERT INTO users (id, phone, email, pin_hash, account_type, account_expiry, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, 'temporary', $5, now())`,
		userID, details.PhoneNumber, email, string(hash), expiry)
	if err != nil {
		return TempAccount{}, fmt.Errorf("accounts: create temporary account: %w", err)
	}

	s.logger.Info("temporary account created", "user_id", userID, "phone", details.PhoneNumber)
	s.sendPIN(ctx, details.PhoneNumber, pin, expiry)

	return TempAccount{UserID: userID, PIN: pin, Expiry: expiry}, nil
}

// EnsureUserByPhone returns the existing user for the phone number or
// creates a temporary account for it.
func (s *Service) EnsureUserByPhone(ctx context.Context, phoneNumber string) (string, error) {
	var userID string
	err := s.db.QueryRow(ctx,
		`SELECT id FROM users WHERE phone = $1 LIMIT 1`, phoneNumber,
	).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("accounts: lookup by phone: %w", err)
	}

	account, err := s.CreateTemporaryAccount(ctx, TempAccountDetails{
		PhoneNumber: phoneNumber,
		Contact:     phoneNumber,
		Method:      "phone",
	})
	if err != nil {
		return "", err
	}
	return account.UserID, nil
}

// UserAppointments lists the user's appointments, most recent first.
func (s *Service) UserAppointments(ctx context.Context, userID string) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT a.id, a.reference_number, h.name, d.name,
		       to_char(s.slot_datetime, 'YYYY-MM-DD'),
		       to_char(s.slot_datetime, 'HH24:MI'),
		       a.status, a.is_emergency
		FROM appointments a
		JOIN appointment_slots s ON s.id = a.slot_id
		JOIN hospitals h ON h.id = s.hospital_id
		JOIN doctors d ON d.id = s.doctor_id
		WHERE a.user_id = $1
		ORDER BY s.slot_datetime DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("accounts: list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.Reference, &a.Hospital, &a.Doctor, &a.Date, &a.Time, &a.Status, &a.IsEmergency); err != nil {
			return nil, fmt.Errorf("accounts: scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("accounts: list appointments: %w", err)
	}
	return appointments, nil
}

func (s *Service) sendPIN(ctx context.Context, phoneNumber, pin string, expiry time.Time) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.AccountCreated(ctx, phoneNumber, pin, expiry); err != nil {
		s.logger.Error("account creation SMS failed", "phone", phoneNumber, "error", err)
	}
}

func generatePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
