// Package booking turns a confirmed slot selection into a durable,
// conflict-free appointment. Slot exclusivity is the one property that
// must hold unconditionally: across any set of concurrent reservations
// of the same slot, exactly one succeeds.
package booking

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hospitalquick/platform/internal/notify"
	"github.com/hospitalquick/platform/internal/observability/metrics"
	"github.com/hospitalquick/platform/pkg/logging"
)

var bookingTracer = otel.Tracer("hospitalquick.internal.booking")

// Reason classifies expected reservation failures. These are business
// outcomes carried in the result, not errors.
type Reason string

const (
	ReasonSlotNotFound      Reason = "SlotNotFound"
	ReasonSlotAlreadyBooked Reason = "SlotAlreadyBooked"
)

// Result is the outcome of a reservation attempt.
type Result struct {
	Success       bool
	FailureReason Reason

	AppointmentID string
	Reference     string
	HospitalName  string
	DoctorName    string
	Date          string
	Time          string
}

// DB is the subset of pgxpool.Pool the manager needs; pgxmock satisfies
// it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Notifier delivers the booking confirmation SMS.
type Notifier interface {
	BookingConfirmed(ctx context.Context, phoneNumber string, details notify.BookingDetails) error
}

// Manager reserves appointment slots transactionally.
type Manager struct {
	db       DB
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewManager creates a booking manager. notifier and m may be nil.
func NewManager(db DB, notifier Notifier, m *metrics.BookingMetrics, logger *logging.Logger) *Manager {
	if db == nil {
		panic("booking: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{db: db, notifier: notifier, metrics: m, logger: logger}
}

// Reserve atomically books the slot for the user and records the
// appointment. The slot row is locked for the duration of the check and
// mutation, so concurrent reservations of the same slot serialize and all
// but one observe SlotAlreadyBooked. The confirmation SMS is sent after
// commit and never affects the result.
func (m *Manager) Reserve(ctx context.Context, userID, slotID string, isEmergency bool) (Result, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("hospitalquick.slot_id", slotID),
		attribute.Bool("hospitalquick.emergency", isEmergency),
	)

	tx, err := m.db.Begin(ctx)
	if err != nil {
		m.observe("error")
		span.RecordError(err)
		return Result{}, fmt.Errorf("booking: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		booked       bool
		hospitalName string
		doctorName   string
		slotDate     string
		slotTime     string
	)
	err = tx.QueryRow(ctx, `
		SELECT s.is_booked, h.name, d.name,
		       to_char(s.slot_datetime, 'YYYY-MM-DD'),
		       to_char(s.slot_datetime, 'HH24:MI')
		FROM appointment_slots s
		JOIN hospitals h ON h.id = s.hospital_id
		JOIN doctors d ON d.id = s.doctor_id
		WHERE s.id = $1
		FOR UPDATE OF s`, slotID,
	).Scan(&booked, &hospitalName, &doctorName, &slotDate, &slotTime)
	if errors.Is(err, pgx.ErrNoRows) {
		m.observe("slot_not_found")
		return Result{FailureReason: ReasonSlotNotFound}, nil
	}
	if err != nil {
		m.observe("error")
		span.RecordError(err)
		return Result{}, fmt.Errorf("booking: read slot: %w", err)
	}
	if booked {
		m.observe("slot_taken")
		return Result{FailureReason: ReasonSlotAlreadyBooked}, nil
	}

	// The WHERE clause repeats the booked check so a missed lock can never
	// turn into a double booking.
	tag, err := tx.Exec(ctx, `
		UPDATE appointment_slots
		SET is_booked = TRUE, booked_at = now()
		WHERE id = $1 AND is_booked = FALSE`, slotID)
	if err != nil {
		m.observe("error")
		span.RecordError(err)
		return Result{}, fmt.Errorf("booking: mark slot booked: %w", err)
	}
	if tag.RowsAffected() != 1 {
		m.observe("slot_taken")
		return Result{FailureReason: ReasonSlotAlreadyBooked}, nil
	}

	appointmentID := uuid.NewString()
	reference, err := newReference()
	if err != nil {
		m.observe("error")
		return Result{}, fmt.Errorf("booking: generate reference: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, user_id, slot_id, reference_number, is_emergency, status, created_at)
		VALUES ($1, $2, $3, $4, $5, 'confirmed', now())`,
		appointmentID, userID, slotID, reference, isEmergency)
	if err != nil {
		m.observe("error")
		span.RecordError(err)
		return Result{}, fmt.Errorf("booking: insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		m.observe("error")
		span.RecordError(err)
		return Result{}, fmt.Errorf("booking: commit: %w", err)
	}

	m.observe("booked")
	m.logger.Info("appointment booked",
		"appointment_id", appointmentID,
		"reference", reference,
		"slot_id", slotID,
		"user_id", userID,
		"emergency", isEmergency,
	)

	result := Result{
		Success:       true,
		AppointmentID: appointmentID,
		Reference:     reference,
		HospitalName:  hospitalName,
		DoctorName:    doctorName,
		Date:          slotDate,
		Time:          slotTime,
	}
	m.notifyBooked(ctx, userID, result)
	return result, nil
}

// notifyBooked looks up the caller's phone and fires the confirmation SMS
// in the background. Everything here is best effort.
func (m *Manager) notifyBooked(ctx context.Context, userID string, result Result) {
	if m.notifier == nil {
		return
	}

	var phone string
	if err := m.db.QueryRow(ctx, `SELECT phone FROM users WHERE id = $1`, userID).Scan(&phone); err != nil {
		m.logger.Error("confirmation SMS skipped, phone lookup failed", "user_id", userID, "error", err)
		return
	}

	details := notify.BookingDetails{
		Reference:    result.Reference,
		HospitalName: result.HospitalName,
		DoctorName:   result.DoctorName,
		Date:         result.Date,
		Time:         result.Time,
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := m.notifier.BookingConfirmed(sendCtx, phone, details); err != nil {
			m.logger.Error("confirmation SMS failed", "reference", result.Reference, "error", err)
		}
	}()
}

func (m *Manager) observe(outcome string) {
	m.metrics.ObserveReservation(outcome)
}

// newReference builds the human-shareable booking code, e.g. HQ48213.
func newReference() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("HQ%05d", n.Int64()+10000), nil
}
