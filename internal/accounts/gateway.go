// Package accounts verifies caller credentials and manages the temporary
// accounts the USSD flow can create mid-call.
package accounts

import (
	"context"
	"time"
)

// Verification is the outcome of a credential check. A wrong PIN or an
// unknown account is data, not an error; Success is false and UserID empty.
type Verification struct {
	Success bool
	UserID  string
}

// TempAccountDetails carries what the caller entered while creating a
// temporary account. Contact is an email address or a phone number
// depending on Method.
type TempAccountDetails struct {
	PhoneNumber string
	Contact     string
	Method      string // "email" or "phone"
}

// TempAccount is a freshly created 48-hour account. PIN is returned in
// clear exactly once so it can be shown and texted to the caller.
type TempAccount struct {
	UserID string
	PIN    string
	Expiry time.Time
}

// Appointment is a past or upcoming booking shown in the history flow.
type Appointment struct {
	ID          string
	Reference   string
	Hospital    string
	Doctor      string
	Date        string
	Time        string
	Status      string
	IsEmergency bool
}

// Gateway is the account collaborator the menu engine depends on.
type Gateway interface {
	// VerifyCredentials checks the PIN for the account identified by phone
	// number or email address.
	VerifyCredentials(ctx context.Context, identifier, pin string) (Verification, error)

	// CreateTemporaryAccount registers a 48-hour account and texts the
	// generated PIN to the caller.
	CreateTemporaryAccount(ctx context.Context, details TempAccountDetails) (TempAccount, error)

	// EnsureUserByPhone returns the user for the phone number, silently
	// creating a temporary account when none exists. Used by the emergency
	// flow, which must not stall on PIN entry.
	EnsureUserByPhone(ctx context.Context, phoneNumber string) (string, error)

	// UserAppointments lists the user's appointments, most recent first.
	UserAppointments(ctx context.Context, userID string) ([]Appointment, error)
}
