package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Persist when the session was evicted between
// resolve and persist. It signals a lost race, not a fault: the caller
// simply starts over at the main menu on the next dial.
var ErrNotFound = errors.New("session: not found")

// StateMain is the root menu state every fresh session starts in.
const StateMain = "main"

// Session correlates a gateway-assigned session identifier with the
// caller's position in the menu flow and the choices accumulated so far.
type Session struct {
	ID           string            `json:"id"`
	PhoneNumber  string            `json:"phone_number"`
	CurrentMenu  string            `json:"current_menu"`
	Data         map[string]string `json:"data"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
}

// Store is a keyed, time-evicted session store. It knows nothing about
// menu semantics beyond the name of the root state.
type Store interface {
	// Resolve returns the live session for id, creating a fresh main-state
	// session when none exists or the previous one expired. Absence is not
	// an error.
	Resolve(ctx context.Context, id, phoneNumber string) (*Session, error)

	// Persist merges patch into the session data (patch keys overwrite,
	// others are retained), moves the session to nextState and refreshes
	// its last-activity stamp. Returns ErrNotFound when the session has
	// been evicted in the meantime.
	Persist(ctx context.Context, id, nextState string, patch map[string]string) (*Session, error)

	// Terminate removes the session. Removing an absent session is a no-op.
	Terminate(ctx context.Context, id string) error

	// EvictExpired removes every session idle longer than the TTL and
	// reports how many were dropped. Stores with server-side expiry may
	// report zero.
	EvictExpired(ctx context.Context) int
}

func newSession(id, phoneNumber string, now time.Time) *Session {
	return &Session{
		ID:           id,
		PhoneNumber:  phoneNumber,
		CurrentMenu:  StateMain,
		Data:         map[string]string{},
		CreatedAt:    now,
		LastActivity: now,
	}
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Data = make(map[string]string, len(s.Data))
	for k, v := range s.Data {
		cp.Data[k] = v
	}
	return &cp
}
