package session

import (
	"context"
	"sync"
	"time"

	"github.com/hospitalquick/platform/pkg/logging"
)

// MemoryStore keeps sessions in a mutex-guarded map. It is the default
// store for single-instance deployments and for tests; sessions do not
// survive a process restart, which the USSD protocol tolerates.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewMemoryStore creates a store evicting sessions idle longer than ttl.
func NewMemoryStore(ttl time.Duration, logger *logging.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolve returns the session for id, sweeping expired entries first.
func (s *MemoryStore) Resolve(ctx context.Context, id, phoneNumber string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if sess, ok := s.sessions[id]; ok {
		sess.LastActivity = now
		return sess.clone(), nil
	}

	sess := newSession(id, phoneNumber, now)
	s.sessions[id] = sess
	s.logger.Info("session created", "session_id", id, "phone", phoneNumber)
	return sess.clone(), nil
}

// Persist applies the data patch and state transition to the stored session.
func (s *MemoryStore) Persist(ctx context.Context, id, nextState string, patch map[string]string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	for k, v := range patch {
		sess.Data[k] = v
	}
	sess.CurrentMenu = nextState
	sess.LastActivity = s.now()
	return sess.clone(), nil
}

// Terminate removes the session; absent sessions are ignored.
func (s *MemoryStore) Terminate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.logger.Info("session terminated", "session_id", id)
	}
	return nil
}

// EvictExpired drops every session idle longer than the TTL.
func (s *MemoryStore) EvictExpired(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// StartJanitor evicts expired sessions on a fixed cadence until ctx is done.
// Eviction also happens opportunistically on Resolve, so the janitor only
// bounds memory during long idle periods.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.EvictExpired(ctx); n > 0 {
					s.logger.Debug("expired sessions evicted", "count", n)
				}
			}
		}
	}()
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	var evicted int
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > s.ttl {
			delete(s.sessions, id)
			evicted++
			s.logger.Info("session expired", "session_id", id)
		}
	}
	return evicted
}
