package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hospitalquick/platform/pkg/logging"
)

const sessionKeyPrefix = "ussd_session:"

// RedisStore keeps sessions in Redis so that any instance behind the
// gateway can resume a call mid-flow. The inactivity window is enforced
// with key TTLs refreshed on every write; EvictExpired is therefore a no-op.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisStore creates a Redis-backed store with the given inactivity TTL.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisStore {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisStore{redis: redisClient, ttl: ttl, logger: logger}
}

// Resolve loads the session for id, creating a fresh one when the key is
// absent or has expired.
func (s *RedisStore) Resolve(ctx context.Context, id, phoneNumber string) (*Session, error) {
	key := sessionKey(id)

	raw, err := s.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var sess Session
		if uerr := json.Unmarshal([]byte(raw), &sess); uerr != nil {
			// Corrupt payloads are treated like absence; the caller
			// restarts at the main menu.
			s.logger.Warn("session payload corrupt, recreating", "session_id", id, "error", uerr)
			return s.create(ctx, id, phoneNumber)
		}
		sess.LastActivity = time.Now().UTC()
		if serr := s.save(ctx, &sess); serr != nil {
			return nil, serr
		}
		return &sess, nil
	case errors.Is(err, redis.Nil):
		return s.create(ctx, id, phoneNumber)
	default:
		return nil, fmt.Errorf("session: resolve %s: %w", id, err)
	}
}

// Persist merges patch into the stored session and advances its state.
func (s *RedisStore) Persist(ctx context.Context, id, nextState string, patch map[string]string) (*Session, error) {
	raw, err := s.redis.Get(ctx, sessionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: persist %s: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, ErrNotFound
	}
	if sess.Data == nil {
		sess.Data = map[string]string{}
	}
	for k, v := range patch {
		sess.Data[k] = v
	}
	sess.CurrentMenu = nextState
	sess.LastActivity = time.Now().UTC()

	if err := s.save(ctx, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Terminate deletes the session key; deleting an absent key is a no-op.
func (s *RedisStore) Terminate(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: terminate %s: %w", id, err)
	}
	return nil
}

// EvictExpired is a no-op: Redis expires keys server-side.
func (s *RedisStore) EvictExpired(ctx context.Context) int {
	return 0
}

func (s *RedisStore) create(ctx context.Context, id, phoneNumber string) (*Session, error) {
	sess := newSession(id, phoneNumber, time.Now().UTC())
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("session created", "session_id", id, "phone", phoneNumber)
	return sess, nil
}

func (s *RedisStore) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal %s: %w", sess.ID, err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save %s: %w", sess.ID, err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
