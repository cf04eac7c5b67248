package session

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/hospitalquick/platform/pkg/logging"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, time.Minute, logging.Default()), mr
}

func TestRedisResolveCreatesAndReuses(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	sess, err := store.Resolve(ctx, "sess-r1", "+250788000001")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess.CurrentMenu != StateMain || len(sess.Data) != 0 {
		t.Errorf("unexpected fresh session: %+v", sess)
	}

	if _, err := store.Persist(ctx, "sess-r1", "account_selection", map[string]string{"flow": "book"}); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	sess, err = store.Resolve(ctx, "sess-r1", "+250788000001")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess.CurrentMenu != "account_selection" || sess.Data["flow"] != "book" {
		t.Errorf("persisted state not restored: %+v", sess)
	}
}

func TestRedisPersistPreservesEarlierKeys(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	if _, err := store.Resolve(ctx, "sess-r2", "+250788000002"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := store.Persist(ctx, "sess-r2", "district_selection", map[string]string{"userID": "u-1"}); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	sess, err := store.Persist(ctx, "sess-r2", "hospital_selection", map[string]string{"districtID": "d-9"})
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if sess.Data["userID"] != "u-1" || sess.Data["districtID"] != "d-9" {
		t.Errorf("expected merged data, got %v", sess.Data)
	}
}

func TestRedisPersistMissingSession(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Persist(context.Background(), "never-seen", StateMain, nil)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisExpiryYieldsFreshSession(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if _, err := store.Resolve(ctx, "sess-r3", "+250788000003"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := store.Persist(ctx, "sess-r3", "history", map[string]string{"flow": "history"}); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	sess, err := store.Resolve(ctx, "sess-r3", "+250788000003")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess.CurrentMenu != StateMain || len(sess.Data) != 0 {
		t.Errorf("expired session leaked through resolve: %+v", sess)
	}
}

func TestRedisTerminateIsIdempotent(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	if _, err := store.Resolve(ctx, "sess-r4", "+250788000004"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := store.Terminate(ctx, "sess-r4"); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if err := store.Terminate(ctx, "sess-r4"); err != nil {
		t.Fatalf("second Terminate: %v", err)
	}

	if _, err := store.Persist(ctx, "sess-r4", StateMain, nil); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after terminate, got %v", err)
	}
}

func TestRedisCorruptPayloadRecreates(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	mr.Set(sessionKey("sess-r5"), "{not json")

	sess, err := store.Resolve(ctx, "sess-r5", "+250788000005")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sess.CurrentMenu != StateMain {
		t.Errorf("expected recreated session at main, got %q", sess.CurrentMenu)
	}
}
