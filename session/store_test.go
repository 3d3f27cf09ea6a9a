package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T) (*Store, *redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "ab")
	return store, rdb, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func testSession(sid string) *Session {
	now := time.Now()
	return &Session{
		Data: Data{
			ListKey: "User",
			ItemID:  "clgfkyin10000ecy82wllcj5i",
		},
		SessionID: sid,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}
}

func TestStoreSaveGet(t *testing.T) {
	store, _, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := testSession("sid-1")
	sess.Admin = true
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save session: %v", err)
	}

	got, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.SessionID != "sid-1" || got.Data != sess.Data {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store, _, _, done := newSessionStoreTest(t)
	defer done()

	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreGetExpiredRemovesSession(t *testing.T) {
	store, rdb, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	sess := testSession("sid-expired")
	sess.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save session: %v", err)
	}

	if _, err := store.Get(ctx, sess.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if n, _ := rdb.Exists(ctx, store.key(sess.SessionID)).Result(); n != 0 {
		t.Fatalf("expired blob should be deleted")
	}
	members, _ := rdb.SMembers(ctx, store.itemKey(sess.ListKey, sess.ItemID)).Result()
	if len(members) != 0 {
		t.Fatalf("expected empty item index, got %v", members)
	}
}

func TestDeleteSessionIdempotentAndIndex(t *testing.T) {
	store, rdb, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()
	sess := testSession("sid-1")

	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := store.Delete(ctx, sess.SessionID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, sess.SessionID); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	members, err := rdb.SMembers(ctx, store.itemKey(sess.ListKey, sess.ItemID)).Result()
	if err != nil {
		t.Fatalf("smembers: %v", err)
	}
	if len(members) != 0 {
		t.Fatalf("expected no item index members, got %v", members)
	}
}

func TestDeleteCorruptBlob(t *testing.T) {
	store, rdb, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := rdb.Set(ctx, store.key("sid-corrupt"), []byte("bad"), time.Hour).Err(); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}
	if _, err := store.Get(ctx, "sid-corrupt"); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
	if err := store.Delete(ctx, "sid-corrupt"); err != nil {
		t.Fatalf("delete corrupt: %v", err)
	}
	if n, _ := rdb.Exists(ctx, store.key("sid-corrupt")).Result(); n != 0 {
		t.Fatalf("corrupt blob should be deleted")
	}
}

func TestDeleteAllForItem(t *testing.T) {
	store, _, _, done := newSessionStoreTest(t)
	defer done()
	ctx := context.Background()

	for _, sid := range []string{"sid-1", "sid-2", "sid-3"} {
		if err := store.Save(ctx, testSession(sid), time.Hour); err != nil {
			t.Fatalf("save %s: %v", sid, err)
		}
	}
	other := testSession("sid-other")
	other.ItemID = "someone-else"
	if err := store.Save(ctx, other, time.Hour); err != nil {
		t.Fatalf("save other: %v", err)
	}

	n, err := store.DeleteAllForItem(ctx, "User", "clgfkyin10000ecy82wllcj5i")
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted, got %d", n)
	}
	ids, err := store.ActiveSessionIDs(ctx, "User", "clgfkyin10000ecy82wllcj5i")
	if err != nil {
		t.Fatalf("active ids: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty index, got %v", ids)
	}
	if _, err := store.Get(ctx, "sid-other"); err != nil {
		t.Fatalf("other item session should survive: %v", err)
	}
}

func TestStoreRedisDown(t *testing.T) {
	store, _, mr, done := newSessionStoreTest(t)
	defer done()
	mr.Close()

	if err := store.Save(context.Background(), testSession("sid-1"), time.Hour); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Ping(context.Background()); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ping failure, got %v", err)
	}
}
