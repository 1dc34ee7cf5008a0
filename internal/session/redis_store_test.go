package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	store, err := NewRedisStore(context.Background(), "redis://"+s.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	if _, err := NewRedisStore(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error for malformed redis url")
	}
}

func TestRevokeAndCheckToken(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.RevokeToken(ctx, "jti-1", time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Error("expected jti-1 to be revoked")
	}

	revoked, err = store.IsRevoked(ctx, "jti-2")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Error("expected jti-2 to be active")
	}
}

func TestRevocationExpiresWithToken(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.RevokeToken(ctx, "short", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}

	// Fast-forward time in miniredis
	s.FastForward(2 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "short")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Error("expected revocation to lapse after token expiry")
	}
}

func TestRevokeAlreadyExpiredToken(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.RevokeToken(ctx, "stale", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}
	if s.Exists("revoked:stale") {
		t.Error("expected no key for an already expired token")
	}
}

func TestMemoryStoreRevocation(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.RevokeToken(ctx, "jti-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, "jti-1"); !revoked {
		t.Error("expected jti-1 to be revoked")
	}

	now = now.Add(2 * time.Hour)
	if revoked, _ := store.IsRevoked(ctx, "jti-1"); revoked {
		t.Error("expected revocation to lapse after expiry")
	}

	if err := store.RevokeToken(ctx, "jti-2", now.Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}
	if _, ok := store.revoked["jti-1"]; ok {
		t.Error("expected expired entries to be pruned")
	}
}
