package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

const graphResource = "https://graph.microsoft.com"

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, s
}

func TestNewRedisStore(t *testing.T) {
	store, _ := setupTestRedis(t)

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNewRedisStore_BadURL(t *testing.T) {
	if _, err := NewRedisStore("not a url"); err == nil {
		t.Error("expected error for malformed url")
	}
}

func TestSaveAndLookup(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	data := Data{UserID: "alice", Tokens: map[string]string{graphResource: "graph-token"}}
	if err := store.Save(ctx, "sess-1", data, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Lookup(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.UserID != "alice" {
		t.Errorf("expected user alice, got %s", got.UserID)
	}
	if got.Tokens[graphResource] != "graph-token" {
		t.Errorf("expected graph token, got %q", got.Tokens[graphResource])
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestLookupExpired(t *testing.T) {
	store, s := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, "sess-1", Data{UserID: "alice"}, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	if _, err := store.Lookup(ctx, "sess-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSaveAlreadyExpired(t *testing.T) {
	store, _ := setupTestRedis(t)

	err := store.Save(context.Background(), "sess-1", Data{UserID: "alice"}, time.Now().Add(-time.Second))
	if err == nil {
		t.Error("expected error for expired session")
	}
}

func TestRevoke(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()
	expiresAt := time.Now().Add(time.Hour)

	store.Save(ctx, "sess-1", Data{UserID: "alice"}, expiresAt)
	store.Save(ctx, "sess-2", Data{UserID: "bob"}, expiresAt)

	if err := store.Revoke(ctx, "sess-1"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	if _, err := store.Lookup(ctx, "sess-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected revoked session to be gone, got %v", err)
	}

	got, err := store.Lookup(ctx, "sess-2")
	if err != nil {
		t.Fatalf("Lookup sess-2 failed: %v", err)
	}
	if got.UserID != "bob" {
		t.Errorf("expected bob, got %s", got.UserID)
	}

	if err := store.Revoke(ctx, "unknown"); err != nil {
		t.Errorf("Revoke of unknown session failed: %v", err)
	}
}

func TestTokenProvider(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	store.Save(ctx, "sess-1", Data{UserID: "alice", Tokens: map[string]string{graphResource: "graph-token"}}, time.Now().Add(time.Hour))
	provider := NewTokenProvider(store)

	tests := []struct {
		name     string
		ctx      context.Context
		audience string
		want     string
		wantErr  bool
	}{
		{"session token", WithID(ctx, "sess-1"), graphResource, "graph-token", false},
		{"other audience", WithID(ctx, "sess-1"), "https://outlook.office.com", "", true},
		{"no session", ctx, graphResource, "", true},
		{"unknown session", WithID(ctx, "sess-x"), graphResource, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.Token(tt.ctx, tt.audience)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Token failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Token = %q, want %q", got, tt.want)
			}
		})
	}
}
