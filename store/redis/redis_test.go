package redis

import (
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/infodancer/basicfit"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return NewStore(rdb, "bf", ""), mr
}

func TestStore_ApplyLoad(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := t.Context()

	if err := s.Apply(ctx,
		basicfit.Put(basicfit.KeyLoggedIn, "true"),
		basicfit.Put(basicfit.KeyEmail, "user@example.com"),
		basicfit.Put(basicfit.KeyDisplayName, "Utilisateur BasicFit"),
	); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := mr.HGet("bf:basicfit_auth", basicfit.KeyEmail); got != "user@example.com" {
		t.Errorf("expected email in hash, got %q", got)
	}

	if err := s.Apply(ctx,
		basicfit.Put(basicfit.KeyLoggedIn, "false"),
		basicfit.Remove(basicfit.KeyEmail),
		basicfit.Remove(basicfit.KeyDisplayName),
	); err != nil {
		t.Fatalf("Apply logout: %v", err)
	}

	values, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(values) != 1 || values[basicfit.KeyLoggedIn] != "false" {
		t.Errorf("unexpected values: %v", values)
	}
}

func TestStore_EmptyNamespace(t *testing.T) {
	s, _ := newTestStore(t)

	values, err := s.Load(t.Context())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("expected empty namespace, got %v", values)
	}
	if err := s.Apply(t.Context()); err != nil {
		t.Errorf("empty Apply: %v", err)
	}
}

func TestStore_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { _ = rdb.Close() }()
	s := NewStore(rdb, "bf", "")
	mr.Close()

	if _, err := s.Load(t.Context()); !errors.Is(err, ErrRedisUnavailable) {
		t.Errorf("expected ErrRedisUnavailable from Load, got %v", err)
	}
	if err := s.Apply(t.Context(), basicfit.Put("a", "b")); !errors.Is(err, ErrRedisUnavailable) {
		t.Errorf("expected ErrRedisUnavailable from Apply, got %v", err)
	}
	if err := s.Ping(t.Context()); !errors.Is(err, ErrRedisUnavailable) {
		t.Errorf("expected ErrRedisUnavailable from Ping, got %v", err)
	}
}

func TestRegisteredFactory(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()

	store, err := basicfit.OpenStore(basicfit.StoreConfig{
		Type:      "redis",
		Namespace: "install1",
		Options:   map[string]string{"addr": mr.Addr(), "prefix": "test"},
	})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Apply(t.Context(), basicfit.Put("k", "v")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := mr.HGet("test:install1", "k"); got != "v" {
		t.Errorf("expected value under test:install1, got %q", got)
	}

	if _, err := basicfit.OpenStore(basicfit.StoreConfig{
		Type:    "redis",
		Options: map[string]string{"db": "zero"},
	}); err == nil {
		t.Error("expected error for non-numeric db option")
	}
}
