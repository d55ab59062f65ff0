package redis

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"mindhaven/internal/config"
)

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	ctx := context.Background()
	if err := c.Set(ctx, "k", "v", time.Second); err == nil {
		t.Fatalf("expected error from nil client Set")
	}
	if _, err := c.Get(ctx, "k"); err == nil {
		t.Fatalf("expected error from nil client Get")
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatalf("expected error from nil client Ping")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close on nil client: %v", err)
	}
	if c.Raw() != nil {
		t.Fatalf("expected nil raw client")
	}
}

func TestNewRedisClientRequiresConfig(t *testing.T) {
	if _, err := NewRedisClient(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestClientRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	client, err := NewRedisClient(&config.Config{Redis: config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}})
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := client.Set(ctx, "roundtrip", "42", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := client.Get(ctx, "roundtrip")
	if err != nil || got != "42" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if raw, err := mr.Get("mindhaven:roundtrip"); err != nil || raw != "42" {
		t.Fatalf("namespaced key not found: %q, %v", raw, err)
	}
	if ttl := mr.TTL("mindhaven:roundtrip"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
	if err := client.Del(ctx, "roundtrip"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := client.Get(ctx, "roundtrip"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestNewRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port, _ := strconv.Atoi(mr.Port())
	mr.Close()
	if _, err := NewRedisClient(&config.Config{Redis: config.RedisConfig{Host: mr.Host(), Port: port}}); err == nil {
		t.Fatalf("expected ping error for stopped server")
	}
}
