package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar(), redact: true}, logs
}

func TestSanitizeRedactsSecretsAndContent(t *testing.T) {
	log, logs := newObserved()
	log.Info("upstream call",
		"api_key", "sk-live",
		"authorization", "Bearer abc",
		"content", "I feel anxious today",
		"user_id", int64(42),
		"status", 200,
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["api_key"] != "[REDACTED]" || fields["authorization"] != "[REDACTED]" {
		t.Fatalf("credentials not redacted: %#v", fields)
	}
	if fields["content"] != "[20 chars]" {
		t.Fatalf("content not reduced to length: %#v", fields["content"])
	}
	uid, _ := fields["user_id"].(string)
	if !strings.HasPrefix(uid, "hash:") {
		t.Fatalf("user id not hashed: %#v", fields["user_id"])
	}
	if fields["status"] != int64(200) {
		t.Fatalf("plain field altered: %#v", fields["status"])
	}
}

func TestWithKeepsRedaction(t *testing.T) {
	log, logs := newObserved()
	log.With("token", "abc").Warn("scoped")
	fields := logs.All()[0].ContextMap()
	if fields["token"] != "[REDACTED]" {
		t.Fatalf("token leaked through With: %#v", fields)
	}
}

func TestOddKeyValuesDoNotPanic(t *testing.T) {
	log, logs := newObserved()
	log.Debug("dangling", "only-key")
	if logs.FilterMessage("dangling").Len() != 1 {
		t.Fatalf("expected entry to be logged")
	}
}
