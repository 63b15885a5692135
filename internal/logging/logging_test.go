package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/chuxorg/chux-travel/internal/requestid"
)

func TestNewJSONWritesStructuredEntries(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", "json", &buf)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible", zap.String("k", "v"))
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one entry, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["msg"] != "visible" || entry["k"] != "v" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("loud", "json", nil); err == nil || !strings.Contains(err.Error(), "invalid log level") {
		t.Fatalf("expected invalid level error, got %v", err)
	}
	if _, err := New("info", "xml", nil); err == nil || !strings.Contains(err.Error(), "invalid log format") {
		t.Fatalf("expected invalid format error, got %v", err)
	}
}

func TestWithRequestAddsID(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	ctx := requestid.WithContext(context.Background(), "req-1")

	WithRequest(ctx, zap.New(core)).Info("hello")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-1" {
		t.Fatalf("expected request_id req-1, got %v", got)
	}
}

func TestWithRequestNilLogger(t *testing.T) {
	if WithRequest(context.Background(), nil) == nil {
		t.Fatal("expected nop logger")
	}
}
