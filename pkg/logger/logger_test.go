package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerErrorIncludesContextFieldsAndStack(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithOrderID(ctx, "ord-9")
	log.Error(ctx, "settlement failed", errors.New("wallet locked"))

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["request_id"] != "req-123" || entry["order_id"] != "ord-9" || entry["service"] != "api" {
		t.Fatalf("context fields missing: %v", entry)
	}
	if entry["error"] != "wallet locked" {
		t.Fatalf("expected error field, got %v", entry["error"])
	}
	if _, ok := entry["stack"]; !ok {
		t.Fatalf("expected stack on error entry")
	}
}

func TestLoggerMasksSensitiveFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "api", Output: buf})

	ctx := log.WithField(context.Background(), "otp", "482913")
	ctx = log.WithFields(ctx, map[string]any{
		"account_number": "50100234567890",
		"Authorization":  "Bearer abc",
		"wallet_id":      "w-1",
	})
	log.Info(ctx, "cashout requested")

	out := buf.String()
	for _, secret := range []string{"482913", "50100234567890", "Bearer abc"} {
		if strings.Contains(out, secret) {
			t.Fatalf("secret %q leaked: %s", secret, out)
		}
	}
	entry := decodeLines(t, buf)[0]
	if entry["otp"] != redacted || entry["wallet_id"] != "w-1" {
		t.Fatalf("unexpected masking result: %v", entry)
	}
}

func TestLoggerWarnStackToggle(t *testing.T) {
	for _, withStack := range []bool{false, true} {
		buf := &bytes.Buffer{}
		log := New(Options{ServiceName: "cron-worker", Output: buf, WarnStack: withStack})
		log.Warn(context.Background(), "fallback fee used")
		_, has := decodeLines(t, buf)[0]["stack"]
		if has != withStack {
			t.Fatalf("WarnStack=%v but stack present=%v", withStack, has)
		}
	}
}

func TestDebugRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{ServiceName: "outbox-publisher", Output: buf}).Debug(context.Background(), "held back")
	if buf.Len() != 0 {
		t.Fatalf("debug entry written at info level: %s", buf.String())
	}
	New(Options{ServiceName: "outbox-publisher", Level: zerolog.DebugLevel, Output: buf}).Debug(context.Background(), "held back")
	if !strings.Contains(buf.String(), "held back") {
		t.Fatalf("expected debug entry at debug level")
	}
}

func TestParseLevelDefaults(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"invalid": zerolog.InfoLevel,
		" WARN ":  zerolog.WarnLevel,
		"debug":   zerolog.DebugLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
