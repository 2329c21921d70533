package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	original := Logger()
	ReplaceLogger(slog.New(newHandler(buf)))
	t.Cleanup(func() {
		ReplaceLogger(original)
	})
	return buf
}

func TestInfoProducesLogfmtWithTimestamp(t *testing.T) {
	buf := captureOutput(t)

	Info(context.Background(), "hello", "user", "test")

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatalf("expected log output, got empty string")
	}
	if !strings.Contains(line, "ts=") {
		t.Fatalf("expected timestamp field in log line, got %q", line)
	}
	if !strings.Contains(line, "level=info") {
		t.Fatalf("expected level field in log line, got %q", line)
	}
	if !strings.Contains(line, "msg=hello") {
		t.Fatalf("expected message field in log line, got %q", line)
	}
	if !strings.Contains(line, "user=test") {
		t.Fatalf("expected structured field in log line, got %q", line)
	}
}

func TestRequestIDAttachedFromContext(t *testing.T) {
	buf := captureOutput(t)

	ctx := WithRequestID(context.Background(), "req-123")
	Info(ctx, "scoped")

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "requestID=req-123") {
		t.Fatalf("expected requestID attribute in log line, got %q", line)
	}

	if got := RequestID(ctx); got != "req-123" {
		t.Fatalf("RequestID = %q, want %q", got, "req-123")
	}
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("RequestID on empty context = %q, want empty", got)
	}
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() {
		if err := SetLevel("info"); err != nil {
			t.Fatalf("restore level: %v", err)
		}
	})

	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		if err := SetLevel(level); err != nil {
			t.Fatalf("SetLevel(%q) error = %v", level, err)
		}
	}

	if err := SetLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
