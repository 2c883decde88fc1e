package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger = NewComponentLogger(logger, "ingest")
	logger.Info("processing upload", String(FieldVideoID, "vid1"), String("note", "two words"))

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, " INFO ingest: processing upload") {
		t.Errorf("line = %q, want component-prefixed message", line)
	}
	if !strings.Contains(line, "video_id=vid1") {
		t.Errorf("line = %q, want video_id attr", line)
	}
	if !strings.Contains(line, `note="two words"`) {
		t.Errorf("line = %q, want quoted multi-word value", line)
	}
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line emitted below warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn line missing")
	}
}

func TestJSONHandlerKeyRemapping(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, levelVar))

	logger.Info("hello", Int("count", 3))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("ts key missing")
	}
	if entry["count"] != float64(3) {
		t.Errorf("count = %v", entry["count"])
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	base := slog.New(newConsoleHandler(&buf, levelVar))

	ctx := WithVideoID(context.Background(), "vid9")
	ctx = WithStage(ctx, "transcript")
	WithContext(ctx, base).Info("stage started")

	line := buf.String()
	if !strings.Contains(line, "video_id=vid9") || !strings.Contains(line, "stage=transcript") {
		t.Errorf("line = %q, want context-derived attrs", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("unknown format accepted")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should not panic", Error(nil))
}
