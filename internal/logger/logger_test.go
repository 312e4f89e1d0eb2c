package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/claimcheck/internal/model"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"bogus", logrus.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSONFormat(t *testing.T) {
	log := New(model.LogConfig{Level: "debug", Format: "json"})
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithField("video_id", "abc").Info("hello")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["video_id"] != "abc" {
		t.Errorf("Expected video_id field, got %v", entry["video_id"])
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", log.GetLevel())
	}
}

func TestNew_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "claimcheck.log")
	log := New(model.LogConfig{File: path, MaxSizeMB: 1})
	if log.Out == nil {
		t.Fatal("Expected output writer")
	}
}

func TestWithRequestID(t *testing.T) {
	base := Discard()

	_, id := WithRequestID(base, "")
	if id == "" {
		t.Error("Expected generated request id")
	}

	entry, id := WithRequestID(base, "req-1")
	if id != "req-1" {
		t.Errorf("Expected req-1, got %s", id)
	}
	if e, ok := entry.(*logrus.Entry); !ok || e.Data["request_id"] != "req-1" {
		t.Errorf("Expected request_id field on entry")
	}
}
