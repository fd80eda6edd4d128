package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", FormatJSON)

	logger.Debug("hello", Action("create"), Index(2))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if line["action"] != "create" {
		t.Errorf("action = %v, want create", line["action"])
	}
	if line["index"] != float64(2) {
		t.Errorf("index = %v, want 2", line["index"])
	}
}

func TestNew_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", FormatText)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "kept") {
		t.Error("warn message should be written")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithComponentAndRequest(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info", FormatJSON)

	WithRequest(WithComponent(base, "executor"), "req-1").Info("x")

	out := buf.String()
	if !strings.Contains(out, `"component":"executor"`) || !strings.Contains(out, `"request_id":"req-1"`) {
		t.Errorf("missing attributes in %q", out)
	}

	if WithComponent(nil, "x") == nil {
		t.Error("WithComponent(nil) returned nil")
	}
}

func TestAttrs(t *testing.T) {
	tests := []struct {
		attr slog.Attr
		key  string
		want string
	}{
		{Operation("patch"), KeyOperation, "patch"},
		{Action("delete"), KeyAction, "delete"},
		{RemoteID("evt-1"), KeyRemoteID, "evt-1"},
		{TimeZone("Europe/Berlin"), KeyTimeZone, "Europe/Berlin"},
		{Tool("calendar_apply_text"), KeyTool, "calendar_apply_text"},
		{Status(StatusSuccess), KeyStatus, "success"},
	}
	for _, tt := range tests {
		if tt.attr.Key != tt.key {
			t.Errorf("key = %q, want %q", tt.attr.Key, tt.key)
		}
		if tt.attr.Value.String() != tt.want {
			t.Errorf("value = %q, want %q", tt.attr.Value.String(), tt.want)
		}
	}

	if got := TextLength("abc").Value.Int64(); got != 3 {
		t.Errorf("TextLength = %d, want 3", got)
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != KeyError || attr.Value.String() != "boom" {
		t.Errorf("Err = %v", attr)
	}

	nilAttr := Err(nil)
	if nilAttr.Key != "" {
		t.Errorf("Err(nil) key = %q, want empty", nilAttr.Key)
	}
}

func TestAnonymizeCalendar(t *testing.T) {
	if AnonymizeCalendar("") != "" {
		t.Error("empty calendar should stay empty")
	}
	if AnonymizeCalendar("primary") != "primary" {
		t.Error("primary alias should not be hashed")
	}

	h := AnonymizeCalendar("alice@example.com")
	if !strings.HasPrefix(h, "cal:") || strings.Contains(h, "alice") {
		t.Errorf("unexpected hash %q", h)
	}
	if h != AnonymizeCalendar("alice@example.com") {
		t.Error("hash should be stable")
	}
	if Calendar("alice@example.com").Value.String() != h {
		t.Error("Calendar attr should use the anonymized value")
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken(""); got != "<empty>" {
		t.Errorf("SanitizeToken(\"\") = %q", got)
	}
	if got := SanitizeToken("ya29.secret"); got != "[token:11 chars]" || strings.Contains(got, "secret") {
		t.Errorf("SanitizeToken leaked content: %q", got)
	}
}
