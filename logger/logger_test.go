package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "debug", Format: "json"}, "svc")
	l.Debug("hello", Fields(FieldChannel, "c1", FieldKind, "data"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", entry["message"])
	}
	if entry[FieldChannel] != "c1" || entry[FieldKind] != "data" {
		t.Errorf("expected fields to be written, got %v", entry)
	}
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "warn", Format: "json"}, "svc")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got %q", buf.String())
	}
	if l.DebugEnabled() {
		t.Error("debug should be disabled at warn level")
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn to be written, got %q", buf.String())
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "invalid-level", Format: "json"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("dropped")
	if l.DebugEnabled() {
		t.Error("nop logger must not report debug enabled")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "info", Format: "json"}, "test")
	cl := l.WithComponent("merge")
	if cl.service != "test" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}
	cl.Info("x")
	if !strings.Contains(buf.String(), `"component":"merge"`) {
		t.Errorf("expected component field, got %q", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "info", Format: "json"}, "test")
	l.WithFields(map[string]interface{}{"key": "value"}).Info("x", ErrorFields("take", errors.New("boom")))
	out := buf.String()
	if !strings.Contains(out, `"key":"value"`) || !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("expected key and error fields, got %q", out)
	}
}

func TestConsoleLoggerShortService(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "info", Format: "console", NoColor: true}, "ab")
	l.Warn("careful")
	if !strings.Contains(buf.String(), "[WRN]") {
		t.Errorf("expected bare level tag, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "[AB") {
		t.Errorf("short service names are not tagged, got %q", buf.String())
	}
}

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "info", Format: "console", NoColor: true}, "talkback")
	l.Info("ready")
	if !strings.Contains(buf.String(), "[TAL][INF]") {
		t.Errorf("expected service and level tags, got %q", buf.String())
	}
}

func TestGlobal(t *testing.T) {
	if GetGlobalLogger() == nil {
		t.Fatal("expected a default global logger")
	}
	l := NewDefault("custom")
	SetGlobalLogger(l)
	defer SetGlobalLogger(nil)
	if GetGlobalLogger() != l {
		t.Error("expected SetGlobalLogger to set the global logger")
	}
	Debug("debug msg")
	Info("info msg")
	Warn("warn msg")
	Error("error msg")
}

func TestRegistry(t *testing.T) {
	l := Nop()
	Register("pipeline.test", l)
	defer Unregister("pipeline.test")
	if Get("pipeline.test") != l {
		t.Error("expected registered logger")
	}
	if Get("pipeline.other") == nil {
		t.Error("expected fallback logger for unknown names")
	}
	Unregister("pipeline.test")
	if Get("pipeline.test") == l {
		t.Error("expected fallback after Unregister")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected output 'stdout', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected Timestamp to be true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"invalid level", Config{Level: "bad", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFieldsHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("expected odd trailing key to be ignored, got %v", f)
	}
	ef := ErrorFields("take", errors.New("x"))
	if ef[FieldOperator] != "take" || ef[FieldError] != "x" {
		t.Errorf("unexpected error fields %v", ef)
	}
}
