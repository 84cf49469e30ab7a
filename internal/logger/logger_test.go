package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	initWriter(&buf, "warn", "text")
	t.Cleanup(func() { defaultLogger = nil })

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info should be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("Expected warn message, got %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	initWriter(&buf, "debug", "json")
	t.Cleanup(func() { defaultLogger = nil })

	Debug("post %s recorded", "42")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("Expected JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "post 42 recorded" {
		t.Errorf("Unexpected msg: %v", line["msg"])
	}
	if line["level"] != "DEBUG" {
		t.Errorf("Unexpected level: %v", line["level"])
	}
}

func TestUninitializedIsSilent(t *testing.T) {
	defaultLogger = nil
	Info("nothing happens")
	Error("still nothing")
}
