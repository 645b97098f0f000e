package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(newLogger(&buf, "debug", "json"), "onboarding")
	logger.Debug("step changed", "to", "verification")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["component"] != "onboarding" {
		t.Fatalf("expected component attribute, got %v", record["component"])
	}
	if record["to"] != "verification" {
		t.Fatalf("expected to attribute, got %v", record["to"])
	}
}

func TestNewLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "loud", "text")
	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info record missing: %s", out)
	}
}
