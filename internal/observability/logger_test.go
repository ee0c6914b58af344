package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerToWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "info")

	log.Info("server starting", "addr", ":3000")

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if got["msg"] != "server starting" || got["addr"] != ":3000" || got["level"] != "INFO" {
		t.Fatalf("unexpected log line: %v", got)
	}
}

func TestNewLoggerToRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLoggerTo(&buf, "warn")

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn line missing: %s", out)
	}
}
