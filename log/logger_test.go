package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/justapithecus/serialcat/types"
)

func testMeta() types.SessionMeta {
	return types.SessionMeta{Port: "/dev/ttyUSB0", Settings: types.DefaultSettings()}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_SessionFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(testMeta(), Options{Output: &buf})

	l.Info("session started", map[string]any{"drain_ms": 100})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	entry := lines[0]
	if entry["message"] != "session started" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["port"] != "/dev/ttyUSB0" {
		t.Errorf("port = %v", entry["port"])
	}
	if entry["settings"] != "9600 8N1" {
		t.Errorf("settings = %v", entry["settings"])
	}
	if entry["mode"] != "visual" {
		t.Errorf("mode = %v", entry["mode"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("missing timestamp")
	}
}

func TestLogger_DebugGated(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(testMeta(), Options{Output: &buf})
	l.Debug("hidden", nil)
	if buf.Len() != 0 {
		t.Errorf("debug entry written without Debug option: %s", buf.String())
	}

	l = NewLogger(testMeta(), Options{Output: &buf, Debug: true})
	l.Debug("shown", nil)
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug entry missing: %s", buf.String())
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(testMeta(), Options{Output: &buf}).With("reader")
	l.Warn("slow", nil)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["component"] != "reader" {
		t.Errorf("component field missing: %v", lines)
	}
}

func TestLogger_NilSafe(_ *testing.T) {
	var l *Logger
	l.Info("ignored", nil)
	l.With("x").Error("ignored", nil)
	l.Sugar().Infof("ignored %d", 1)
	NewNop().Warn("ignored", nil)
}

func TestSugaredLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogger(testMeta(), Options{Output: &buf, Debug: true}).Sugar()

	s.Debugf("opened %s", "/dev/ttyUSB0")
	s.Infof("received %s", "interrupt")
	s.Warnf("close of %s still pending", "/dev/ttyUSB0")
	s.Errorf("open %s failed: %v", "/dev/ttyUSB0", "busy")

	want := []struct{ level, message string }{
		{"debug", "opened /dev/ttyUSB0"},
		{"info", "received interrupt"},
		{"warn", "close of /dev/ttyUSB0 still pending"},
		{"error", "open /dev/ttyUSB0 failed: busy"},
	}
	lines := decodeLines(t, &buf)
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i, w := range want {
		if lines[i]["level"] != w.level || lines[i]["message"] != w.message {
			t.Errorf("line %d = %v/%v, want %s/%s", i, lines[i]["level"], lines[i]["message"], w.level, w.message)
		}
		if lines[i]["port"] != "/dev/ttyUSB0" {
			t.Errorf("line %d port = %v", i, lines[i]["port"])
		}
	}
}
