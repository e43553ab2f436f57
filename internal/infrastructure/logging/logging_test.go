package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_BadLevel(t *testing.T) {
	if _, err := New("loud", ""); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")

	l, err := New("info", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("hidden")
	l.Info("loan opened", zap.Uint64("loan_id", 7))
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line (debug filtered), got %d: %q", len(lines), raw)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if rec["msg"] != "loan opened" || rec["loan_id"] != float64(7) || rec["level"] != "info" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if _, ok := rec["ts"]; !ok {
		t.Fatalf("missing ts: %v", rec)
	}
}

func TestSetup_ReplacesGlobal(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	l, err := Setup("warn", "")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if zap.L() != l {
		t.Fatal("global logger not replaced")
	}
}
