package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetWithoutInitialize(t *testing.T) {
	l := Get(CategorySession)
	if l == nil {
		t.Fatal("Get returned nil before Initialize")
	}
	// Must not panic.
	l.Debug("debug %d", 1)
	l.Info("info %s", "x")
}

func TestGetReturnsSameLogger(t *testing.T) {
	a := Get(CategoryContext)
	b := Get(CategoryContext)
	if a != b {
		t.Error("Get returned different loggers for the same category")
	}
}

func TestInitializeWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	if err := Initialize("debug", path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	Session("session started: %s", "sess-1")
	SessionDebug("sweeper tick")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "session started: sess-1") {
		t.Errorf("log file missing info entry, got: %s", out)
	}
	if !strings.Contains(out, "sweeper tick") {
		t.Errorf("log file missing debug entry at debug level, got: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.log")

	if err := Initialize("warn", path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	Context("assembled layer")
	Get(CategoryContext).Warn("budget exceeded")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "assembled layer") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(out, "budget exceeded") {
		t.Error("warn entry missing")
	}
}
