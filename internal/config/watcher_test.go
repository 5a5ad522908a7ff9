package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("context:\n  global_ceiling: 20000\n"), 0644))

	var reloads int32
	ceiling := make(chan int, 4)

	w, err := NewWatcher(path, func(cfg *Config) {
		atomic.AddInt32(&reloads, 1)
		ceiling <- cfg.Context.GlobalCeiling
	})
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("context:\n  global_ceiling: 18000\n"), 0644))

	select {
	case got := <-ceiling:
		if got != 18000 {
			t.Errorf("reloaded ceiling = %d, want 18000", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never reloaded after write")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: jota\n"), 0644))

	var reloads int32
	w, err := NewWatcher(path, func(cfg *Config) { atomic.AddInt32(&reloads, 1) })
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644))
	time.Sleep(400 * time.Millisecond)

	if n := atomic.LoadInt32(&reloads); n != 0 {
		t.Errorf("watcher reloaded %d times for an unrelated file", n)
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}
