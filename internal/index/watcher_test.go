package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type changeLog struct {
	mu    sync.Mutex
	calls [][]string
}

func (c *changeLog) record(_ context.Context, changed []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, changed)
}

func (c *changeLog) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatcher_WriteTriggersCallback(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "links.txt.zst")
	_ = os.WriteFile(input, []byte("v1"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := &changeLog{}
	go Watch(ctx, []string{input}, 50*time.Millisecond, quietLogger(), log.record)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(input, []byte("v2"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return log.count() >= 1
	}, "write to watched input did not trigger callback")
}

func TestWatcher_RenameIntoPlace(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "pages.txt.zst")
	_ = os.WriteFile(input, []byte("v1"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := &changeLog{}
	go Watch(ctx, []string{input}, 50*time.Millisecond, quietLogger(), log.record)
	time.Sleep(100 * time.Millisecond)

	tmp := filepath.Join(dir, "pages.tmp")
	_ = os.WriteFile(tmp, []byte("v2"), 0o644)
	_ = os.Rename(tmp, input)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return log.count() >= 1
	}, "rename over watched input did not trigger callback")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "redirects.txt.zst")
	_ = os.WriteFile(input, []byte("v1"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := &changeLog{}
	go Watch(ctx, []string{input}, 20*time.Millisecond, quietLogger(), log.record)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)

	if n := log.count(); n != 0 {
		t.Errorf("callback ran %d times for an unrelated file", n)
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "links.txt.zst")
	_ = os.WriteFile(input, []byte("v0"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := &changeLog{}
	go Watch(ctx, []string{input}, 300*time.Millisecond, quietLogger(), log.record)
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(input, []byte{byte('a' + i)}, 0o644)
		time.Sleep(10 * time.Millisecond)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return log.count() >= 1
	}, "burst did not trigger callback")
	time.Sleep(500 * time.Millisecond)
	if n := log.count(); n != 1 {
		t.Errorf("callback ran %d times, want 1 for a single burst", n)
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "links.txt.zst")
	_ = os.WriteFile(input, nil, 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, []string{input}, 0, quietLogger(), nil) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
