package dataset

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestLocalPath(t *testing.T) {
	if _, ok := LocalPath(Builtin); ok {
		t.Fatal("builtin reported as a local file")
	}
	if _, ok := LocalPath("https://example.org/data/"); ok {
		t.Fatal("URL reported as a local file")
	}

	dir := t.TempDir()
	got, ok := LocalPath(dir + string(filepath.Separator))
	if !ok || got != filepath.Join(dir, "comparisons.json") {
		t.Fatalf("LocalPath(dir) = %q, %v", got, ok)
	}
}

func TestWatch_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "comparisons.json")
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte(sampleJSONC), 0o600); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, 100*time.Millisecond, func() { calls.Add(1) }) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(other, []byte("ignored"), 0o600); err != nil {
		t.Fatal(err)
	}
	for range 5 {
		if err := os.WriteFile(path, []byte(sampleJSONC), 0o600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	deadline := time.Now().Add(3 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(300 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Fatalf("onChange called %d times, want 1", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
