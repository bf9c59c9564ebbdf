package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

var scriptExts = []string{".json", ".js"}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, scriptExts, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, nil, []string{"[unclosed"}, nil, func([]string) {}); err == nil {
		t.Fatal("expected glob compile error")
	}
}

func waitFor(t *testing.T, ch <-chan []string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-ch:
			if slices.Contains(paths, want) {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, scriptExts, []string{"node_modules"}, []string{"*.min.js"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	descriptor := filepath.Join(tmpDir, "app.json")
	if err := os.WriteFile(descriptor, []byte(`{"a": "<% let x = 1 %>"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, descriptor)

	excluded := filepath.Join(tmpDir, "vendor.min.js")
	other := filepath.Join(tmpDir, "notes.txt")
	_ = os.WriteFile(excluded, []byte("x"), 0o644)
	_ = os.WriteFile(other, []byte("x"), 0o644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if p == excluded || p == other {
				t.Errorf("excluded file triggered event: %s", p)
			}
		}
	case <-time.After(500 * time.Millisecond):
	}

	subdir := filepath.Join(tmpDir, "pages")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(subdir, "helper.js")
	if err := os.WriteFile(nested, []byte("let y = 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, nested)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, scriptExts, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.js")
	newPath := filepath.Join(tmpDir, "new.js")
	if err := os.WriteFile(oldPath, []byte("let a = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			if slices.Contains(paths, oldPath) || slices.Contains(paths, newPath) {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_Filters(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, []string{"JSON", ".js"}, []string{".git"}, []string{"*.min.js"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	tests := []struct {
		path    string
		exclude bool
	}{
		{"app.json", false},
		{"APP.JSON", false},
		{"lib/util.js", false},
		{"lib/util.min.js", true},
		{"README.md", true},
	}
	for _, tt := range tests {
		if got := w.shouldExcludeFile(tt.path); got != tt.exclude {
			t.Errorf("shouldExcludeFile(%q) = %v, want %v", tt.path, got, tt.exclude)
		}
	}
	if !w.shouldExcludeDir("/repo/.git") {
		t.Error("expected .git to be excluded")
	}
}

func TestWatcher_DebounceBatchesChanges(t *testing.T) {
	batches := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, nil, nil, nil, func(paths []string) {
		batches <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.scheduleChange("b.json")
	w.scheduleChange("a.json")
	w.scheduleChange("b.json")

	select {
	case paths := <-batches:
		if !slices.Equal(paths, []string{"a.json", "b.json"}) {
			t.Fatalf("expected one sorted batch, got %v", paths)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced batch")
	}
}
