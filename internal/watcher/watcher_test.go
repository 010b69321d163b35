package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/nativepage/internal/watcher"
)

func onlyC(path string) bool {
	return strings.HasSuffix(path, ".c")
}

func startWatcher(t *testing.T, root string) <-chan []string {
	t.Helper()
	w, err := watcher.New(watcher.Config{
		Root:        root,
		DebounceDur: 50 * time.Millisecond,
		Filter:      onlyC,
	})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange
}

func receive(t *testing.T, onChange <-chan []string) []string {
	t.Helper()
	select {
	case batch := <-onChange:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("expected notification but got timeout")
		return nil
	}
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.c")
	require.NoError(t, os.WriteFile(src, []byte("int x;"), 0o644))

	onChange := startWatcher(t, dir)

	// Rapid writes should coalesce into a single batch
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(src, []byte(fmt.Sprintf("int x%d;", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, []string{src}, receive(t, onChange))

	select {
	case <-onChange:
		t.Fatal("unexpected second notification")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_BatchesDistinctFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.c")
	b := filepath.Join(dir, "b.c")

	onChange := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(b, []byte("int b;"), 0o644))
	require.NoError(t, os.WriteFile(a, []byte("int a;"), 0o644))

	require.Equal(t, []string{a, b}, receive(t, onChange))
}

func TestWatcher_IgnoresFilteredFiles(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o644))

	onChange := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(other, []byte("other content"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for filtered files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_Subdirectories(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib")
	require.NoError(t, os.Mkdir(lib, 0o755))

	onChange := startWatcher(t, dir)

	src := filepath.Join(lib, "list.c")
	require.NoError(t, os.WriteFile(src, []byte("struct list;"), 0o644))
	require.Equal(t, []string{src}, receive(t, onChange))
}

func TestWatcher_NewDirectory(t *testing.T) {
	dir := t.TempDir()
	onChange := startWatcher(t, dir)

	sub := filepath.Join(dir, "net")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the watcher time to add the new directory
	time.Sleep(100 * time.Millisecond)

	src := filepath.Join(sub, "sock.c")
	require.NoError(t, os.WriteFile(src, []byte("int fd;"), 0o644))

	require.Eventually(t, func() bool {
		select {
		case batch := <-onChange:
			for _, p := range batch {
				if p == src {
					return true
				}
			}
		default:
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_SkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".git")
	require.NoError(t, os.Mkdir(hidden, 0o755))

	onChange := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(hidden, "x.c"), []byte("int x;"), 0o644))

	select {
	case <-onChange:
		t.Fatal("should not notify for hidden directories")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()

	w, err := watcher.New(watcher.DefaultConfig(dir))
	require.NoError(t, err, "failed to create watcher")

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")

	// Stop should not hang or panic
	done := make(chan struct{})
	go func() {
		err := w.Stop()
		assert.NoError(t, err, "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}

	require.NoError(t, w.Stop())

	select {
	case _, ok := <-onChange:
		require.False(t, ok, "channel should be closed after Stop")
	case <-time.After(1 * time.Second):
		t.Fatal("channel not closed after Stop")
	}
}

func TestWatcher_StartMissingRoot(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	_, err = w.Start()
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/src")

	assert.Equal(t, "/src", cfg.Root)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDur)
	assert.Nil(t, cfg.Filter)
}
