package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "typelist.yaml")
	output := filepath.Join(dir, "typelist_gen.go")
	source := filepath.Join(dir, "shapes.go")
	require.NoError(t, os.WriteFile(manifest, []byte("version: \"1.0\"\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan []string, 8)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []string{manifest}, []string{dir}, Options{
			Delay:  100 * time.Millisecond,
			Ignore: func(p string) bool { return p == output },
			Logger: zerolog.Nop(),
		}, func(changed []string) { calls <- changed })
	}()

	// Give the watcher time to register.
	time.Sleep(200 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(manifest, []byte("version: \"1.1\"\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(source, []byte("package shapes\n"), 0o644))
	require.NoError(t, os.WriteFile(output, []byte("package shapes\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case changed := <-calls:
		assert.Equal(t, []string{source, manifest}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case changed := <-calls:
		t.Fatalf("unexpected second batch %v", changed)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunSerializesCallbacks(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "typelist.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("a"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var running, peak, calls int32
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, []string{manifest}, nil, Options{Delay: 20 * time.Millisecond, Logger: zerolog.Nop()}, func([]string) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(400 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			atomic.AddInt32(&calls, 1)
		})
	}()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(manifest, []byte("b"), 0o644))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, os.WriteFile(manifest, []byte("c"), 0o644))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak), "onChange calls overlapped")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestFSWatcherCloseUnblocksLoop(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFSWatcher()
	require.NoError(t, err)
	require.NoError(t, fw.Add(dir))

	// Overfill the event buffer without reading it.
	for i := 0; i < 200; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f.yaml"), []byte{byte(i)}, 0o644))
	}
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, fw.Close())

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-fw.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event loop did not exit after Close")
		}
	}
}

func TestFSWatcherOps(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFSWatcher()
	require.NoError(t, err)
	defer fw.Close()
	require.NoError(t, fw.Add(dir))

	path := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	select {
	case ev := <-fw.Events():
		assert.Equal(t, path, ev.Path)
		assert.NotZero(t, ev.Op&(OpCreate|OpWrite))
		assert.False(t, ev.Time.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
	}
}
