package devwatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherDebouncesBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.cpp")
	require.NoError(t, os.WriteFile(file, []byte("// v1"), 0o644))

	rebuilds := make(chan int, 8)
	w, err := New(dir, 50*time.Millisecond, func(changed []string) {
		rebuilds <- len(changed)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(file, []byte("// edit"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case n := <-rebuilds:
		assert.GreaterOrEqual(t, n, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a debounced rebuild callback")
	}

	select {
	case <-rebuilds:
		t.Fatal("expected the burst of writes to collapse into a single rebuild")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherIgnoresPackedArtifacts(t *testing.T) {
	dir := t.TempDir()

	rebuilds := make(chan int, 4)
	w, err := New(dir, 20*time.Millisecond, func(changed []string) {
		rebuilds <- len(changed)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.pbo"), []byte("x"), 0o644))

	select {
	case <-rebuilds:
		t.Fatal("a .pbo write should not trigger a rebuild")
	case <-time.After(150 * time.Millisecond):
	}
}
