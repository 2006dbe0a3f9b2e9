package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, WriteDefault(path, false))

	changes := make(chan *Config, 4)
	errs := make(chan error, 4)

	w, err := Watch(context.Background(), path,
		func(c *Config) { changes <- c },
		func(err error) { errs <- err },
	)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"algorithm": "rle"}`), 0o600))

	select {
	case cfg := <-changes:
		assert.Equal(t, "rle", cfg.Algorithm)
	case err := <-errs:
		t.Fatalf("unexpected reload error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatch_ReportsInvalidReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, WriteDefault(path, false))

	changes := make(chan *Config, 4)
	errs := make(chan error, 4)

	w, err := Watch(context.Background(), path,
		func(c *Config) { changes <- c },
		func(err error) { errs <- err },
	)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`{"aggressionLevel": 99}`), 0o600))

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "aggressionLevel")
	case cfg := <-changes:
		t.Fatalf("invalid config delivered: %+v", cfg)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)
	require.NoError(t, WriteDefault(path, false))

	changes := make(chan *Config, 4)
	w, err := Watch(context.Background(), path, func(c *Config) { changes <- c }, nil)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o600))

	select {
	case cfg := <-changes:
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(3 * reloadDelay):
	}
}

func TestWatch_RequiresCallback(t *testing.T) {
	_, err := Watch(context.Background(), DefaultPath, nil, nil)
	assert.Error(t, err)
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	w, err := Watch(context.Background(), path, func(*Config) {}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatcher_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	path := filepath.Join(t.TempDir(), DefaultPath)

	w, err := Watch(ctx, path, func(*Config) {}, nil)
	require.NoError(t, err)

	cancel()
	select {
	case <-w.done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	_ = w.Close()
}
