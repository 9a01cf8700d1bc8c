// Package testutil provides common test helpers for guestshell tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/javanstorm/guestshell/internal/image"
	"github.com/javanstorm/guestshell/pkg/guestfs"
)

// TestManagerConfig returns a ManagerConfig suitable for testing.
// WorkDir uses t.TempDir(), ensuring automatic cleanup.
func TestManagerConfig(t *testing.T) guestfs.ManagerConfig {
	t.Helper()

	return guestfs.ManagerConfig{
		Backend: guestfs.DefaultBackend,
		WorkDir: t.TempDir(),
	}
}

// TestManager creates a manager from cfg and closes all of its handles
// when the test finishes.
func TestManager(t *testing.T, cfg guestfs.ManagerConfig) *guestfs.Manager {
	t.Helper()

	m, err := guestfs.NewManager(cfg)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	t.Cleanup(func() {
		if err := m.CloseAll(); err != nil {
			t.Errorf("failed to close handles: %v", err)
		}
	})
	return m
}

// CreateTestDisk creates a sparse disk file at the given path with the specified size.
func CreateTestDisk(t *testing.T, path string, sizeMB int64) {
	t.Helper()

	if err := image.CreateSparse(path, sizeMB*1024*1024); err != nil {
		t.Fatalf("failed to create test disk at %s: %v", path, err)
	}
}

// TempDisk creates a 1MB sparse disk in a temp directory and returns its path.
func TempDisk(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	CreateTestDisk(t, path, 1)
	return path
}
