package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTestManagerConfig(t *testing.T) {
	cfg := TestManagerConfig(t)

	if cfg.WorkDir == "" {
		t.Fatal("WorkDir should not be empty")
	}
	if _, err := os.Stat(cfg.WorkDir); os.IsNotExist(err) {
		t.Errorf("WorkDir %s does not exist", cfg.WorkDir)
	}
	if cfg.Backend == "" {
		t.Error("Backend should be set")
	}
	if cfg.MaxHandles != 0 {
		t.Errorf("MaxHandles should be unlimited, got %d", cfg.MaxHandles)
	}
}

func TestTestManager(t *testing.T) {
	m := TestManager(t, TestManagerConfig(t))

	h, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if h == nil {
		t.Fatal("Create returned nil handle")
	}
	if m.Live() != 1 {
		t.Errorf("Live() = %d, want 1", m.Live())
	}
}

func TestCreateTestDisk(t *testing.T) {
	diskPath := filepath.Join(t.TempDir(), "nested", "test.raw")
	sizeMB := int64(10)

	CreateTestDisk(t, diskPath, sizeMB)

	info, err := os.Stat(diskPath)
	if err != nil {
		t.Fatalf("disk file should exist: %v", err)
	}

	// Sparse file reports full size
	expectedBytes := sizeMB * 1024 * 1024
	if info.Size() != expectedBytes {
		t.Errorf("disk size = %d, want %d", info.Size(), expectedBytes)
	}
}

func TestTempDisk(t *testing.T) {
	path := TempDisk(t, "a.img")

	if filepath.Base(path) != "a.img" {
		t.Errorf("TempDisk path = %q, want basename a.img", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("TempDisk should create the file: %v", err)
	}
}
