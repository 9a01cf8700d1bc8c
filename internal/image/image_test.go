package image

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateSparse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disks", "test.img")

	if err := CreateSparse(path, 100*1024*1024); err != nil {
		t.Fatalf("CreateSparse failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("image not created: %v", err)
	}

	// Sparse file - logical size should match requested size
	expectedSize := int64(100 * 1024 * 1024)
	if info.Size() != expectedSize {
		t.Errorf("image size = %d, want %d", info.Size(), expectedSize)
	}

	// Second call truncates to the new size
	if err := CreateSparse(path, 1024); err != nil {
		t.Fatalf("CreateSparse second call failed: %v", err)
	}
	info, err = os.Stat(path)
	if err != nil {
		t.Fatalf("stat after resize: %v", err)
	}
	if info.Size() != 1024 {
		t.Errorf("image size after resize = %d, want 1024", info.Size())
	}
}

func TestCreateSparseRejectsBadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zero.img")

	for _, size := range []int64{0, -1} {
		if err := CreateSparse(path, size); err == nil {
			t.Errorf("CreateSparse(%d) should fail", size)
		}
	}
	if Exists(path) {
		t.Error("image should not exist after rejected sizes")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present.img")

	if Exists(path) {
		t.Error("Exists should be false before creation")
	}
	if err := CreateSparse(path, 512); err != nil {
		t.Fatalf("CreateSparse failed: %v", err)
	}
	if !Exists(path) {
		t.Error("Exists should be true after creation")
	}
	if Exists(dir) {
		t.Error("Exists should be false for a directory")
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"512", 512, false},
		{"64k", 64 << 10, false},
		{"64K", 64 << 10, false},
		{"100M", 100 << 20, false},
		{"2g", 2 << 30, false},
		{"1T", 1 << 40, false},
		{" 10M ", 10 << 20, false},
		{"", 0, true},
		{"M", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-5M", 0, true},
		{"99999999999T", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSize(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSize(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
