// Package image creates raw disk images on the host.
package image

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CreateSparse creates (or truncates) a raw image of the given size in bytes.
// The file is sparse, so no blocks are allocated up front.
func CreateSparse(path string, size int64) error {
	if size <= 0 {
		return fmt.Errorf("image size must be positive, got %d", size)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	defer f.Close()

	// Truncate creates a sparse file on Linux/macOS
	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("size image: %w", err)
	}
	return nil
}

// Exists checks if an image exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ParseSize parses sizes such as "512", "64k", "100M" or "2G".
// Suffixes are binary multiples and case-insensitive.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	mult := int64(1)
	switch strings.ToLower(s[len(s)-1:]) {
	case "k":
		mult = 1 << 10
	case "m":
		mult = 1 << 20
	case "g":
		mult = 1 << 30
	case "t":
		mult = 1 << 40
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive, got %d", n)
	}
	if n > (1<<62)/mult {
		return 0, fmt.Errorf("size %q is too large", s)
	}
	return n * mult, nil
}
