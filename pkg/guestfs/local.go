package guestfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

func init() {
	RegisterBackend(localBackend{})
}

// localBackend serves handles from the host process. Each session owns a
// private scratch directory and the open file descriptors of its drives;
// it does not interpret guest filesystems.
type localBackend struct{}

func (localBackend) Name() string {
	return DefaultBackend
}

func (b localBackend) Open(ctx context.Context, cfg OpenConfig) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, &AllocationError{Backend: b.Name(), Reason: "cancelled", Err: err}
	}

	base := cfg.WorkDir
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0755); err != nil {
		return nil, &AllocationError{Backend: b.Name(), Reason: "create work dir", Err: err}
	}

	dir, err := os.MkdirTemp(base, fmt.Sprintf("guestfs-%d-", cfg.Serial))
	if err != nil {
		return nil, &AllocationError{Backend: b.Name(), Reason: "create scratch dir", Err: err}
	}

	return &localSession{
		dir:    dir,
		mounts: make(map[string]Device),
	}, nil
}

type localSession struct {
	mu     sync.Mutex
	dir    string
	drives []Drive
	files  []*os.File
	mounts map[string]Device
}

func (s *localSession) Launch(ctx context.Context, drives []Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files := make([]*os.File, 0, len(drives))
	for _, d := range drives {
		flag := os.O_RDWR
		if d.ReadOnly {
			flag = os.O_RDONLY
		}
		f, err := os.OpenFile(d.Path, flag, 0)
		if err != nil {
			closeAll(files)
			return fmt.Errorf("open drive %s: %w", d.Path, err)
		}
		files = append(files, f)
	}

	s.drives = drives
	s.files = files
	return nil
}

func (s *localSession) Mount(ctx context.Context, dev Device, mountpoint string, readonly bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dev.Index < 0 || dev.Index >= len(s.files) {
		return fmt.Errorf("%w: %s", ErrInvalidDevice, dev)
	}
	if !readonly && s.drives[dev.Index].ReadOnly {
		return fmt.Errorf("%s is read-only", dev)
	}
	s.mounts[mountpoint] = dev
	return nil
}

func (s *localSession) Umount(ctx context.Context, mountpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.mounts[mountpoint]; !ok {
		return fmt.Errorf("%w: %s", ErrNotMounted, mountpoint)
	}
	delete(s.mounts, mountpoint)
	return nil
}

func (s *localSession) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.files {
		if s.drives[i].ReadOnly {
			continue
		}
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sync %s: %w", s.drives[i].Path, err)
		}
	}
	return nil
}

func (s *localSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := closeAll(s.files)
	s.files = nil
	s.drives = nil
	s.mounts = nil
	if rmErr := os.RemoveAll(s.dir); rmErr != nil {
		err = errors.Join(err, fmt.Errorf("remove scratch dir: %w", rmErr))
	}
	return err
}

func closeAll(files []*os.File) error {
	var errs []error
	for _, f := range files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
