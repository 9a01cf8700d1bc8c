// Package guestfs hands out independent handles to a disk-image inspection
// backend. Each Handle owns its backend session exclusively; handles never
// share mutable state, so any number of them can live side by side in one
// process.
//
// A typical caller:
//
//	g, err := guestfs.New()
//	if err != nil {
//		return err
//	}
//	defer g.Close()
//
//	if err := g.AddDrive("disk.img", true); err != nil {
//		return err
//	}
//	if err := g.Launch(ctx); err != nil {
//		return err
//	}
package guestfs

import "context"

// Backend opens sessions on behalf of handles.
// Implementations register themselves with RegisterBackend from init().
type Backend interface {
	// Name is the registry key, e.g. "local".
	Name() string

	// Open allocates the resources for one session. A failure to acquire
	// resources should be reported as an *AllocationError.
	Open(ctx context.Context, cfg OpenConfig) (Session, error)
}

// OpenConfig carries the per-handle parameters a backend needs to open a session.
type OpenConfig struct {
	// Serial is the process-unique handle serial.
	Serial uint64

	// ID is the handle's random identifier.
	ID string

	// WorkDir is the parent directory for per-session scratch space.
	// Empty means os.TempDir().
	WorkDir string
}

// Session is the backend half of a handle. A session is used by exactly one
// handle, which serializes calls into it.
type Session interface {
	// Launch makes the drives available for device operations.
	Launch(ctx context.Context, drives []Drive) error

	// Mount attaches device (an index into the launched drives plus an
	// optional partition number) at mountpoint.
	Mount(ctx context.Context, dev Device, mountpoint string, readonly bool) error

	// Umount detaches whatever is mounted at mountpoint.
	Umount(ctx context.Context, mountpoint string) error

	// Sync flushes pending writes to the drives.
	Sync(ctx context.Context) error

	// Close releases every resource held by the session.
	Close() error
}
