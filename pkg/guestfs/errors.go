package guestfs

import (
	"errors"
	"fmt"
)

// ErrAllocation matches every *AllocationError via errors.Is.
var ErrAllocation = errors.New("guestfs: cannot allocate handle")

// Lifecycle errors
var (
	ErrClosed          = errors.New("guestfs: handle is closed")
	ErrAlreadyLaunched = errors.New("guestfs: handle is already launched")
	ErrNotLaunched     = errors.New("guestfs: handle is not launched, call launch first")
	ErrNoDrives        = errors.New("guestfs: no drives added to the handle")
)

// Device and mount errors
var (
	ErrInvalidDevice     = errors.New("guestfs: invalid device name")
	ErrInvalidMountpoint = errors.New("guestfs: mountpoint must be an absolute path")
	ErrAlreadyMounted    = errors.New("guestfs: mountpoint is already in use")
	ErrNotMounted        = errors.New("guestfs: nothing mounted at mountpoint")
)

// AllocationError is returned when a new handle cannot be produced, either
// because the manager's handle limit is reached or because the backend
// failed to acquire the resources a session needs.
type AllocationError struct {
	Backend string
	Reason  string
	Err     error
}

func (e *AllocationError) Error() string {
	msg := fmt.Sprintf("guestfs: %s backend: cannot allocate handle: %s", e.Backend, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrAllocation.
func (e *AllocationError) Is(target error) bool {
	return target == ErrAllocation
}

// UnknownBackendError is returned when a backend name is not registered.
type UnknownBackendError struct {
	Name string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("guestfs: unknown backend %q, available: %v", e.Name, Backends())
}
