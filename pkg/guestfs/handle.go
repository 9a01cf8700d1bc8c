package guestfs

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/javanstorm/guestshell/internal/timing"
	"github.com/rs/zerolog"
)

// Mount is an active mount on a launched handle.
type Mount struct {
	Device     string
	Mountpoint string
	ReadOnly   bool
}

// Handle is an independent session with a backend. A Handle is owned by its
// creator; its methods are safe for concurrent use but handles never share
// state with each other.
type Handle struct {
	serial  uint64
	id      string
	backend string
	log     zerolog.Logger
	release func(uint64)

	mu       sync.Mutex
	state    State
	session  Session
	drives   []Drive
	mounts   []Mount
	verbose  bool
	autosync bool
	trace    bool
}

func newHandle(serial uint64, id, backend string, sess Session, log zerolog.Logger, release func(uint64)) *Handle {
	return &Handle{
		serial:   serial,
		id:       id,
		backend:  backend,
		log:      log.With().Str("handle", id).Uint64("serial", serial).Logger(),
		release:  release,
		state:    StateConfig,
		session:  sess,
		autosync: true,
	}
}

// ID returns the handle's random identifier.
func (h *Handle) ID() string {
	return h.id
}

// Serial returns the handle's process-unique serial number.
func (h *Handle) Serial() uint64 {
	return h.serial
}

// Backend returns the name of the backend serving this handle.
func (h *Handle) Backend() string {
	return h.backend
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Close releases the handle's backend resources. If autosync is enabled and
// the handle was launched, pending writes are synced first. Calling Close
// more than once is safe; later calls return nil.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.state == StateClosed {
		h.mu.Unlock()
		return nil
	}

	var errs []error
	if h.state == StateReady {
		if h.autosync {
			if err := h.session.Sync(context.Background()); err != nil {
				errs = append(errs, fmt.Errorf("sync: %w", err))
			}
		}
		if err := h.umountAllLocked(context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := h.session.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close session: %w", err))
	}
	h.state = StateClosed
	h.session = nil
	h.mounts = nil
	h.mu.Unlock()

	if h.release != nil {
		h.release(h.serial)
	}
	h.log.Debug().Msg("handle closed")
	return errors.Join(errs...)
}

// AddDrive attaches a disk image. The image must exist and be readable.
// Drives can only be added before Launch.
func (h *Handle) AddDrive(path string, readonly bool) error {
	return h.addDrive(Drive{Path: path, ReadOnly: readonly, Kind: DriveDisk})
}

// AddCDROM attaches a CD-ROM image, which is always read-only.
func (h *Handle) AddCDROM(path string) error {
	return h.addDrive(Drive{Path: path, ReadOnly: true, Kind: DriveCDROM})
}

func (h *Handle) addDrive(d Drive) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateClosed:
		return ErrClosed
	case StateReady:
		return ErrAlreadyLaunched
	}

	if err := checkReadable(d.Path); err != nil {
		return fmt.Errorf("add %s: %w", d.Kind, err)
	}

	h.drives = append(h.drives, d)
	h.traceCall("add_drive", d.Path, d.Kind.String())
	return nil
}

// Drives returns a copy of the attached drives in the order added.
func (h *Handle) Drives() []Drive {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Drive(nil), h.drives...)
}

// Launch makes the attached drives available to device actions.
// Launching an already launched handle is a no-op.
func (h *Handle) Launch(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateClosed:
		return ErrClosed
	case StateReady:
		return nil
	}
	if len(h.drives) == 0 {
		return ErrNoDrives
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timer := timing.New()
	if err := h.session.Launch(ctx, append([]Drive(nil), h.drives...)); err != nil {
		return fmt.Errorf("launch: %w", err)
	}
	timer.Mark("session launch")
	h.state = StateReady

	h.traceCall("launch")
	if h.verbose {
		ev := h.log.Info().Int("drives", len(h.drives))
		for _, p := range timer.Phases() {
			ev = ev.Str(p.Name, timing.FormatDuration(p.Duration))
		}
		ev.Str("total", timing.FormatDuration(timer.Total())).Msg("handle launched")
	}
	return nil
}

// ListDevices returns the device names of the launched drives.
func (h *Handle) ListDevices() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireReady(); err != nil {
		return nil, err
	}
	devices := make([]string, len(h.drives))
	for i := range h.drives {
		devices[i] = DeviceName(i)
	}
	return devices, nil
}

// Mount attaches device at mountpoint. Devices backed by read-only drives
// are mounted read-only.
func (h *Handle) Mount(ctx context.Context, device, mountpoint string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireReady(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dev, err := ParseDevice(device)
	if err != nil {
		return err
	}
	if dev.Index < 0 || dev.Index >= len(h.drives) {
		return fmt.Errorf("%w: %s: no such drive", ErrInvalidDevice, device)
	}
	if !path.IsAbs(mountpoint) {
		return fmt.Errorf("%w: %q", ErrInvalidMountpoint, mountpoint)
	}
	mountpoint = path.Clean(mountpoint)
	for _, m := range h.mounts {
		if m.Mountpoint == mountpoint {
			return fmt.Errorf("%w: %s", ErrAlreadyMounted, mountpoint)
		}
	}

	readonly := h.drives[dev.Index].ReadOnly
	if err := h.session.Mount(ctx, dev, mountpoint, readonly); err != nil {
		return fmt.Errorf("mount %s on %s: %w", device, mountpoint, err)
	}
	h.mounts = append(h.mounts, Mount{Device: dev.String(), Mountpoint: mountpoint, ReadOnly: readonly})
	h.traceCall("mount", device, mountpoint)
	return nil
}

// Umount detaches whatever is mounted at mountpoint.
func (h *Handle) Umount(ctx context.Context, mountpoint string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireReady(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	mountpoint = path.Clean(mountpoint)
	for i, m := range h.mounts {
		if m.Mountpoint != mountpoint {
			continue
		}
		if err := h.session.Umount(ctx, mountpoint); err != nil {
			return fmt.Errorf("umount %s: %w", mountpoint, err)
		}
		h.mounts = append(h.mounts[:i], h.mounts[i+1:]...)
		h.traceCall("umount", mountpoint)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotMounted, mountpoint)
}

// UmountAll detaches every mount, most recent first.
func (h *Handle) UmountAll(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireReady(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	h.traceCall("umount_all")
	return h.umountAllLocked(ctx)
}

func (h *Handle) umountAllLocked(ctx context.Context) error {
	for len(h.mounts) > 0 {
		last := h.mounts[len(h.mounts)-1]
		if err := h.session.Umount(ctx, last.Mountpoint); err != nil {
			return fmt.Errorf("umount %s: %w", last.Mountpoint, err)
		}
		h.mounts = h.mounts[:len(h.mounts)-1]
	}
	return nil
}

// Mounts returns the active mounts in the order they were made.
func (h *Handle) Mounts() ([]Mount, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireReady(); err != nil {
		return nil, err
	}
	return append([]Mount(nil), h.mounts...), nil
}

// Sync flushes pending writes to the drives.
func (h *Handle) Sync(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.requireReady(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	h.traceCall("sync")
	return h.session.Sync(ctx)
}

// SetVerbose toggles verbose messages for this handle.
func (h *Handle) SetVerbose(v bool) error {
	return h.setOption(func() { h.verbose = v })
}

// Verbose reports whether verbose messages are enabled.
func (h *Handle) Verbose() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verbose
}

// SetAutosync toggles syncing the drives when the handle is closed.
func (h *Handle) SetAutosync(v bool) error {
	return h.setOption(func() { h.autosync = v })
}

// Autosync reports whether Close syncs the drives. Enabled by default.
func (h *Handle) Autosync() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.autosync
}

// SetTrace toggles logging of every call made on this handle.
func (h *Handle) SetTrace(v bool) error {
	return h.setOption(func() { h.trace = v })
}

// Trace reports whether call tracing is enabled.
func (h *Handle) Trace() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.trace
}

func (h *Handle) setOption(set func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == StateClosed {
		return ErrClosed
	}
	set()
	return nil
}

func (h *Handle) requireReady() error {
	switch h.state {
	case StateClosed:
		return ErrClosed
	case StateConfig:
		return ErrNotLaunched
	}
	return nil
}

// traceCall logs a call when tracing is on. Caller holds h.mu.
func (h *Handle) traceCall(name string, args ...string) {
	if !h.trace {
		return
	}
	h.log.Info().Str("call", name).Str("args", strings.Join(args, " ")).Msg("trace")
}
