package guestfs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// nextSerial is shared by every manager so serials stay unique per process.
var nextSerial atomic.Uint64

// ManagerConfig holds configuration for a handle manager.
type ManagerConfig struct {
	// Backend is the registered backend name (empty = DefaultBackend).
	Backend string

	// MaxHandles caps the number of live handles (0 = unlimited).
	MaxHandles int

	// WorkDir is the parent directory for per-handle scratch space.
	WorkDir string

	// Logger receives handle lifecycle events. Nil disables logging.
	Logger *zerolog.Logger
}

// Manager allocates handles. It is safe for concurrent use.
type Manager struct {
	cfg     ManagerConfig
	backend Backend
	log     zerolog.Logger

	mu      sync.Mutex
	live    map[uint64]*Handle
	pending int
}

// NewManager creates a handle manager for the configured backend.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultBackend
	}
	if cfg.MaxHandles < 0 {
		return nil, fmt.Errorf("guestfs: max handles must not be negative, got %d", cfg.MaxHandles)
	}

	backend, err := GetBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("backend", cfg.Backend).Logger()
	}

	return &Manager{
		cfg:     cfg,
		backend: backend,
		log:     log,
		live:    make(map[uint64]*Handle),
	}, nil
}

var (
	defaultManager     *Manager
	defaultManagerErr  error
	defaultManagerOnce sync.Once
)

// Default returns the process-wide manager used by New.
func Default() (*Manager, error) {
	defaultManagerOnce.Do(func() {
		defaultManager, defaultManagerErr = NewManager(ManagerConfig{})
	})
	return defaultManager, defaultManagerErr
}

// New creates a handle on the default manager.
func New() (*Handle, error) {
	m, err := Default()
	if err != nil {
		return nil, err
	}
	return m.Create()
}

// Create allocates a new, independent handle.
func (m *Manager) Create() (*Handle, error) {
	return m.CreateContext(context.Background())
}

// CreateContext allocates a new handle. The context bounds the backend's
// resource acquisition only; it is not retained by the handle.
func (m *Manager) CreateContext(ctx context.Context) (*Handle, error) {
	if err := m.reserve(); err != nil {
		return nil, err
	}

	serial := nextSerial.Add(1)
	id := uuid.NewString()

	sess, err := m.backend.Open(ctx, OpenConfig{
		Serial:  serial,
		ID:      id,
		WorkDir: m.cfg.WorkDir,
	})
	if err != nil {
		m.unreserve()
		var allocErr *AllocationError
		if errors.As(err, &allocErr) {
			return nil, err
		}
		return nil, &AllocationError{Backend: m.cfg.Backend, Reason: "open session", Err: err}
	}

	h := newHandle(serial, id, m.cfg.Backend, sess, m.log, m.release)

	m.mu.Lock()
	m.pending--
	m.live[serial] = h
	m.mu.Unlock()

	m.log.Debug().Str("handle", id).Uint64("serial", serial).Msg("handle created")
	return h, nil
}

// reserve claims a slot under the handle limit.
func (m *Manager) reserve() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxHandles > 0 && len(m.live)+m.pending >= m.cfg.MaxHandles {
		return &AllocationError{
			Backend: m.cfg.Backend,
			Reason:  fmt.Sprintf("handle limit of %d reached", m.cfg.MaxHandles),
		}
	}
	m.pending++
	return nil
}

func (m *Manager) unreserve() {
	m.mu.Lock()
	m.pending--
	m.mu.Unlock()
}

// release drops a closed handle from the live set.
func (m *Manager) release(serial uint64) {
	m.mu.Lock()
	delete(m.live, serial)
	m.mu.Unlock()
}

// Live returns the number of live handles.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Handles returns the live handles ordered by serial.
func (m *Manager) Handles() []*Handle {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.live))
	for _, h := range m.live {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].Serial() < handles[j].Serial()
	})
	return handles
}

// CloseAll closes every live handle and returns the joined close errors.
func (m *Manager) CloseAll() error {
	var errs []error
	for _, h := range m.Handles() {
		if err := h.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close handle %d: %w", h.Serial(), err))
		}
	}
	return errors.Join(errs...)
}

// BackendName returns the name of the manager's backend.
func (m *Manager) BackendName() string {
	return m.cfg.Backend
}
