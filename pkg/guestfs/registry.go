package guestfs

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultBackend is the backend used when none is configured.
const DefaultBackend = "local"

var (
	backends     = make(map[string]Backend)
	backendsLock sync.RWMutex
)

// RegisterBackend adds a backend to the registry.
// It panics if a backend with the same name is already registered.
func RegisterBackend(b Backend) {
	backendsLock.Lock()
	defer backendsLock.Unlock()

	name := b.Name()
	if _, dup := backends[name]; dup {
		panic(fmt.Sprintf("guestfs: backend %q registered twice", name))
	}
	backends[name] = b
}

// GetBackend returns a registered backend by name.
func GetBackend(name string) (Backend, error) {
	backendsLock.RLock()
	defer backendsLock.RUnlock()

	b, ok := backends[name]
	if !ok {
		return nil, &UnknownBackendError{Name: name}
	}
	return b, nil
}

// Backends returns the names of all registered backends, sorted.
func Backends() []string {
	backendsLock.RLock()
	defer backendsLock.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
