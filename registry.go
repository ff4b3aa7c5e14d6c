package basicfit

import (
	"fmt"
	"sort"
	"sync"

	"github.com/infodancer/basicfit/errors"
)

// StoreConfig selects and configures a store backend.
type StoreConfig struct {
	// Type is the registered backend name (e.g., "file", "sqlite", "redis").
	Type string

	// Path is the backend location: a directory for "file", a database
	// file for "sqlite". Unused by network backends.
	Path string

	// Namespace isolates this installation's keys. Defaults to DefaultNamespace.
	Namespace string

	// Options contains backend-specific settings.
	Options map[string]string
}

// StoreFactory opens a store from its configuration.
type StoreFactory func(config StoreConfig) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]StoreFactory)
)

// RegisterStore makes a backend available under name. It is intended to be
// called from a backend package's init function and panics on duplicates.
func RegisterStore(name string, factory StoreFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("basicfit: RegisterStore factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("basicfit: RegisterStore called twice for " + name)
	}
	registry[name] = factory
}

// OpenStore opens the backend named by config.Type.
// Returns errors.ErrStoreNotRegistered if no backend has that name.
func OpenStore(config StoreConfig) (Store, error) {
	registryMu.RLock()
	factory, ok := registry[config.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrStoreNotRegistered, config.Type)
	}
	if config.Namespace == "" {
		config.Namespace = DefaultNamespace
	}
	return factory(config)
}

// StoreTypes returns the sorted names of all registered backends.
func StoreTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
