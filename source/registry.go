package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Driver opens data sources from argument maps. Implementations must be
// deterministic for identical arguments within a session and safe for
// concurrent use.
type Driver interface {
	// Name is the identifier entries use to reference the driver.
	Name() string
	// Container is the kind of container the driver produces
	// (e.g. "dataframe", "ndarray", "catalog").
	Container() string
	// Open materializes a DataSource for the given arguments.
	Open(ctx context.Context, args map[string]any) (DataSource, error)
}

type registry struct {
	drivers map[string]Driver
	mu      sync.RWMutex
}

var register = &registry{
	drivers: make(map[string]Driver),
}

// Register adds a driver to the global registry.
// Returns ErrDriverExists if a driver with the same name is already
// registered. Use Replace to swap an existing driver.
// Thread-safe for concurrent registration.
func Register(d Driver) error {
	if d.Name() == "" {
		return ErrEmptyDriverName
	}

	register.mu.Lock()
	defer register.mu.Unlock()

	if _, exists := register.drivers[d.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDriverExists, d.Name())
	}

	register.drivers[d.Name()] = d
	return nil
}

// Replace installs a driver, overwriting any existing registration under
// the same name.
func Replace(d Driver) error {
	if d.Name() == "" {
		return ErrEmptyDriverName
	}

	register.mu.Lock()
	defer register.mu.Unlock()

	register.drivers[d.Name()] = d
	return nil
}

// Lookup retrieves a registered driver by name.
func Lookup(name string) (Driver, error) {
	register.mu.RLock()
	defer register.mu.RUnlock()

	d, exists := register.drivers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrDriverNotFound, name)
	}
	return d, nil
}

// Unregister removes a named driver. No-op if the driver is not registered.
func Unregister(name string) {
	register.mu.Lock()
	defer register.mu.Unlock()
	delete(register.drivers, name)
}

// Drivers returns the names of all registered drivers, sorted.
func Drivers() []string {
	register.mu.RLock()
	defer register.mu.RUnlock()

	names := make([]string, 0, len(register.drivers))
	for name := range register.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
