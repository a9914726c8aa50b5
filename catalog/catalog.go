package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/strataflow/catalog/observability"
	"github.com/strataflow/catalog/persist"
	"github.com/strataflow/catalog/source"
)

// EntryInfo summarizes a registered entry for listings.
type EntryInfo struct {
	Name      string
	Container string
}

// Catalog manages named entries. Each registered entry is wrapped in a
// Handle that inherits the catalog's store, persistence mode and observer.
// Thread-safe for concurrent access.
type Catalog struct {
	name     string
	mode     persist.Mode
	store    persist.Store
	observer observability.Observer
	metadata map[string]any

	mu      sync.RWMutex
	handles map[string]*Handle
}

// Option configures a Catalog at construction.
type Option func(*Catalog)

// WithCatalogStore sets the persistence store inherited by all handles.
func WithCatalogStore(s persist.Store) Option {
	return func(c *Catalog) { c.store = s }
}

// WithCatalogMode sets the default persistence mode inherited by all
// handles.
func WithCatalogMode(m persist.Mode) Option {
	return func(c *Catalog) { c.mode = m }
}

// WithCatalogObserver sets the observer inherited by all handles.
func WithCatalogObserver(o observability.Observer) Option {
	return func(c *Catalog) { c.observer = o }
}

// WithCatalogMetadata attaches metadata to the catalog.
func WithCatalogMetadata(md map[string]any) Option {
	return func(c *Catalog) { c.metadata = md }
}

// New creates an empty Catalog.
func New(name string, opts ...Option) *Catalog {
	c := &Catalog{
		name:     name,
		mode:     persist.ModeDefault,
		observer: observability.NoOpObserver{},
		handles:  make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register wraps an entry in a Handle and adds it to the catalog.
// Returns ErrEntryExists if the name is already taken.
func (c *Catalog) Register(e Entry) error {
	if e.Name() == "" {
		return ErrEmptyEntryName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.handles[e.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, e.Name())
	}

	c.handles[e.Name()] = c.wrap(e)
	return nil
}

// Replace swaps an existing entry's definition. The old handle, including
// its cached default source, is discarded; the next access rebuilds.
func (c *Catalog) Replace(e Entry) error {
	if e.Name() == "" {
		return ErrEmptyEntryName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.handles[e.Name()]; !exists {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, e.Name())
	}

	c.handles[e.Name()] = c.wrap(e)
	return nil
}

// Unregister removes a named entry.
func (c *Catalog) Unregister(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.handles[name]; !exists {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	delete(c.handles, name)
	return nil
}

// Get retrieves a named entry's handle.
func (c *Catalog) Get(name string) (*Handle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h, exists := c.handles[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	return h, nil
}

// List returns information about all registered entries, sorted by name.
// Entries whose driver cannot be resolved report an empty container.
func (c *Catalog) List() []EntryInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]EntryInfo, 0, len(c.handles))
	for name, h := range c.handles {
		container := ""
		if desc, err := h.entry.Describe(); err == nil {
			container = desc.Container
		}
		infos = append(infos, EntryInfo{Name: name, Container: container})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

func (c *Catalog) wrap(e Entry) *Handle {
	return NewHandle(e,
		WithStore(c.store),
		WithMode(c.mode),
		WithHandleObserver(c.observer),
	)
}

// Catalog doubles as a DataSource with container "catalog", so an entry
// resolving to a nested catalog can forward enumeration and item access.

func (c *Catalog) Name() string      { return c.name }
func (c *Catalog) Container() string { return "catalog" }

func (c *Catalog) Token() string {
	return source.TokenFor("catalog", map[string]any{"name": c.name})
}

func (c *Catalog) Metadata() source.Metadata {
	return source.Metadata{Extra: c.metadata}
}

// Names lists the catalog's entry names, sorted.
func (c *Catalog) Names(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.handles))
	for name := range c.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Item returns the handle for a named entry.
func (c *Catalog) Item(_ context.Context, key string) (any, error) {
	h, err := c.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", source.ErrItemNotFound, key)
	}
	return h, nil
}

// Attrs lists the catalog's entry names for directory-style listings.
func (c *Catalog) Attrs() []string {
	names, _ := c.Names(context.Background())
	return names
}

// nestedEntry exposes an existing Catalog as an entry of another catalog.
type nestedEntry struct {
	cat         *Catalog
	description string
}

// NewNestedEntry creates an Entry whose source is the given catalog.
// Opening it returns the catalog itself; its container is "catalog", so
// handle iteration is permitted.
func NewNestedEntry(cat *Catalog, description string) Entry {
	return &nestedEntry{cat: cat, description: description}
}

func (e *nestedEntry) Name() string { return e.cat.Name() }

func (e *nestedEntry) Describe() (Description, error) {
	return Description{
		Name:           e.cat.Name(),
		Container:      "catalog",
		Description:    e.description,
		DirectAccess:   DirectAccessForbid,
		UserParameters: nil,
	}, nil
}

func (e *nestedEntry) DescribeOpen(_ map[string]any) (OpenDescription, error) {
	return OpenDescription{
		Driver:       "catalog",
		Container:    "catalog",
		Description:  e.description,
		DirectAccess: DirectAccessForbid,
		Metadata:     e.cat.metadata,
		Args:         map[string]any{"name": e.cat.Name()},
	}, nil
}

func (e *nestedEntry) Get(_ context.Context, _ map[string]any) (source.DataSource, error) {
	return e.cat, nil
}
