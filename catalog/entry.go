// Package catalog models named, lazily-materialized references to data
// sources. An Entry describes and opens one source; a Handle wraps an
// Entry with the persistence decision applied on every open: return the
// freshly built source, a previously persisted replica, or a replica
// refreshed in place, according to the effective persistence mode and
// the staleness policy.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/strataflow/catalog/observability"
	"github.com/strataflow/catalog/persist"
	"github.com/strataflow/catalog/source"
)

// Entry is the contract concrete entry variants implement. Get must be
// deterministic for identical parameters within a session and must ignore
// the persistence store entirely; the store decision belongs to Handle.
type Entry interface {
	// Name returns the entry's name, unique within its owning catalog.
	Name() string
	// Describe returns the entry's fixed-shape description record.
	Describe() (Description, error)
	// DescribeOpen returns how the source would be materialized for the
	// given user parameters.
	DescribeOpen(userParams map[string]any) (OpenDescription, error)
	// Get builds the live data source for the given user parameters.
	Get(ctx context.Context, userParams map[string]any) (source.DataSource, error)
}

// MetadataProvider is satisfied by entry variants that carry catalog
// metadata (LocalEntry does). Handle.Plots uses it.
type MetadataProvider interface {
	Metadata() map[string]any
}

// dirOps is the fixed set of entry-level operation names reported by Dir
// alongside the default source's own attributes.
var dirOps = []string{"Describe", "DescribeOpen", "Get", "HasBeenPersisted", "Plots"}

// Handle wraps an Entry with the persistence-cache decision, a lazily
// built default source for delegation, and a build-once display view.
// All methods are safe for concurrent use.
type Handle struct {
	entry    Entry
	store    persist.Store
	mode     persist.Mode
	observer observability.Observer
	now      func() time.Time

	group singleflight.Group

	mu            sync.Mutex
	defaultSource source.DataSource

	viewOnce sync.Once
	view     *View
	viewErr  error
}

// HandleOption configures a Handle after construction.
type HandleOption func(*Handle)

// WithStore sets the persistence store consulted on open. A nil store
// disables persistence entirely.
func WithStore(s persist.Store) HandleOption {
	return func(h *Handle) { h.store = s }
}

// WithMode sets the handle's default persistence mode, normally inherited
// from the owning catalog.
func WithMode(m persist.Mode) HandleOption {
	return func(h *Handle) { h.mode = m }
}

// WithHandleObserver overrides the default NoOpObserver.
func WithHandleObserver(o observability.Observer) HandleOption {
	return func(h *Handle) { h.observer = o }
}

// WithHandleClock overrides the handle's time source. Intended for tests.
func WithHandleClock(now func() time.Time) HandleOption {
	return func(h *Handle) { h.now = now }
}

// NewHandle wraps an entry. With no options the handle has no store and
// mode persist.ModeDefault.
func NewHandle(e Entry, opts ...HandleOption) *Handle {
	h := &Handle{
		entry:    e,
		mode:     persist.ModeDefault,
		observer: observability.NoOpObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the wrapped entry's name.
func (h *Handle) Name() string { return h.entry.Name() }

// Entry returns the wrapped entry.
func (h *Handle) Entry() Entry { return h.entry }

// Mode returns the handle's default persistence mode.
func (h *Handle) Mode() persist.Mode { return h.mode }

// openConfig collects Open options before validation.
type openConfig struct {
	params     map[string]any
	persist    string
	persistSet bool
}

// OpenOption configures a single Open call.
type OpenOption func(*openConfig)

// WithParams supplies user parameters for the open.
func WithParams(p map[string]any) OpenOption {
	return func(c *openConfig) { c.params = p }
}

// WithPersist overrides the handle's persistence mode for this call.
// The value must be one of "always", "never" or "default"; anything else
// fails the open with persist.ErrInvalidMode before the store is touched.
func WithPersist(mode string) OpenOption {
	return func(c *openConfig) {
		c.persist = mode
		c.persistSet = true
	}
}

// Open materializes the entry's data source and applies the persistence
// decision: the live source when no replica exists or the effective mode
// is never; otherwise the persisted replica, kept or refreshed per the
// staleness policy. The live source is always built first, even when a
// replica ends up being returned.
func (h *Handle) Open(ctx context.Context, opts ...OpenOption) (source.DataSource, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	mode := h.mode
	if cfg.persistSet {
		m, err := persist.ParseMode(cfg.persist)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	h.emit(ctx, EventOpenStart, observability.LevelVerbose, map[string]any{
		"entry": h.Name(),
		"mode":  mode.String(),
	})

	s, err := h.entry.Get(ctx, cfg.params)
	if err != nil {
		h.emit(ctx, EventOpenError, observability.LevelError, map[string]any{
			"entry": h.Name(),
			"error": err.Error(),
		})
		return nil, fmt.Errorf("open %s: %w", h.Name(), err)
	}

	if h.store == nil || mode == persist.ModeNever {
		h.emit(ctx, EventOpenLive, observability.LevelVerbose, map[string]any{
			"entry": h.Name(),
		})
		return s, nil
	}

	persisted, err := h.store.HasBeenPersisted(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", h.Name(), err)
	}
	if !persisted {
		h.emit(ctx, EventOpenLive, observability.LevelVerbose, map[string]any{
			"entry": h.Name(),
		})
		return s, nil
	}

	replica, err := h.store.GetPersisted(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", h.Name(), err)
	}

	if persist.Decide(mode, replica.Metadata(), h.now()) == persist.OutcomeKeep {
		h.emit(ctx, EventReplicaHit, observability.LevelInfo, map[string]any{
			"entry": h.Name(),
			"token": replica.Token(),
		})
		return replica, nil
	}

	refreshed, err := h.store.Refresh(ctx, replica)
	if err != nil {
		return nil, fmt.Errorf("open %s: refresh: %w", h.Name(), err)
	}
	h.emit(ctx, EventReplicaRefresh, observability.LevelInfo, map[string]any{
		"entry": h.Name(),
		"token": refreshed.Token(),
	})
	return refreshed, nil
}

// DefaultSource returns the entry's default-parameter source, building it
// at most once for the handle's lifetime. The build goes through Open with
// no parameters and no mode override, so the persistence decision applies.
func (h *Handle) DefaultSource(ctx context.Context) (source.DataSource, error) {
	h.mu.Lock()
	if h.defaultSource != nil {
		ds := h.defaultSource
		h.mu.Unlock()
		return ds, nil
	}
	h.mu.Unlock()

	v, err, _ := h.group.Do("default", func() (any, error) {
		ds, err := h.Open(ctx)
		if err != nil {
			return nil, err
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		if h.defaultSource == nil {
			h.defaultSource = ds
		}
		return h.defaultSource, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(source.DataSource), nil
}

// Attr resolves a named attribute. The fixed entry-level operations are
// returned directly as bound functions and are never forwarded; any other
// name is looked up on the lazily built default source. Lookup failures
// on the source propagate unchanged.
func (h *Handle) Attr(ctx context.Context, name string) (any, error) {
	switch name {
	case "Describe":
		return h.entry.Describe, nil
	case "DescribeOpen":
		return h.entry.DescribeOpen, nil
	case "Get":
		return h.entry.Get, nil
	case "HasBeenPersisted":
		return h.HasBeenPersisted, nil
	case "Plots":
		return h.Plots, nil
	}

	ds, err := h.DefaultSource(ctx)
	if err != nil {
		return nil, err
	}
	if g, ok := ds.(source.AttrGetter); ok {
		return g.Attr(name)
	}
	return nil, fmt.Errorf("%w: %s", source.ErrAttrNotFound, name)
}

// Item resolves keyed access through the default source. With multiple
// keys the first applies to the default source and each remaining key
// applies to the previous result's own item access; a single key is a
// plain lookup.
func (h *Handle) Item(ctx context.Context, keys ...string) (any, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	ds, err := h.DefaultSource(ctx)
	if err != nil {
		return nil, err
	}
	getter, ok := ds.(source.ItemGetter)
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrNoItemAccess, h.Name())
	}

	current, err := getter.Item(ctx, keys[0])
	if err != nil {
		return nil, err
	}

	for _, key := range keys[1:] {
		g, ok := current.(source.ItemGetter)
		if !ok {
			return nil, fmt.Errorf("%w: %s", source.ErrNoItemAccess, key)
		}
		current, err = g.Item(ctx, key)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// Names lists the contents of a nested-catalog entry by forwarding to the
// default source's enumeration. Entries whose described container is not
// "catalog" fail with ErrNotIterable.
func (h *Handle) Names(ctx context.Context) ([]string, error) {
	desc, err := h.entry.Describe()
	if err != nil {
		return nil, err
	}
	if desc.Container != "catalog" {
		return nil, fmt.Errorf("%w: %s", ErrNotIterable, h.Name())
	}

	ds, err := h.DefaultSource(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := ds.(source.Enumerable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotIterable, h.Name())
	}
	return e.Names(ctx)
}

// Dir reports the names available on the handle: the fixed entry-level
// operations plus the default source's introspected attributes, sorted.
func (h *Handle) Dir(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool, len(dirOps))
	for _, op := range dirOps {
		seen[op] = true
	}

	ds, err := h.DefaultSource(ctx)
	if err != nil {
		return nil, err
	}
	if in, ok := ds.(source.Introspector); ok {
		for _, attr := range in.Attrs() {
			seen[attr] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// HasBeenPersisted reports whether the source built from the given
// parameters has a persisted replica. Always false without a store.
func (h *Handle) HasBeenPersisted(ctx context.Context, userParams map[string]any) (bool, error) {
	if h.store == nil {
		return false, nil
	}
	s, err := h.entry.Get(ctx, userParams)
	if err != nil {
		return false, err
	}
	return h.store.HasBeenPersisted(ctx, s)
}

// Plots lists the quick-plot names declared in the entry's metadata.
func (h *Handle) Plots() []string {
	mp, ok := h.entry.(MetadataProvider)
	if !ok {
		return nil
	}
	plots, ok := mp.Metadata()["plots"].(map[string]any)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(plots))
	for name := range plots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Handle) emit(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	h.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: h.now(),
		Source:    "catalog.Handle",
		Data:      data,
	})
}
