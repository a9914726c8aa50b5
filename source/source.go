// Package source defines the data-source contract produced by catalog
// entries, the capability interfaces a source may additionally satisfy,
// and the global driver registry used to open sources by name.
package source

import (
	"context"
	"time"
)

// Metadata carries the persistence-relevant attributes of a materialized
// source. TTL of zero means a persisted replica of the source never expires.
type Metadata struct {
	TTL       time.Duration  // replica expiry window; 0 = never expires
	Timestamp time.Time      // creation time of the persisted replica
	Extra     map[string]any // driver- or catalog-supplied metadata
}

// DataSource is a materialized data source produced by opening a catalog
// entry. Token returns a deterministic identity for the parameterization
// that produced the source; two sources opened from the same driver with
// the same arguments share a token.
type DataSource interface {
	Name() string
	Container() string
	Token() string
	Metadata() Metadata
}

// ItemGetter is satisfied by sources that support keyed item access.
type ItemGetter interface {
	Item(ctx context.Context, key string) (any, error)
}

// Enumerable is satisfied by sources whose contents can be listed by name.
// Catalog containers satisfy this; most leaf sources do not.
type Enumerable interface {
	Names(ctx context.Context) ([]string, error)
}

// AttrGetter is satisfied by sources that expose named attributes.
type AttrGetter interface {
	Attr(name string) (any, error)
}

// Introspector is satisfied by sources that can report their attribute
// names for directory-style listings.
type Introspector interface {
	Attrs() []string
}

// Materializer is satisfied by sources whose output can be rendered to
// bytes for persistence.
type Materializer interface {
	Materialize(ctx context.Context) ([]byte, error)
}

// Origin is satisfied by sources that remember how they were opened.
// Persistence stores use it to re-open the source during a refresh.
type Origin interface {
	Driver() string
	OpenArgs() map[string]any
}
