package persist

import (
	"context"
	"slices"
	"time"

	"github.com/strataflow/catalog/source"
)

// record is the on-disk msgpack shape of a persisted replica.
type record struct {
	ID        string         `msgpack:"id"`
	Token     string         `msgpack:"token"`
	Name      string         `msgpack:"name"`
	Container string         `msgpack:"container"`
	Driver    string         `msgpack:"driver"`
	Args      map[string]any `msgpack:"args"`
	Payload   []byte         `msgpack:"payload"`
	TTL       time.Duration  `msgpack:"ttl"`
	Timestamp time.Time      `msgpack:"timestamp"`
	Extra     map[string]any `msgpack:"extra,omitempty"`
}

// Replica is a persisted copy of a data source's materialized output.
// It satisfies source.DataSource and source.Materializer; reading it never
// redoes the origin's computation or I/O.
type Replica struct {
	rec record
}

func (r *Replica) Name() string      { return r.rec.Name }
func (r *Replica) Container() string { return r.rec.Container }
func (r *Replica) Token() string     { return r.rec.Token }

// ID returns the replica record's unique identifier. Refreshing preserves it.
func (r *Replica) ID() string { return r.rec.ID }

func (r *Replica) Metadata() source.Metadata {
	return source.Metadata{
		TTL:       r.rec.TTL,
		Timestamp: r.rec.Timestamp,
		Extra:     r.rec.Extra,
	}
}

// Materialize returns a copy of the stored payload.
func (r *Replica) Materialize(_ context.Context) ([]byte, error) {
	return slices.Clone(r.rec.Payload), nil
}

// Driver returns the name of the driver that produced the replica.
func (r *Replica) Driver() string { return r.rec.Driver }

// OpenArgs returns the arguments the origin source was opened with.
func (r *Replica) OpenArgs() map[string]any { return r.rec.Args }
