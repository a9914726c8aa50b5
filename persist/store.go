package persist

import (
	"context"

	"github.com/strataflow/catalog/source"
)

// Store is the persistence collaborator consulted when opening a catalog
// entry. Implementations must be safe for concurrent use.
type Store interface {
	// HasBeenPersisted reports whether a replica exists for the source's
	// exact parameterization.
	HasBeenPersisted(ctx context.Context, src source.DataSource) (bool, error)
	// GetPersisted returns the persisted replica for the source.
	// Returns ErrNotPersisted when no replica exists.
	GetPersisted(ctx context.Context, src source.DataSource) (source.DataSource, error)
	// Refresh re-materializes a persisted replica in place and returns the
	// refreshed replica. Refreshing an already-fresh replica is safe.
	Refresh(ctx context.Context, replica source.DataSource) (source.DataSource, error)
}
