package persist

import "github.com/strataflow/catalog/observability"

// Persistence event types emitted by the file store and its maintenance
// components.
const (
	EventReplicaPersisted observability.EventType = "persist.replica.persisted"
	EventReplicaRefreshed observability.EventType = "persist.replica.refreshed"
	EventReplicaRemoved   observability.EventType = "persist.replica.removed"
	EventSweepStart       observability.EventType = "persist.sweep.start"
	EventSweepComplete    observability.EventType = "persist.sweep.complete"
	EventSweepError       observability.EventType = "persist.sweep.error"
	EventWatchIndexed     observability.EventType = "persist.watch.indexed"
	EventWatchDropped     observability.EventType = "persist.watch.dropped"
	EventWatchError       observability.EventType = "persist.watch.error"
)
