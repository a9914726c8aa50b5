package catalog

import "github.com/strataflow/catalog/observability"

// Entry resolution event types.
const (
	EventOpenStart      observability.EventType = "entry.open.start"
	EventOpenLive       observability.EventType = "entry.open.live"
	EventReplicaHit     observability.EventType = "entry.open.replica"
	EventReplicaRefresh observability.EventType = "entry.open.refresh"
	EventOpenError      observability.EventType = "entry.open.error"
)
