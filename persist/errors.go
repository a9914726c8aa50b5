package persist

import "errors"

// Sentinel errors for persistence decisions and store access.
var (
	ErrInvalidMode       = errors.New("persist mode not understood")
	ErrNotPersisted      = errors.New("source has not been persisted")
	ErrNotMaterializable = errors.New("source cannot be materialized")
	ErrUnknownOrigin     = errors.New("source does not expose its origin")
	ErrCorruptRecord     = errors.New("replica record is corrupt")
	ErrForeignReplica    = errors.New("replica does not belong to this store")
	ErrStoreClosed       = errors.New("store is closed")
	ErrSweeperRunning    = errors.New("sweeper already running")
	ErrWatcherRunning    = errors.New("watcher already running")
)
