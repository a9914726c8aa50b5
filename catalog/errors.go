package catalog

import "errors"

// Sentinel errors for catalog and entry operations.
var (
	ErrEntryNotFound  = errors.New("entry not found")
	ErrEntryExists    = errors.New("entry already registered")
	ErrEmptyEntryName = errors.New("entry name is empty")
	ErrNotIterable    = errors.New("cannot iterate a catalog entry")
	ErrNoKeys         = errors.New("item access requires at least one key")
)
