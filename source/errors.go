package source

import "errors"

// Sentinel errors for source access and the driver registry.
var (
	ErrItemNotFound    = errors.New("item not found")
	ErrAttrNotFound    = errors.New("attribute not found")
	ErrNoItemAccess    = errors.New("source does not support item access")
	ErrDriverNotFound  = errors.New("driver not found")
	ErrDriverExists    = errors.New("driver already registered")
	ErrEmptyDriverName = errors.New("driver name is empty")
)
