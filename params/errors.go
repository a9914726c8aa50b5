package params

import "errors"

// Sentinel errors for parameter coercion and resolution.
var (
	ErrUnresolved   = errors.New("required parameter not supplied")
	ErrCannotCoerce = errors.New("cannot coerce value")
	ErrOutOfRange   = errors.New("value out of range")
	ErrNotAllowed   = errors.New("value not allowed")
	ErrUnknownType  = errors.New("unknown parameter type")
)
