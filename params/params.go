// Package params implements typed user parameters for catalog entries:
// declared specs with defaults and constraints, value coercion, and the
// resolution of supplied values into concrete open arguments.
//
// Environment-variable and shell expansion of default values is performed
// by external resolvers; this package only coerces and validates.
package params

import (
	"fmt"
	"strconv"
	"time"
)

// Type enumerates the value types a parameter may declare.
type Type string

const (
	TypeString   Type = "str"
	TypeInt      Type = "int"
	TypeFloat    Type = "float"
	TypeBool     Type = "bool"
	TypeDatetime Type = "datetime"
	TypeList     Type = "list"
)

// Valid reports whether t is one of the declared parameter types.
func (t Type) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeDatetime, TypeList:
		return true
	}
	return false
}

// Parameter is a user-settable item passed to a data source on open.
// Min, Max and Allowed constrain supplied values; Default is used when
// the caller supplies nothing.
type Parameter struct {
	Name        string
	Description string
	Type        Type
	Default     any
	Min         any
	Max         any
	Allowed     []any
}

// Spec is the fixed-shape description record for a parameter, as reported
// by entry describe operations.
type Spec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     any    `json:"default,omitempty"`
	Min         any    `json:"min,omitempty"`
	Max         any    `json:"max,omitempty"`
	Allowed     []any  `json:"allowed,omitempty"`
}

// Describe returns the parameter's description record. Constraint fields
// are included only when set.
func (p Parameter) Describe() Spec {
	return Spec{
		Name:        p.Name,
		Description: p.Description,
		Type:        string(p.Type),
		Default:     p.Default,
		Min:         p.Min,
		Max:         p.Max,
		Allowed:     p.Allowed,
	}
}

// Coerce converts a value to the parameter's declared type.
func (p Parameter) Coerce(value any) (any, error) {
	if !p.Type.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, p.Type)
	}
	out, err := coerce(p.Type, value)
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %s: %v", ErrCannotCoerce, p.Name, err)
	}
	return out, nil
}

// Validate coerces value and checks it against the parameter's Min, Max
// and Allowed constraints, returning the coerced value.
func (p Parameter) Validate(value any) (any, error) {
	v, err := p.Coerce(value)
	if err != nil {
		return nil, err
	}

	if p.Min != nil {
		min, err := coerce(p.Type, p.Min)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %s min: %v", ErrCannotCoerce, p.Name, err)
		}
		if less(v, min) {
			return nil, fmt.Errorf("%w: %s=%v is less than %v", ErrOutOfRange, p.Name, v, min)
		}
	}

	if p.Max != nil {
		max, err := coerce(p.Type, p.Max)
		if err != nil {
			return nil, fmt.Errorf("%w: parameter %s max: %v", ErrCannotCoerce, p.Name, err)
		}
		if less(max, v) {
			return nil, fmt.Errorf("%w: %s=%v is greater than %v", ErrOutOfRange, p.Name, v, max)
		}
	}

	if len(p.Allowed) > 0 {
		found := false
		for _, a := range p.Allowed {
			av, err := coerce(p.Type, a)
			if err != nil {
				return nil, fmt.Errorf("%w: parameter %s allowed: %v", ErrCannotCoerce, p.Name, err)
			}
			if equal(v, av) {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s=%v is not one of the allowed values", ErrNotAllowed, p.Name, v)
		}
	}

	return v, nil
}

// Resolve validates supplied values against the declared parameters and
// fills in defaults for parameters the caller omitted. A parameter with
// no default that is not supplied yields ErrUnresolved. Supplied keys
// without a matching declaration pass through untouched.
func Resolve(declared []Parameter, supplied map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(declared)+len(supplied))

	for k, v := range supplied {
		resolved[k] = v
	}

	for _, p := range declared {
		if v, ok := supplied[p.Name]; ok {
			validated, err := p.Validate(v)
			if err != nil {
				return nil, err
			}
			resolved[p.Name] = validated
			continue
		}

		if p.Default == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnresolved, p.Name)
		}
		def, err := p.Coerce(p.Default)
		if err != nil {
			return nil, err
		}
		resolved[p.Name] = def
	}

	return resolved, nil
}

func coerce(t Type, value any) (any, error) {
	switch t {
	case TypeString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", value), nil

	case TypeInt:
		switch v := value.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		case float64:
			return int(v), nil
		case float32:
			return int(v), nil
		case string:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%q is not an int", v)
			}
			return n, nil
		}
		return nil, fmt.Errorf("%T is not an int", value)

	case TypeFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a float", v)
			}
			return f, nil
		}
		return nil, fmt.Errorf("%T is not a float", value)

	case TypeBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("%q is not a bool", v)
			}
			return b, nil
		}
		return nil, fmt.Errorf("%T is not a bool", value)

	case TypeDatetime:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, fmt.Errorf("%q is not an RFC 3339 timestamp", v)
			}
			return ts, nil
		case int:
			return time.Unix(int64(v), 0).UTC(), nil
		case int64:
			return time.Unix(v, 0).UTC(), nil
		case float64:
			return time.Unix(int64(v), 0).UTC(), nil
		}
		return nil, fmt.Errorf("%T is not a datetime", value)

	case TypeList:
		if l, ok := value.([]any); ok {
			return l, nil
		}
		return []any{value}, nil
	}

	return nil, fmt.Errorf("unknown type %s", t)
}

func less(a, b any) bool {
	switch av := a.(type) {
	case int:
		if bv, ok := b.(int); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Before(bv)
		}
	}
	return false
}

func equal(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
		return false
	}
	return a == b
}
