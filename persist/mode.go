// Package persist governs whether opening a catalog entry returns a fresh
// data source or a previously persisted replica. It defines the persistence
// mode, the staleness policy, the Store collaborator contract, and a
// directory-backed Store implementation with optional background
// maintenance (fsnotify index watching, scheduled policy sweeps).
package persist

import "fmt"

// Mode controls whether persisted replicas are consulted when opening an
// entry. The zero value is ModeDefault.
type Mode int

const (
	// ModeDefault applies the TTL staleness policy to persisted replicas.
	ModeDefault Mode = iota
	// ModeAlways returns a persisted replica unconditionally when one exists.
	ModeAlways
	// ModeNever ignores persisted replicas entirely.
	ModeNever
)

var modeNames = map[Mode]string{
	ModeDefault: "default",
	ModeAlways:  "always",
	ModeNever:   "never",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name to a Mode. Anything outside
// {"default", "always", "never"} is rejected with ErrInvalidMode naming
// the offending value; there is no silent fallback.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "default":
		return ModeDefault, nil
	case "always":
		return ModeAlways, nil
	case "never":
		return ModeNever, nil
	}
	return ModeDefault, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}
