package source

import (
	"fmt"
	"hash/fnv"
	"io"
	"sort"
)

// TokenFor computes the deterministic identity of a parameterization:
// the driver name plus a canonical rendering of the open arguments.
// Map keys are visited in sorted order so argument ordering never
// changes the token.
func TokenFor(driver string, args map[string]any) string {
	h := fnv.New64a()
	io.WriteString(h, driver)
	io.WriteString(h, "\x00")
	writeCanonical(h, args)
	return fmt.Sprintf("%016x", h.Sum64())
}

func writeCanonical(w io.Writer, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		io.WriteString(w, "{")
		for _, k := range keys {
			io.WriteString(w, k)
			io.WriteString(w, "=")
			writeCanonical(w, val[k])
			io.WriteString(w, ";")
		}
		io.WriteString(w, "}")
	case []any:
		io.WriteString(w, "[")
		for _, item := range val {
			writeCanonical(w, item)
			io.WriteString(w, ";")
		}
		io.WriteString(w, "]")
	default:
		fmt.Fprintf(w, "%v", val)
	}
}
