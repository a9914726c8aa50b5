package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/strataflow/catalog/params"
)

// DisplayContent builds the merged record shown for an entry: the describe
// record plus, when the entry can be opened without further parameters,
// the describe-open record. When required parameters are missing the open
// half is omitted and a warning is returned instead; every other failure
// propagates.
func (h *Handle) DisplayContent(_ context.Context) (map[string]any, string, error) {
	desc, err := h.entry.Describe()
	if err != nil {
		return nil, "", err
	}

	specs := make([]any, 0, len(desc.UserParameters))
	for _, s := range desc.UserParameters {
		specs = append(specs, s)
	}

	contents := map[string]any{
		"name":            desc.Name,
		"container":       desc.Container,
		"description":     desc.Description,
		"direct_access":   string(desc.DirectAccess),
		"user_parameters": specs,
	}

	open, err := h.entry.DescribeOpen(nil)
	if err != nil {
		if errors.Is(err, params.ErrUnresolved) {
			warning := fmt.Sprintf("additional parameters required to open %s", desc.Name)
			return contents, warning, nil
		}
		return nil, "", err
	}

	contents["driver"] = open.Driver
	contents["args"] = open.Args
	if len(open.Metadata) > 0 {
		contents["metadata"] = open.Metadata
	}
	return contents, "", nil
}

// View is the build-once display handle for an entry. It caches the merged
// display record from the first successful build.
type View struct {
	contents map[string]any
	warning  string
}

// Render returns the view's contents as indented text, with the warning
// appended when present.
func (v *View) Render() string {
	out := PrettyDescribe(v.contents)
	if v.warning != "" {
		out += "\n" + v.warning
	}
	return out
}

// Warning returns the parameter warning captured at build time, if any.
func (v *View) Warning() string { return v.warning }

// View returns the handle's display view, building it on first access.
// The first build wins for the handle's lifetime, error included.
func (h *Handle) View(ctx context.Context) (*View, error) {
	h.viewOnce.Do(func() {
		contents, warning, err := h.DisplayContent(ctx)
		if err != nil {
			h.viewErr = err
			return
		}
		h.view = &View{contents: contents, warning: warning}
	})
	return h.view, h.viewErr
}

// PrettyDescribe renders a description record as indented text with
// deterministic key order.
func PrettyDescribe(contents map[string]any) string {
	var b strings.Builder
	writePretty(&b, contents, 0)
	return strings.TrimRight(b.String(), "\n")
}

func writePretty(b *strings.Builder, v any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch inner := val[k].(type) {
			case map[string]any:
				fmt.Fprintf(b, "%s%s:\n", indent, k)
				writePretty(b, inner, depth+1)
			case []any:
				fmt.Fprintf(b, "%s%s:\n", indent, k)
				writePretty(b, inner, depth+1)
			default:
				fmt.Fprintf(b, "%s%s: %v\n", indent, k, inner)
			}
		}
	case []any:
		for _, item := range val {
			switch item.(type) {
			case map[string]any, []any:
				fmt.Fprintf(b, "%s-\n", indent)
				writePretty(b, item, depth+1)
			default:
				fmt.Fprintf(b, "%s- %v\n", indent, item)
			}
		}
	default:
		fmt.Fprintf(b, "%s%v\n", indent, val)
	}
}
