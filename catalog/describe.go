package catalog

import (
	"fmt"

	"github.com/strataflow/catalog/params"
)

// DirectAccess declares whether a data source may be reached without going
// through a remote catalog layer.
type DirectAccess string

const (
	DirectAccessForbid DirectAccess = "forbid"
	DirectAccessAllow  DirectAccess = "allow"
	DirectAccessForce  DirectAccess = "force"
)

// ParseDirectAccess validates a direct-access policy name. The empty
// string resolves to DirectAccessForbid.
func ParseDirectAccess(s string) (DirectAccess, error) {
	switch DirectAccess(s) {
	case "":
		return DirectAccessForbid, nil
	case DirectAccessForbid, DirectAccessAllow, DirectAccessForce:
		return DirectAccess(s), nil
	}
	return "", fmt.Errorf("direct access policy not understood: %q", s)
}

// Description is the fixed-shape record returned by Entry.Describe.
type Description struct {
	Name           string        `json:"name"`
	Container      string        `json:"container"`
	Description    string        `json:"description"`
	DirectAccess   DirectAccess  `json:"direct_access"`
	UserParameters []params.Spec `json:"user_parameters"`
}

// OpenDescription is the fixed-shape record returned by Entry.DescribeOpen:
// how the source would be materialized for a given set of parameters.
type OpenDescription struct {
	Driver       string         `json:"driver"`
	Container    string         `json:"container"`
	Description  string         `json:"description"`
	DirectAccess DirectAccess   `json:"direct_access"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Args         map[string]any `json:"args"`
}
