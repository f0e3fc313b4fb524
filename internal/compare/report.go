package compare

import (
	"encoding/json"
	"fmt"
)

// Report is the machine-readable form of a comparison: both roots, their
// whole-tree digests, and the classified change set.
type Report struct {
	Generator string  `json:"generator"`
	OldRoot   string  `json:"old_root"`
	NewRoot   string  `json:"new_root"`
	OldDigest string  `json:"old_tree_digest"`
	NewDigest string  `json:"new_tree_digest"`
	Changes   *Result `json:"changes"`
}

func FormatJSON(report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}
