package compare

import (
	"fmt"
	"sort"
)

type ChangeType string

const (
	Added     ChangeType = "ADDED"
	Removed   ChangeType = "REMOVED"
	Modified  ChangeType = "MODIFIED"
	Unchanged ChangeType = "UNCHANGED"
)

// Change is the classification of one relative path. An empty digest means
// the file is absent on that side; a real digest is never the empty string,
// so absence and content hash cannot be confused.
type Change struct {
	Type      ChangeType `json:"type"`
	Path      string     `json:"path"`
	OldDigest string     `json:"old_digest,omitempty"`
	NewDigest string     `json:"new_digest,omitempty"`
}

type Result struct {
	Added     []Change `json:"added"`
	Removed   []Change `json:"removed"`
	Modified  []Change `json:"modified"`
	Unchanged []Change `json:"unchanged,omitempty"`
}

func (r *Result) HasChanges() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Modified) > 0
}

// Compare joins two digest maps, each keyed by root-relative path, and
// classifies every path present in either map. The join is an explicit
// outer-join over the sorted union of keys, so each path is classified
// exactly once and the output order is deterministic:
//
//	absent in old, present in new   -> Added
//	present in old, absent in new   -> Removed
//	present in both, digests differ -> Modified
//	present in both, digests equal  -> unchanged, omitted unless requested
func Compare(oldDigests, newDigests map[string]string, includeUnchanged bool) *Result {
	result := &Result{
		Added:    make([]Change, 0),
		Removed:  make([]Change, 0),
		Modified: make([]Change, 0),
	}

	// Union of relative paths from both trees
	paths := make([]string, 0, len(oldDigests)+len(newDigests))
	for path := range oldDigests {
		paths = append(paths, path)
	}
	for path := range newDigests {
		if _, exists := oldDigests[path]; !exists {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		oldDigest, inOld := oldDigests[path]
		newDigest, inNew := newDigests[path]

		switch {
		case !inOld:
			result.Added = append(result.Added, Change{
				Type:      Added,
				Path:      path,
				NewDigest: newDigest,
			})
		case !inNew:
			result.Removed = append(result.Removed, Change{
				Type:      Removed,
				Path:      path,
				OldDigest: oldDigest,
			})
		case oldDigest != newDigest:
			result.Modified = append(result.Modified, Change{
				Type:      Modified,
				Path:      path,
				OldDigest: oldDigest,
				NewDigest: newDigest,
			})
		default:
			if includeUnchanged {
				result.Unchanged = append(result.Unchanged, Change{
					Type:      Unchanged,
					Path:      path,
					OldDigest: oldDigest,
					NewDigest: newDigest,
				})
			}
		}
	}

	return result
}

func FormatReport(result *Result) string {
	if !result.HasChanges() && len(result.Unchanged) == 0 {
		return "No changes detected."
	}

	report := ""
	if result.HasChanges() {
		report = "Changes detected:\n\n"
	}

	if len(result.Added) > 0 {
		report += fmt.Sprintf("ADDED (%d files):\n", len(result.Added))
		for _, change := range result.Added {
			report += fmt.Sprintf("  + %s (digest: %s)\n", change.Path, change.NewDigest)
		}
		report += "\n"
	}

	if len(result.Removed) > 0 {
		report += fmt.Sprintf("REMOVED (%d files):\n", len(result.Removed))
		for _, change := range result.Removed {
			report += fmt.Sprintf("  - %s (digest: %s)\n", change.Path, change.OldDigest)
		}
		report += "\n"
	}

	if len(result.Modified) > 0 {
		report += fmt.Sprintf("MODIFIED (%d files):\n", len(result.Modified))
		for _, change := range result.Modified {
			report += fmt.Sprintf("  ~ %s\n", change.Path)
			report += fmt.Sprintf("    Old: digest=%s\n", change.OldDigest)
			report += fmt.Sprintf("    New: digest=%s\n", change.NewDigest)
		}
		report += "\n"
	}

	if len(result.Unchanged) > 0 {
		report += fmt.Sprintf("UNCHANGED (%d files):\n", len(result.Unchanged))
		for _, change := range result.Unchanged {
			report += fmt.Sprintf("  = %s (digest: %s)\n", change.Path, change.OldDigest)
		}
		report += "\n"
	}

	report += fmt.Sprintf("Summary: %d added, %d removed, %d modified\n",
		len(result.Added), len(result.Removed), len(result.Modified))

	return report
}
