package catalog

import "github.com/Adalene/glyph/pkg/types"

// Reconcile merges the baseline list with store-origin records keyed by id.
// Baseline records come first in their original order, followed by stored
// records whose id is not already present, also in order. A baseline record
// always wins an id collision, and a repeated id within either list keeps
// its first occurrence. Neither input is modified.
func Reconcile(baseline, stored []types.Icon) []types.Icon {
	seen := make(map[string]struct{}, len(baseline)+len(stored))
	merged := make([]types.Icon, 0, len(baseline)+len(stored))

	for _, list := range [][]types.Icon{baseline, stored} {
		for _, icon := range list {
			if _, dup := seen[icon.ID]; dup {
				continue
			}
			seen[icon.ID] = struct{}{}
			merged = append(merged, icon)
		}
	}

	return merged
}
