package engine

import (
	"fmt"
	"sort"
	"strings"
)

// ============================================================================
// FILTERS: Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent): zero data copy.
// ============================================================================

// ApplyFilters returns a view of records matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Matching is exact after trimming surrounding spaces, so "c500" and
// "C500" are different codes, the same way grouping treats them.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toSet(allowed)
		}
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			val := strings.TrimSpace(view.Dimension(i, dim))
			if !set[val] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// ParseFilter parses "key=v1,v2" into a dimension key and its allowed values.
// The key is lowercased to match loaded dimension keys and the values are
// uppercased, since SIM codes are stored in upper case.
func ParseFilter(expr string) (string, []string, error) {
	key, vals, ok := strings.Cut(expr, "=")
	key = strings.ToLower(strings.TrimSpace(key))
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid filter %q: want KEY=VALUE[,VALUE...]", expr)
	}
	var out []string
	for _, v := range strings.Split(vals, ",") {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return "", nil, fmt.Errorf("invalid filter %q: no values", expr)
	}
	return key, out, nil
}

// Label returns a human-readable label for the filters, e.g. "causabas=C500".
func (f Filters) Label() string {
	if f.IsEmpty() {
		return "all records"
	}
	keys := make([]string, 0, len(f.Dimensions))
	for k, vals := range f.Dimensions {
		if len(vals) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(f.Dimensions[k], ","))
	}
	return strings.Join(parts, " & ")
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.TrimSpace(item)] = true
	}
	return set
}
