package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// AGGREGATORS: Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView: zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// ============================================================================

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort → limit.
func GroupAndAggregate(
	view RecordView,
	groupBy []string,
	measure string,
	aggregation string,
	sortBy string,
	limit int,
) []Group {
	return groupAndAggregate(view, groupBy, measure, aggregation, sortBy, limit, false)
}

func groupAndAggregate(view RecordView, groupBy []string, measure, aggregation, sortBy string, limit int, dropEmpty bool) []Group {
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	switch len(groupBy) {
	case 0:
		groups = []Group{{
			Key:   "all",
			Label: "Total",
			View:  view,
		}}
	case 1:
		groups = groupBySingle(view, groupBy[0], dropEmpty)
	default:
		groups = groupByMulti(view, groupBy, dropEmpty)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateGroup(&groups[i], measure, aggregation)
		for j := range groups[i].SubGroups {
			aggregateGroup(&groups[i].SubGroups[j], measure, aggregation)
		}
	}

	// 3. Sort
	SortGroups(groups, sortBy)

	// 4. Limit
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	return groups
}

// CountOptions controls ValueCounts.
type CountOptions struct {
	SortBy    string // default "value_desc"
	Limit     int    // 0 = all
	DropEmpty bool   // exclude empty values instead of reporting them as MissingLabel
}

// ValueCounts counts records per distinct value of dimension.
// With DropEmpty unset the counts sum to view.Len().
func ValueCounts(view RecordView, dimension string, opts CountOptions) []Group {
	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "value_desc"
	}
	return groupAndAggregate(view, []string{dimension}, "", "count", sortBy, opts.Limit, opts.DropEmpty)
}

// Keys returns the group keys in order.
func Keys(groups []Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}

// TotalCount sums group counts.
func TotalCount(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += g.Count
	}
	return n
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string, dropEmpty bool) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := strings.TrimSpace(view.Dimension(i, dimension))
		if key == "" && dropEmpty {
			continue
		}
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		label := key
		if key == "" {
			label = MissingLabel
		}
		groups = append(groups, Group{
			Key:   key,
			Label: label,
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

func groupByMulti(view RecordView, dimensions []string, dropEmpty bool) []Group {
	primaryGroups := groupBySingle(view, dimensions[0], dropEmpty)
	for i := range primaryGroups {
		primaryGroups[i].SubGroups = groupBySingle(primaryGroups[i].View, dimensions[1], dropEmpty)
	}
	return primaryGroups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case "sum":
		group.Value = SumMeasure(group.View, measure)
	case "count", "":
		group.Value = float64(group.Count)
	case "avg":
		group.Value = AvgMeasure(group.View, measure)
	case "max":
		group.Value = MaxMeasure(group.View, measure)
	case "min":
		group.Value = MinMeasure(group.View, measure)
	case "list":
		group.Value = float64(group.Count)
	case "none":
		// pass through
	default:
		group.Value = float64(group.Count)
	}
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// AvgMeasure computes average of a named measure.
func AvgMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	return SumMeasure(view, measure) / float64(n)
}

// MaxMeasure returns the largest value of a named measure.
func MaxMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := math.Inf(-1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v > m {
			m = v
		}
	}
	return m
}

// MinMeasure returns the smallest value of a named measure.
func MinMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	m := math.Inf(1)
	for i := 0; i < n; i++ {
		if v := view.Measure(i, measure); v < m {
			m = v
		}
	}
	return m
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
// Value sorts are stable, so ties keep their first-appearance order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc", "count_desc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case "value_asc", "count_asc":
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value < groups[j].Value })
	case "label_asc", "alpha_asc", "code_asc":
		sort.SliceStable(groups, func(i, j int) bool { return CompareCodes(groups[i].Key, groups[j].Key) < 0 })
	case "label_desc", "code_desc":
		sort.SliceStable(groups, func(i, j int) bool { return CompareCodes(groups[i].Key, groups[j].Key) > 0 })
	default:
		// preserve grouping order
	}
}

// CompareCodes orders two codes numerically when both are numbers and
// case-insensitively otherwise. The empty code sorts last.
func CompareCodes(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return strings.Compare(a, b)
	}
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func sortStrings(s []string) { sort.Strings(s) }

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatNumber prints whole numbers without decimals and others with two.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return FormatInt(int(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatPercent formats a percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Percent returns part/total as a percentage, 0 when total is 0.
func Percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-empty values for a dimension across a view.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForDimension returns an upper-cased label for a dimension key,
// matching how coded columns are named in the source files (CAUSABAS).
func LabelForDimension(dimension string) string {
	return strings.ToUpper(dimension)
}

// LabelForAggregation returns a human-readable label for an aggregation type.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case "sum":
		return "Sum"
	case "count", "":
		return "Frequency"
	case "avg":
		return "Average"
	case "max":
		return "Maximum"
	case "min":
		return "Minimum"
	default:
		return "Value"
	}
}
