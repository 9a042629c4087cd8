package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// EXECUTOR: Dispatcher + Placeholder Resolution
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Normalize the QuerySpec
//   2. Apply filters → SubView
//   3. Group and aggregate (value counts when aggregation is "count")
//   4. Dispatch to builder (chart / table / text)
//   5. Resolve reply template placeholders
//   6. Return Result
// ============================================================================

// Execute runs a QuerySpec against a RecordView and returns a render-ready Result.
func Execute(spec QuerySpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)
	if view == nil {
		return nil, ErrEmptyView
	}

	spec = NormalizeQuerySpec(spec)

	measure := spec.Measure
	if measure == "" {
		measure = cfg.DefaultMeasure
	}

	for _, dim := range spec.GroupBy {
		if view.Len() > 0 && !HasDimension(view, dim) {
			return nil, fmt.Errorf("engine: unknown dimension %q", dim)
		}
	}

	if view.Len() == 0 {
		return &Result{
			Success: true,
			Type:    "text",
			Title:   spec.Title,
			Reply:   "No data available to analyze.",
			Query:   spec,
		}, nil
	}

	cfg.logf("🔧 simstat: processing %d records, intent=%s, aggregation=%s, groupBy=%v",
		view.Len(), spec.Intent, spec.Aggregation, spec.GroupBy)

	// 1. Apply filters → SubView (zero-copy)
	filtered := ApplyFilters(view, spec.Filters)
	if filtered.Len() == 0 {
		return &Result{
			Success: true,
			Type:    "text",
			Title:   spec.Title,
			Reply:   fmt.Sprintf("No records match %s.", spec.Filters.Label()),
			Data:    &TextData{Value: "0", Filter: spec.Filters.Label()},
			Query:   spec,
		}, nil
	}
	if !spec.Filters.IsEmpty() {
		cfg.logf("🔧 simstat: %d records after filtering %s (from %d)",
			filtered.Len(), spec.Filters.Label(), view.Len())
	}

	// 2. Group and aggregate
	groups := groupAndAggregate(filtered, spec.GroupBy, measure, spec.Aggregation, spec.SortBy, spec.Limit, spec.DropEmpty)
	if spec.Labeler != nil && len(spec.GroupBy) > 0 {
		relabel(groups, spec.GroupBy, spec.Labeler)
	}

	result := &Result{
		Success: true,
		Title:   spec.Title,
		Groups:  groups,
		Query:   spec,
	}
	if len(spec.GroupBy) > 0 {
		stats := Describe(groups)
		result.Stats = &stats
	}

	// 3. Dispatch to builder
	switch spec.Intent {
	case "chart":
		result.Type = "chart"
		result.ChartConfig = BuildChart(spec, groups)
		result.TableData = BuildTable(spec, groups, filtered, measure)
		if result.ChartConfig == nil {
			result.Type = "text"
			result.Reply = "Not enough data to generate a chart."
			return result, nil
		}
	case "table":
		result.Type = "table"
		result.TableData = BuildTable(spec, groups, filtered, measure)
	default:
		result.Type = "text"
		result.Data = BuildText(spec, filtered, measure)
	}

	// 4. Resolve reply template placeholders
	result.Reply = ResolvePlaceholders(spec.Reply, groups, filtered, spec.Filters)

	return result, nil
}

func relabel(groups []Group, dims []string, labeler func(dimension, key string) string) {
	for i := range groups {
		if groups[i].Key != "" {
			groups[i].Label = labeler(dims[0], groups[i].Key)
		}
		if len(dims) > 1 {
			relabel(groups[i].SubGroups, dims[1:], labeler)
		}
	}
}

// ============================================================================
// PLACEHOLDER RESOLUTION
// ============================================================================

// ResolvePlaceholders substitutes computed values into the reply template.
func ResolvePlaceholders(template string, groups []Group, view RecordView, filters Filters) string {
	if template == "" {
		return buildDefaultReply(groups, view)
	}

	total := TotalCount(groups)
	if len(groups) == 0 {
		total = view.Len()
	}

	replacements := map[string]string{
		"{count}":        FormatInt(view.Len()),
		"{total}":        FormatInt(total),
		"{classes}":      fmt.Sprintf("%d", len(groups)),
		"{filter_label}": filters.Label(),
	}

	if len(groups) > 0 {
		top := groups[0]
		for _, g := range groups[1:] {
			if g.Count > top.Count {
				top = g
			}
		}
		replacements["{top_category}"] = top.Label
		replacements["{top_count}"] = FormatInt(top.Count)
		replacements["{top_share}"] = FormatPercent(Percent(float64(top.Count), float64(total)))
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return stripUnresolvedPlaceholders(result)
}

// ============================================================================
// QUERYSPEC NORMALIZATION
// ============================================================================

// NormalizeQuerySpec applies deterministic rules to fix inconsistent specs.
func NormalizeQuerySpec(spec QuerySpec) QuerySpec {
	if spec.Aggregation == "" {
		spec.Aggregation = "count"
	}

	// Rule 1: "list" aggregation must be a table
	if spec.Aggregation == "list" && spec.Intent != "table" {
		spec.Intent = "table"
		spec.Visualize = "table"
	}

	// Rule 2: Charts must have a groupBy dimension
	if spec.Intent == "chart" && len(spec.GroupBy) == 0 {
		spec.Intent = "text"
		spec.Visualize = "text"
	}

	return spec
}

// ============================================================================
// INTERNAL HELPERS
// ============================================================================

func buildDefaultReply(groups []Group, view RecordView) string {
	if view.Len() == 0 {
		return "No matching records found."
	}
	if len(groups) <= 1 {
		return fmt.Sprintf("Found %s records.", FormatInt(view.Len()))
	}
	return fmt.Sprintf("Found %s records in %d groups.", FormatInt(view.Len()), len(groups))
}

var placeholderRegex = regexp.MustCompile(`\{[a-z_]+\}`)

func stripUnresolvedPlaceholders(text string) string {
	cleaned := placeholderRegex.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return text
	}
	return cleaned
}
