package engine

import (
	"fmt"
)

// ============================================================================
// TABLE BUILDER: Produces TableData from QuerySpec + Groups
// ============================================================================

// BuildTable produces a TableData from a QuerySpec, groups, and the filtered view.
func BuildTable(spec QuerySpec, groups []Group, view RecordView, measure string) *TableData {
	if spec.Aggregation == "list" {
		return buildListTable(spec, view, measure)
	}
	return buildAggregatedTable(spec, groups)
}

// ============================================================================
// LIST TABLE: Row per record
// ============================================================================

func buildListTable(spec QuerySpec, view RecordView, measure string) *TableData {
	if view.Len() == 0 {
		return &TableData{
			Title:   spec.Title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	dimKeys := view.DimensionKeys()
	columns := make([]Column, 0, len(dimKeys)+1)
	for _, key := range dimKeys {
		columns = append(columns, Column{
			Key:   key,
			Label: LabelForDimension(key),
			Type:  "text",
			Align: "left",
		})
	}
	withMeasure := measure != "" && measure != "record_count"
	if withMeasure {
		columns = append(columns, Column{
			Key:   measure,
			Label: LabelForDimension(measure),
			Type:  "number",
			Align: "right",
		})
	}

	n := view.Len()
	if spec.Limit > 0 && n > spec.Limit {
		n = spec.Limit
	}

	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(columns))
		for _, key := range dimKeys {
			row = append(row, view.Dimension(i, key))
		}
		if withMeasure {
			row = append(row, FormatNumber(view.Measure(i, measure)))
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("Showing %d of %s records", n, FormatInt(view.Len())),
		},
	}
}

// ============================================================================
// AGGREGATED TABLE: Summary rows
// ============================================================================

func buildAggregatedTable(spec QuerySpec, groups []Group) *TableData {
	if len(groups) == 0 {
		return &TableData{
			Title:   spec.Title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	groupLabel := "Group"
	if spec.XLabel != "" {
		groupLabel = spec.XLabel
	} else if len(spec.GroupBy) > 0 {
		groupLabel = LabelForDimension(spec.GroupBy[0])
	}

	columns := []Column{
		{Key: "group", Label: groupLabel, Type: "text", Align: "left"},
		{Key: "count", Label: "Count", Type: "number", Align: "right"},
		{Key: "percent", Label: "Percent", Type: "percent", Align: "right"},
	}
	countOnly := spec.Aggregation == "count" || spec.Aggregation == ""
	if !countOnly {
		columns = append(columns, Column{
			Key: "value", Label: LabelForAggregation(spec.Aggregation), Type: "number", Align: "right",
		})
	}

	total := TotalCount(groups)
	rows := make([][]string, 0, len(groups))
	var totalValue float64
	for _, g := range groups {
		row := []string{
			g.Label,
			FormatInt(g.Count),
			FormatPercent(Percent(float64(g.Count), float64(total))),
		}
		if !countOnly {
			row = append(row, FormatNumber(g.Value))
		}
		rows = append(rows, row)
		totalValue += g.Value
	}

	summary := &Summary{
		Label: "Total",
		Values: map[string]string{
			"count":   FormatInt(total),
			"percent": FormatPercent(100),
		},
	}
	if !countOnly {
		summary.Values["value"] = FormatNumber(totalValue)
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Summary: summary,
	}
}
