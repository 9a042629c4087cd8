package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/schema"
)

// ============================================================================
// DATASET DESCRIPTION: what a query can refer to
// ============================================================================
// Built from the schema plus a summary of the loaded records: every column
// with its description, code table and observed values, then the query file
// format with examples that use the dataset's own columns.
// ============================================================================

// Summary is the lightweight shape of a loaded dataset.
type Summary struct {
	RecordCount int                 `json:"recordCount" yaml:"recordCount"`
	Dimensions  map[string][]string `json:"dimensions" yaml:"dimensions"` // key → distinct values, at most maxValues
	Distinct    map[string]int      `json:"distinct" yaml:"distinct"`     // key → number of distinct values
}

// Summarize collects the distinct values of every dimension of view,
// keeping at most maxValues per column (0 = all) in code order.
func Summarize(view engine.RecordView, maxValues int) Summary {
	s := Summary{
		RecordCount: view.Len(),
		Dimensions:  make(map[string][]string),
		Distinct:    make(map[string]int),
	}
	for _, key := range view.DimensionKeys() {
		vals := engine.UniqueValues(view, key)
		sortCodes(vals)
		s.Distinct[key] = len(vals)
		if maxValues > 0 && len(vals) > maxValues {
			vals = vals[:maxValues]
		}
		s.Dimensions[key] = vals
	}
	return s
}

// Describe renders sch, and the summary when non-nil, as plain text.
func Describe(sch schema.Config, sum *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "DATASET: %s\n", sch.Name)
	if sch.Description != "" {
		fmt.Fprintf(&b, "%s\n", sch.Description)
	}
	if sum != nil {
		fmt.Fprintf(&b, "RECORDS: %s\n", engine.FormatInt(sum.RecordCount))
	}
	b.WriteString("\n")

	b.WriteString(describeDimensions(sch, sum))
	b.WriteString(describeMeasures(sch))
	b.WriteString(describeFormat(sch))
	b.WriteString(describeExamples(sch))
	return b.String()
}

func describeDimensions(sch schema.Config, sum *Summary) string {
	var b strings.Builder
	b.WriteString("DIMENSIONS (coded columns for groupBy and filters):\n")
	for _, d := range sch.Dimensions {
		fmt.Fprintf(&b, "- %s", d.Key)
		if d.DisplayName != "" && !strings.EqualFold(d.DisplayName, d.Key) {
			fmt.Fprintf(&b, " (%s)", d.DisplayName)
		}
		if d.Description != "" {
			fmt.Fprintf(&b, ": %s", d.Description)
		}
		if legend := sch.CodeLegend(d.Key); legend != "" {
			fmt.Fprintf(&b, " [codes: %s]", legend)
		}
		if d.IsTemporal {
			fmt.Fprintf(&b, " [date %s]", d.TemporalFormat)
		}
		b.WriteString("\n")

		if sum == nil {
			continue
		}
		vals, ok := sum.Dimensions[d.Key]
		if !ok {
			b.WriteString("    not present in the loaded file\n")
			continue
		}
		line := strings.Join(vals, ", ")
		if n := sum.Distinct[d.Key]; n > len(vals) {
			line += fmt.Sprintf(" … (%d distinct)", n)
		}
		fmt.Fprintf(&b, "    values: %s\n", line)
	}
	return b.String()
}

func describeMeasures(sch schema.Config) string {
	var b strings.Builder
	b.WriteString("\nMEASURES (numeric columns for sum, avg, max, min):\n")
	for _, m := range sch.Measures {
		fmt.Fprintf(&b, "- %s", m.Key)
		if m.DisplayName != "" && !strings.EqualFold(m.DisplayName, m.Key) {
			fmt.Fprintf(&b, " (%s)", m.DisplayName)
		}
		if m.Description != "" {
			fmt.Fprintf(&b, ": %s", m.Description)
		}
		if m.Unit != "" {
			fmt.Fprintf(&b, " [unit: %s]", m.Unit)
		}
		if m.IsSynthetic {
			b.WriteString(" [one per record]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func describeFormat(sch schema.Config) string {
	dims := sch.DimensionKeys()
	return fmt.Sprintf(`
QUERY FILE (YAML or JSON):
  intent:      %s
  aggregation: %s
  measure:     numeric column (default %s)
  groupBy:     [%s]
  filters:     {dimensions: {COLUMN: [VALUE, ...]}}   OR within a column, AND across columns
  sortBy:      %s
  limit:       maximum groups or rows (0 = all)
  title:       chart or table title
  reply:       template with {count}, {total}, {classes}, {top_category}, {top_count}, {top_share}, {filter_label}

  "list" always produces a table; a chart needs at least one groupBy column.
`, strings.Join(Intents, " | "), strings.Join(Aggregations, " | "), sch.GetDefaultMeasure(),
		strings.Join(dims, ", "), strings.Join(SortOrders, " | "))
}

func describeExamples(sch schema.Config) string {
	var first, second string
	for _, d := range sch.Dimensions {
		if d.IsTemporal {
			continue
		}
		if first == "" {
			first = d.Key
		} else if second == "" {
			second = d.Key
			break
		}
	}
	if first == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nEXAMPLES:\n")
	fmt.Fprintf(&b, "- records per %s:        {intent: chart, groupBy: [%s], sortBy: value_desc}\n", first, first)
	fmt.Fprintf(&b, "- top 10 %s values:      {intent: table, groupBy: [%s], sortBy: value_desc, limit: 10}\n", first, first)
	b.WriteString("- every record:          {aggregation: list, limit: 50}\n")
	if second != "" {
		fmt.Fprintf(&b, "- %s split by %s:   {intent: chart, groupBy: [%s, %s]}\n", first, second, first, second)
	}
	for _, m := range sch.Measures {
		if !m.IsSynthetic {
			fmt.Fprintf(&b, "- average %s:            {intent: text, aggregation: avg, measure: %s}\n", m.Key, m.Key)
			break
		}
	}
	return b.String()
}

func sortCodes(vals []string) {
	sort.Slice(vals, func(i, j int) bool { return engine.CompareCodes(vals[i], vals[j]) < 0 })
}
