package engine

// ============================================================================
// ENGINE TYPES: Categorical Analytics over Coded Records
// ============================================================================
// Records carry string dimensions (coded fields such as sex or ICD-10 cause)
// and numeric measures. The engine counts, groups, resamples and describes
// them, and hands back render-ready chart/table/text output.
//
// Dependency: engine imports only logging and gonum.
// ============================================================================

// ============================================================================
// RECORD: Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
//
// Example: Record{Dimensions["causabas"]="C500", Measures["record_count"]=1}
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// MissingLabel is the group label used for empty dimension values.
const MissingLabel = "(missing)"

// ============================================================================
// QUERYSPEC: What the engine should compute
// ============================================================================

// QuerySpec defines what the engine should compute.
type QuerySpec struct {
	Intent      string   `json:"intent" yaml:"intent"`                           // "text", "table", "chart"
	Filters     Filters  `json:"filters" yaml:"filters"`                         // Which records to include
	Aggregation string   `json:"aggregation" yaml:"aggregation"`                 // "count", "sum", "avg", "max", "min", "list", "none"
	Measure     string   `json:"measure,omitempty" yaml:"measure,omitempty"`     // Which measure to aggregate (empty → default)
	GroupBy     []string `json:"groupBy,omitempty" yaml:"groupBy,omitempty"`     // Dimension keys
	SortBy      string   `json:"sortBy,omitempty" yaml:"sortBy,omitempty"`       // "value_desc", "value_asc", "label_asc", "label_desc"
	Limit       int      `json:"limit,omitempty" yaml:"limit,omitempty"`         // 0 = all
	DropEmpty   bool     `json:"dropEmpty,omitempty" yaml:"dropEmpty,omitempty"` // Skip records with an empty group value
	Visualize   string   `json:"visualize,omitempty" yaml:"visualize,omitempty"` // "bar", "table", "text"
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	XLabel      string   `json:"xLabel,omitempty" yaml:"xLabel,omitempty"`
	YLabel      string   `json:"yLabel,omitempty" yaml:"yLabel,omitempty"`
	Colors      []string `json:"colors,omitempty" yaml:"colors,omitempty"` // Per-bar colors, cycled
	Reply       string   `json:"reply,omitempty" yaml:"reply,omitempty"`   // Template: "{count} records, top {top_category}"

	// Labeler maps a raw group key to a display label (e.g. "2" → "2 – Female").
	Labeler func(dimension, key string) string `json:"-" yaml:"-"`
}

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// HasFilter returns true if a specific dimension filter is set.
func (f Filters) HasFilter(dimension string) bool {
	if f.Dimensions == nil {
		return false
	}
	vals, ok := f.Dimensions[dimension]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// RESULT: Render-ready output
// ============================================================================

// Result is the engine's render-ready output.
type Result struct {
	Success bool   `json:"success" yaml:"success"`
	Type    string `json:"type" yaml:"type"` // "chart", "table", "text"
	Reply   string `json:"reply" yaml:"reply"`
	Title   string `json:"title" yaml:"title"`

	ChartConfig *ChartConfig  `json:"chartConfig,omitempty" yaml:"chartConfig,omitempty"`
	TableData   *TableData    `json:"tableData,omitempty" yaml:"tableData,omitempty"`
	Data        *TextData     `json:"data,omitempty" yaml:"data,omitempty"`
	Stats       *Distribution `json:"stats,omitempty" yaml:"stats,omitempty"`

	// Groups are the aggregated groups behind the output, sorted and limited.
	Groups []Group   `json:"-" yaml:"-"`
	Errors []string  `json:"errors,omitempty" yaml:"errors,omitempty"`
	Query  QuerySpec `json:"-" yaml:"-"`
}

// ============================================================================
// GROUP: Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Builders convert these into ChartConfig, TableData, or TextData.
type Group struct {
	Key       string     `json:"key" yaml:"key"`
	Label     string     `json:"label" yaml:"label"`
	Value     float64    `json:"value" yaml:"value"`
	Count     int        `json:"count" yaml:"count"`
	SubGroups []Group    `json:"subGroups,omitempty" yaml:"subGroups,omitempty"`
	View      RecordView `json:"-" yaml:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType" yaml:"chartType"`
	Title      string        `json:"title" yaml:"title"`
	XAxis      string        `json:"xAxis,omitempty" yaml:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty" yaml:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series" yaml:"series"`
	Colors     []string      `json:"colors,omitempty" yaml:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend" yaml:"showLegend"`
	ShowGrid   bool          `json:"showGrid" yaml:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name" yaml:"name"`
	Data  []ChartPoint `json:"data" yaml:"data"`
	Color string       `json:"color,omitempty" yaml:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
	Color string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title" yaml:"title"`
	Columns []Column   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
	Summary *Summary   `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Headers returns the column labels in order.
func (t *TableData) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
	Type  string `json:"type" yaml:"type"`   // "text", "number", "percent"
	Align string `json:"align" yaml:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label" yaml:"label"`
	Values map[string]string `json:"values" yaml:"values"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// TextData is structured data for simple query answers (type="text").
type TextData struct {
	Value    string  `json:"value" yaml:"value"`
	RawValue float64 `json:"rawValue" yaml:"rawValue"`
	Unit     string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Count    int     `json:"count" yaml:"count"`
	Filter   string  `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// ============================================================================
// DISTRIBUTION: class-size statistics
// ============================================================================

// Distribution summarizes the sizes of a set of groups (classes).
type Distribution struct {
	Classes        int     `json:"classes" yaml:"classes"`
	Total          int     `json:"total" yaml:"total"`
	Min            float64 `json:"min" yaml:"min"`
	Max            float64 `json:"max" yaml:"max"`
	Mean           float64 `json:"mean" yaml:"mean"`
	StdDev         float64 `json:"stdDev" yaml:"stdDev"`
	Majority       string  `json:"majority" yaml:"majority"`
	MajorityShare  float64 `json:"majorityShare" yaml:"majorityShare"`   // percent of Total
	ImbalanceRatio float64 `json:"imbalanceRatio" yaml:"imbalanceRatio"` // Max / Min
}

// IsBalanced reports whether every class has the same size.
func (d Distribution) IsBalanced() bool {
	return d.Classes > 0 && d.Min == d.Max
}
