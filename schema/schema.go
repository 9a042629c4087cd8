package schema

import (
	"fmt"
	"strings"
)

// ============================================================================
// SCHEMA: Describes the shape of a dataset
// ============================================================================
// Either built in (the SIM data dictionary) or auto-discovered from a CSV
// header and sample rows. The CSV loader uses it to decide which columns
// become dimensions and measures; analyses use it to label coded values.
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions" yaml:"dimensions"`
	Measures   []MeasureMeta   `json:"measures" yaml:"measures"`

	// Required lists dimension keys an analysis cannot run without.
	Required []string `json:"required,omitempty" yaml:"required,omitempty"`

	// Auto-discovery metadata
	DiscoveredFrom string          `json:"discoveredFrom,omitempty" yaml:"discoveredFrom,omitempty"`
	DiscoveredAt   string          `json:"discoveredAt,omitempty" yaml:"discoveredAt,omitempty"`
	RowsSampled    int             `json:"rowsSampled,omitempty" yaml:"rowsSampled,omitempty"`
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty" yaml:"skippedColumns,omitempty"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key             string            `json:"key" yaml:"key"`
	DisplayName     string            `json:"displayName" yaml:"displayName"`
	Description     string            `json:"description,omitempty" yaml:"description,omitempty"`
	SampleValues    []string          `json:"sampleValues,omitempty" yaml:"sampleValues,omitempty"`
	Codes           map[string]string `json:"codes,omitempty" yaml:"codes,omitempty"`     // code → label
	Pattern         string            `json:"pattern,omitempty" yaml:"pattern,omitempty"` // regexp every value should match
	Groupable       bool              `json:"groupable" yaml:"groupable"`
	Filterable      bool              `json:"filterable" yaml:"filterable"`
	IsTemporal      bool              `json:"isTemporal,omitempty" yaml:"isTemporal,omitempty"`
	TemporalFormat  string            `json:"temporalFormat,omitempty" yaml:"temporalFormat,omitempty"`
	CardinalityHint string            `json:"cardinalityHint,omitempty" yaml:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string   `json:"key" yaml:"key"`
	DisplayName        string   `json:"displayName" yaml:"displayName"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	Unit               string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	IsSynthetic        bool     `json:"isSynthetic,omitempty" yaml:"isSynthetic,omitempty"` // Auto-generated (record_count)
	Aggregations       []string `json:"aggregations,omitempty" yaml:"aggregations,omitempty"`
	DefaultAggregation string   `json:"defaultAggregation,omitempty" yaml:"defaultAggregation,omitempty"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column      string `json:"column" yaml:"column"`
	Reason      string `json:"reason" yaml:"reason"`
	Recoverable bool   `json:"recoverable" yaml:"recoverable"`
}

// RecordCountKey is the synthetic measure every loaded record carries (=1).
const RecordCountKey = "record_count"

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key, displayName string, samples []string) DimensionMeta {
	return DimensionMeta{
		Key:          key,
		DisplayName:  displayName,
		SampleValues: samples,
		Groupable:    true,
		Filterable:   true,
	}
}

// DefaultMeasure creates a MeasureMeta with sensible defaults.
func DefaultMeasure(key, displayName string) MeasureMeta {
	return MeasureMeta{
		Key:                key,
		DisplayName:        displayName,
		Aggregations:       []string{"sum", "avg", "min", "max", "count"},
		DefaultAggregation: "sum",
	}
}

func recordCountMeasure() MeasureMeta {
	return MeasureMeta{
		Key:                RecordCountKey,
		DisplayName:        "Record Count",
		Description:        "Number of records (auto-generated)",
		IsSynthetic:        true,
		Aggregations:       []string{"count"},
		DefaultAggregation: "count",
	}
}

// GetDefaultMeasure returns the synthetic record count when present,
// else the first measure's key.
func (c Config) GetDefaultMeasure() string {
	for _, m := range c.Measures {
		if m.Key == RecordCountKey {
			return m.Key
		}
	}
	if len(c.Measures) > 0 {
		return c.Measures[0].Key
	}
	return RecordCountKey
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Dimension looks up a dimension by key.
func (c Config) Dimension(key string) (DimensionMeta, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}

// Label renders a coded value as "code – label" ("2 – Female").
// Codes without a dictionary entry are returned unchanged.
func (c Config) Label(dimension, code string) string {
	d, ok := c.Dimension(dimension)
	if !ok || d.Codes == nil {
		return code
	}
	if label, ok := d.Codes[strings.TrimSpace(code)]; ok {
		return fmt.Sprintf("%s – %s", code, label)
	}
	return code
}

// CodeLegend renders the dictionary of a dimension on one line,
// e.g. "1=Yes, 2=No, 9=Unknown". Codes are ordered numerically where possible.
func (c Config) CodeLegend(dimension string) string {
	d, ok := c.Dimension(dimension)
	if !ok || len(d.Codes) == 0 {
		return ""
	}
	codes := make([]string, 0, len(d.Codes))
	for code := range d.Codes {
		codes = append(codes, code)
	}
	sortCodes(codes)
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = code + "=" + d.Codes[code]
	}
	return strings.Join(parts, ", ")
}
