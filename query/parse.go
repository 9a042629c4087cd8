package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/simstat/engine"
)

// ============================================================================
// QUERY FILES: hand-written QuerySpecs in JSON or YAML
// ============================================================================
// A query file is an engine.QuerySpec serialized with its json/yaml tags:
//
//   intent: chart
//   groupBy: [causabas]
//   filters: {dimensions: {sexo: ["2"]}}
//   sortBy: value_desc
//   limit: 10
//
// Missing fields get defaults, the query is normalized with the engine rules
// and validated against the loaded columns before it runs.
// ============================================================================

// ErrInvalidQuery wraps every validation failure.
var ErrInvalidQuery = errors.New("query: invalid query")

// Accepted values, in the order they are documented.
var (
	Intents      = []string{"text", "table", "chart"}
	Aggregations = []string{"count", "sum", "avg", "max", "min", "list", "none"}
	SortOrders   = []string{"value_desc", "value_asc", "label_asc", "label_desc", "code_asc", "code_desc"}
)

// Load reads and parses a query file.
func Load(path string) (engine.QuerySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.QuerySpec{}, fmt.Errorf("read query: %w", err)
	}
	return Parse(data)
}

// Parse decodes a QuerySpec from JSON (a document starting with '{') or YAML.
// Markdown code fences around the document are ignored.
func Parse(data []byte) (engine.QuerySpec, error) {
	text := stripFences(string(data))
	if text == "" {
		return engine.QuerySpec{}, fmt.Errorf("%w: empty document", ErrInvalidQuery)
	}

	var spec engine.QuerySpec
	if strings.HasPrefix(text, "{") {
		if err := json.Unmarshal([]byte(text), &spec); err != nil {
			return spec, fmt.Errorf("%w: %v (document: %.200s)", ErrInvalidQuery, err, text)
		}
	} else if err := yaml.Unmarshal([]byte(text), &spec); err != nil {
		return spec, fmt.Errorf("%w: %v (document: %.200s)", ErrInvalidQuery, err, text)
	}

	applyDefaults(&spec)
	return engine.NormalizeQuerySpec(spec), nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, fence := range []string{"```json", "```yaml", "```yml", "```"} {
		if strings.HasPrefix(s, fence) {
			s = strings.TrimPrefix(s, fence)
			break
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// applyDefaults fills what a hand-written query usually leaves out and
// lower-cases column keys to match loaded dimension keys.
func applyDefaults(spec *engine.QuerySpec) {
	spec.Intent = strings.ToLower(strings.TrimSpace(spec.Intent))
	spec.Aggregation = strings.ToLower(strings.TrimSpace(spec.Aggregation))
	spec.SortBy = strings.ToLower(strings.TrimSpace(spec.SortBy))
	spec.Measure = strings.ToLower(strings.TrimSpace(spec.Measure))

	for i, k := range spec.GroupBy {
		spec.GroupBy[i] = strings.ToLower(strings.TrimSpace(k))
	}
	if len(spec.Filters.Dimensions) > 0 {
		dims := make(map[string][]string, len(spec.Filters.Dimensions))
		for k, vals := range spec.Filters.Dimensions {
			key := strings.ToLower(strings.TrimSpace(k))
			dims[key] = append(dims[key], vals...)
		}
		spec.Filters.Dimensions = dims
	}

	if spec.Aggregation == "" {
		spec.Aggregation = "count"
	}
	if spec.Intent == "" {
		switch {
		case spec.Aggregation == "list":
			spec.Intent = "table"
		case len(spec.GroupBy) > 0:
			spec.Intent = "chart"
		default:
			spec.Intent = "text"
		}
	}
	if spec.Visualize == "" {
		spec.Visualize = spec.Intent
		if spec.Intent == "chart" {
			spec.Visualize = "bar"
		}
	}
}

// Validate checks spec against the columns of view and reports every
// problem at once.
func Validate(spec engine.QuerySpec, view engine.RecordView) error {
	var errs []error

	if !contains(Intents, spec.Intent) {
		errs = append(errs, fmt.Errorf("intent %q (want one of %s)", spec.Intent, strings.Join(Intents, ", ")))
	}
	if !contains(Aggregations, spec.Aggregation) {
		errs = append(errs, fmt.Errorf("aggregation %q (want one of %s)", spec.Aggregation, strings.Join(Aggregations, ", ")))
	}
	if spec.SortBy != "" && !contains(SortOrders, spec.SortBy) {
		errs = append(errs, fmt.Errorf("sortBy %q (want one of %s)", spec.SortBy, strings.Join(SortOrders, ", ")))
	}
	if spec.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit %d is negative", spec.Limit))
	}

	dims := view.DimensionKeys()
	for _, k := range spec.GroupBy {
		if !contains(dims, k) {
			errs = append(errs, fmt.Errorf("groupBy: unknown column %q", k))
		}
	}
	for k := range spec.Filters.Dimensions {
		if !contains(dims, k) {
			errs = append(errs, fmt.Errorf("filters: unknown column %q", k))
		}
	}
	if spec.Measure != "" && !contains(view.MeasureKeys(), spec.Measure) {
		errs = append(errs, fmt.Errorf("measure: unknown column %q", spec.Measure))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w:\n%w", ErrInvalidQuery, errors.Join(errs...))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
