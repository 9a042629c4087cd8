package query

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/schema"
)

func testView() engine.RecordView {
	rows := []struct {
		cause, sex string
		peso       float64
	}{
		{"C500", "2", 0}, {"C500", "2", 0}, {"I219", "1", 0}, {"P369", "1", 3100}, {"J189", "9", 0}, {"A419", "10", 0},
	}
	records := make([]engine.Record, len(rows))
	for i, r := range rows {
		records[i] = engine.Record{
			Dimensions: map[string]string{"causabas": r.cause, "sexo": r.sex},
			Measures:   map[string]float64{"record_count": 1, "peso": r.peso},
		}
	}
	return engine.NewSliceView(records)
}

func assertContains(t *testing.T, s, want string) {
	t.Helper()
	if !strings.Contains(s, want) {
		t.Errorf("missing %q in:\n%s", want, s)
	}
}

// ============================================================================
// PARSING
// ============================================================================

func TestParseYAML(t *testing.T) {
	spec, err := Parse([]byte(`
intent: chart
groupBy: [CAUSABAS]
filters:
  dimensions:
    SEXO: ["2"]
sortBy: VALUE_DESC
limit: 3
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(spec.GroupBy) != 1 || spec.GroupBy[0] != "causabas" {
		t.Errorf("GroupBy = %v", spec.GroupBy)
	}
	if vals := spec.Filters.Dimensions["sexo"]; len(vals) != 1 || vals[0] != "2" {
		t.Errorf("filters = %v", spec.Filters.Dimensions)
	}
	if spec.SortBy != "value_desc" || spec.Limit != 3 {
		t.Errorf("sortBy=%q limit=%d", spec.SortBy, spec.Limit)
	}
	if spec.Aggregation != "count" || spec.Visualize != "bar" {
		t.Errorf("defaults not applied: aggregation=%q visualize=%q", spec.Aggregation, spec.Visualize)
	}
}

func TestParseFencedJSON(t *testing.T) {
	spec, err := Parse([]byte("```json\n{\"aggregation\": \"list\", \"limit\": 5}\n```"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if spec.Intent != "table" || spec.Visualize != "table" || spec.Limit != 5 {
		t.Errorf("got intent=%q visualize=%q limit=%d", spec.Intent, spec.Visualize, spec.Limit)
	}
}

func TestParseDefaults(t *testing.T) {
	tests := []struct {
		doc, intent, visualize string
	}{
		{"groupBy: [sexo]", "chart", "bar"},
		{"aggregation: avg\nmeasure: PESO", "text", "text"},
		{"intent: chart", "text", "text"}, // a chart without groupBy
		{"intent: table\ngroupBy: [sexo]", "table", "table"},
	}
	for _, tt := range tests {
		spec, err := Parse([]byte(tt.doc))
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.doc, err)
		}
		if spec.Intent != tt.intent || spec.Visualize != tt.visualize {
			t.Errorf("Parse(%q): intent=%q visualize=%q, want %q/%q", tt.doc, spec.Intent, spec.Visualize, tt.intent, tt.visualize)
		}
	}

	spec, _ := Parse([]byte("aggregation: avg\nmeasure: PESO"))
	if spec.Measure != "peso" {
		t.Errorf("measure = %q", spec.Measure)
	}
}

func TestParseErrors(t *testing.T) {
	for _, doc := range []string{"", "```\n```", "{intent", "groupBy: [unclosed"} {
		if _, err := Parse([]byte(doc)); !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("Parse(%q): got %v, want ErrInvalidQuery", doc, err)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.yaml")
	if err := os.WriteFile(path, []byte("groupBy: [causabas]\nlimit: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	spec, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if spec.Limit != 2 {
		t.Errorf("limit = %d", spec.Limit)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

// ============================================================================
// VALIDATION
// ============================================================================

func TestValidate(t *testing.T) {
	view := testView()

	ok, _ := Parse([]byte("groupBy: [causabas]\nfilters: {dimensions: {sexo: [\"2\"]}}\nmeasure: peso\naggregation: avg"))
	if err := Validate(ok, view); err != nil {
		t.Errorf("valid query rejected: %v", err)
	}

	grouped, err := Parse([]byte("groupBy: [sexo]\naggregation: none\nintent: table"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Validate(grouped, view); err != nil {
		t.Errorf("aggregation none rejected: %v", err)
	}

	bad := engine.QuerySpec{
		Intent:      "pie",
		Aggregation: "median",
		SortBy:      "random",
		Limit:       -1,
		GroupBy:     []string{"racacor"},
		Measure:     "idade",
		Filters:     engine.Filters{Dimensions: map[string][]string{"esc": {"1"}}},
	}
	err = Validate(bad, view)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("got %v, want ErrInvalidQuery", err)
	}
	for _, want := range []string{`intent "pie"`, `aggregation "median"`, `sortBy "random"`, "limit -1",
		`groupBy: unknown column "racacor"`, `filters: unknown column "esc"`, `measure: unknown column "idade"`} {
		assertContains(t, err.Error(), want)
	}
}

func TestParsedQueryRuns(t *testing.T) {
	spec, err := Parse([]byte("groupBy: [causabas]\nsortBy: value_desc\nlimit: 1\nreply: \"{top_category} leads with {top_count}\""))
	if err != nil {
		t.Fatal(err)
	}
	view := testView()
	if err := Validate(spec, view); err != nil {
		t.Fatal(err)
	}
	res, err := engine.Execute(spec, view)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Type != "chart" || res.Reply != "C500 leads with 2" {
		t.Errorf("type=%q reply=%q", res.Type, res.Reply)
	}
}

// ============================================================================
// DESCRIPTION
// ============================================================================

func TestSummarize(t *testing.T) {
	sum := Summarize(testView(), 3)
	if sum.RecordCount != 6 {
		t.Errorf("RecordCount = %d", sum.RecordCount)
	}
	if got := strings.Join(sum.Dimensions["sexo"], ","); got != "1,2,9" {
		t.Errorf("sexo values = %s (want numeric order, capped at 3)", got)
	}
	if sum.Distinct["sexo"] != 4 || sum.Distinct["causabas"] != 5 {
		t.Errorf("distinct = %v", sum.Distinct)
	}
	if got := strings.Join(sum.Dimensions["causabas"], ","); got != "A419,C500,I219" {
		t.Errorf("causabas values = %s", got)
	}

	all := Summarize(testView(), 0)
	if got := strings.Join(all.Dimensions["sexo"], ","); got != "1,2,9,10" {
		t.Errorf("uncapped sexo values = %s", got)
	}
}

func TestDescribe(t *testing.T) {
	sum := Summarize(testView(), 3)
	text := Describe(*schema.SIM(), &sum)

	for _, want := range []string{
		"DATASET: SIM",
		"RECORDS: 6",
		"- causabas (Underlying cause)",
		"- assistmed (Medical assistance)",
		"[codes: 1=Yes, 2=No, 9=Unknown]",
		"values: A419, C500, I219 … (5 distinct)",
		"values: 1, 2, 9 … (4 distinct)",
		"not present in the loaded file",
		"[date ddMMyyyy]",
		"- peso (Birth weight)",
		"[unit: grams]",
		"[one per record]",
		"QUERY FILE (YAML or JSON):",
		"EXAMPLES:",
		"records per assistmed",
		"assistmed split by causabas",
		"average peso",
	} {
		assertContains(t, text, want)
	}

	if plain := Describe(*schema.SIM(), nil); strings.Contains(plain, "    values: ") || strings.Contains(plain, "RECORDS:") {
		t.Error("without a summary no observed values should be listed")
	}
}
