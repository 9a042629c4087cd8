package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spektr-org/simstat/analysis"
	"github.com/spektr-org/simstat/query"
	"github.com/spektr-org/simstat/schema"
)

const simCSV = `CONTADOR;DTOBITO;SEXO;IDADE;ASSISTMED;CAUSABAS;PESO
1;01012024;2;465;1;C500;
2;02012024;2;470;1;C500;
3;03012024;2;455;2;C500;
4;04012024;1;480;1;I219;
5;05012024;1;475;9;I219;
6;06012024;2;460;1;I219;
7;07012024;1;450;1;J189;
8;08012024;2;201;1;P369;3100
9;09012024;1;445;;R99;
10;10012024;2;485;1;C500;
11;11012024;1;466;1;I10;
12;12012024;9;490;2;J189;
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "simstat "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestReportText(t *testing.T) {
	file := writeCSV(t, simCSV)
	out, err := run(t, "report", "--file", file, "--encoding", "utf-8", "--no-color")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{
		"Analysis - sim",
		"Source: Ministry of Health / DATASUS",
		"Distribution of ASSISTMED values",
		"most frequent underlying causes (CAUSABAS)",
		"Class distribution after balancing",
		"Distribution of SEXO for deaths by C500",
		"Study proposal",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q", want)
		}
	}
}

func TestReportJSON(t *testing.T) {
	file := writeCSV(t, simCSV)
	out, err := run(t, "report", "assistmed", "sexo", "-f", file, "--encoding", "utf-8", "--format", "json")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	var reports []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(reports) != 2 || reports[0]["key"] != "assistmed" || reports[1]["key"] != "sexo" {
		t.Errorf("unexpected reports: %v", reports)
	}
}

func TestReportErrors(t *testing.T) {
	file := writeCSV(t, simCSV)

	if _, err := run(t, "report", "mortality", "-f", file); !errors.Is(err, analysis.ErrUnknownAnalysis) {
		t.Errorf("got %v, want ErrUnknownAnalysis", err)
	}
	if _, err := run(t, "report", "-f", file, "--format", "xml"); err == nil {
		t.Error("unknown format should fail")
	}
	if _, err := run(t, "report", "-f", filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("missing file should fail")
	}

	noSex := writeCSV(t, "CAUSABAS;ASSISTMED\nC500;1\n")
	if _, err := run(t, "report", "-f", noSex, "--encoding", "utf-8"); !errors.Is(err, schema.ErrMissingColumn) {
		t.Errorf("got %v, want ErrMissingColumn", err)
	}

	// No death has X59 as cause; sexo was the only analysis requested.
	t.Setenv("SIMSTAT_CAUSE", "X59")
	if _, err := run(t, "report", "sexo", "-f", file, "--encoding", "utf-8"); !errors.Is(err, analysis.ErrNoRecords) {
		t.Errorf("got %v, want ErrNoRecords", err)
	}
}

func TestReportExports(t *testing.T) {
	file := writeCSV(t, simCSV)
	dir := t.TempDir()
	charts := filepath.Join(dir, "charts")
	xlsx := filepath.Join(dir, "simstat.xlsx")

	_, err := run(t, "report", "-f", file, "--encoding", "utf-8", "--format", "yaml",
		"--charts", charts, "--renderer", "gochart", "--xlsx", xlsx)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, key := range []string{"assistmed", "causabas", "balance", "sexo"} {
		if _, err := os.Stat(filepath.Join(charts, key+".png")); err != nil {
			t.Errorf("chart %s missing: %v", key, err)
		}
	}
	if _, err := os.Stat(filepath.Join(charts, "proposal.png")); !os.IsNotExist(err) {
		t.Error("the proposal has no chart")
	}
	if _, err := os.Stat(xlsx); err != nil {
		t.Errorf("workbook missing: %v", err)
	}
}

func TestChart(t *testing.T) {
	file := writeCSV(t, simCSV)
	path := filepath.Join(t.TempDir(), "out", "causes.png")

	out, err := run(t, "chart", "causabas", "-f", file, "--encoding", "utf-8", "--renderer", "gochart", "--out", path)
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("printed path = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil || !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("chart is not a PNG: %v", err)
	}

	if _, err := run(t, "chart", "proposal", "-f", file, "--encoding", "utf-8", "--out", path); err == nil {
		t.Error("proposal has no chart and should fail")
	}
}

func TestBalanceExport(t *testing.T) {
	file := writeCSV(t, simCSV)
	export := filepath.Join(t.TempDir(), "balanced.csv")

	out, err := run(t, "balance", "-f", file, "--encoding", "utf-8", "--no-color", "--top", "2", "--export", export)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !strings.Contains(out, "Class distribution before balancing") {
		t.Errorf("balance output lacks the before table:\n%s", out)
	}

	data, err := os.ReadFile(export)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// C500 (4) and I219 (3) upsampled to 4 each.
	if len(lines) != 9 {
		t.Errorf("exported %d lines, want header + 8", len(lines))
	}
	if !strings.Contains(lines[0], "CAUSABAS") {
		t.Errorf("header = %q", lines[0])
	}
	for _, l := range lines[1:] {
		if !strings.Contains(l, "C500") && !strings.Contains(l, "I219") {
			t.Errorf("unexpected class in %q", l)
		}
	}

	if _, err := run(t, "balance", "-f", file, "--strategy", "smote"); err == nil {
		t.Error("unknown strategy should fail")
	}
}

func TestRows(t *testing.T) {
	file := writeCSV(t, simCSV)

	out, err := run(t, "rows", "-f", file, "--encoding", "utf-8", "--where", "causabas=C500", "--limit", "2")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if !strings.Contains(out, "Showing 2 of 4 records") || !strings.Contains(out, "4 records match causabas=C500") {
		t.Errorf("unexpected rows output:\n%s", out)
	}

	out, err = run(t, "rows", "-f", file, "--encoding", "utf-8", "-w", "causabas=I219", "-w", "sexo=2")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if !strings.Contains(out, "1 records match") {
		t.Errorf("combined filters should match one record:\n%s", out)
	}

	out, err = run(t, "rows", "-f", file, "--encoding", "utf-8", "-w", "causabas=c500")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if !strings.Contains(out, "4 records match causabas=C500") {
		t.Errorf("lower-case codes should be read as SIM codes:\n%s", out)
	}

	_, err = run(t, "rows", "-f", file, "--encoding", "utf-8", "-w", "sexo=1", "-w", "sexo=2")
	if err == nil || !strings.Contains(err.Error(), "given twice") {
		t.Errorf("repeated column should fail, got %v", err)
	}

	if _, err := run(t, "rows", "-f", file, "--where", "causabas"); err == nil {
		t.Error("filter without values should fail")
	}
	if _, err := run(t, "rows", "-f", file, "--encoding", "utf-8", "--where", "racacor=1"); !errors.Is(err, schema.ErrMissingColumn) {
		t.Errorf("got %v, want ErrMissingColumn", err)
	}
}

func TestDiscover(t *testing.T) {
	file := writeCSV(t, simCSV)
	out, err := run(t, "discover", "-f", file, "--encoding", "utf-8", "--format", "json")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	var sch schema.Config
	if err := json.Unmarshal([]byte(out), &sch); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if _, ok := sch.Dimension("causabas"); !ok {
		t.Error("causabas should be a dimension")
	}
	if _, ok := sch.Dimension("idade"); !ok {
		t.Error("the dictionary should keep idade a dimension")
	}
}

func TestDescribe(t *testing.T) {
	file := writeCSV(t, simCSV)
	out, err := run(t, "describe", "peso", "-f", file, "--encoding", "utf-8", "--no-color")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	for _, want := range []string{"Descriptive statistics", "PESO", "mean", "3100"} {
		if !strings.Contains(out, want) {
			t.Errorf("describe output lacks %q:\n%s", want, out)
		}
	}
	if _, err := run(t, "describe", "racacor", "-f", file, "--encoding", "utf-8"); !errors.Is(err, analysis.ErrMissingColumn) {
		t.Errorf("got %v, want analysis.ErrMissingColumn", err)
	}
}

func TestInvalidFlags(t *testing.T) {
	file := writeCSV(t, simCSV)
	if _, err := run(t, "report", "-f", file, "--log-level", "loud"); err == nil {
		t.Error("unknown log level should fail")
	}
	if _, err := run(t, "report", "-f", file, "--encoding", "ebcdic"); err == nil {
		t.Error("unknown encoding should fail")
	}
	if _, err := run(t, "report", "-f", file, "--config", filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestQuery(t *testing.T) {
	file := writeCSV(t, simCSV)
	dir := t.TempDir()
	q := filepath.Join(dir, "women.yaml")
	spec := "groupBy: [causabas]\nfilters: {dimensions: {sexo: [\"2\"]}}\nsortBy: value_desc\nlimit: 2\n" +
		"title: Leading causes among women\nreply: \"{top_category} leads with {top_count}\"\n"
	if err := os.WriteFile(q, []byte(spec), 0o644); err != nil {
		t.Fatal(err)
	}
	chart := filepath.Join(dir, "women.png")

	out, err := run(t, "query", q, "-f", file, "--encoding", "utf-8", "--no-color", "--chart", chart, "--renderer", "gochart")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	assertOutput(t, out, "Leading causes among women", "C500 leads with 4")
	if _, err := os.Stat(chart); err != nil {
		t.Errorf("chart not written: %v", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("groupBy: [racacor]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "query", bad, "-f", file, "--encoding", "utf-8"); !errors.Is(err, query.ErrInvalidQuery) {
		t.Errorf("got %v, want ErrInvalidQuery", err)
	}
}

func TestColumns(t *testing.T) {
	file := writeCSV(t, simCSV)
	out, err := run(t, "columns", "-f", file, "--encoding", "utf-8", "--values", "3")
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	assertOutput(t, out, "RECORDS: 12", "values: C500, I10, I219 … (6 distinct)", "QUERY FILE")
}

func assertOutput(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
