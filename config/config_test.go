package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.File != "SIM2024.csv" || cfg.DelimiterRune() != ';' || cfg.Encoding != "latin1" {
		t.Errorf("unexpected input defaults: %+v", cfg)
	}
	if cfg.Analysis.TopN != 5 || cfg.Analysis.Cause != "C500" || cfg.Analysis.Seed != 42 {
		t.Errorf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
	if cfg.Output.Size.Width != 800 || cfg.Output.Size.Height != 500 {
		t.Errorf("unexpected chart size: %+v", cfg.Output.Size)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("implicit missing file should fall back to defaults: %v", err)
	}
	if cfg.File != Default().File {
		t.Errorf("File = %q", cfg.File)
	}

	if _, err := Load(path, true); err == nil {
		t.Error("an explicit --config that does not exist should fail")
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "simstat.yaml", `
file: data/SIM2023.csv
encoding: utf-8
analysis:
  top_n: 3
  cause: I219
output:
  renderer: gochart
  size:
    width: 1024
`)
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != "data/SIM2023.csv" || cfg.Encoding != "utf-8" {
		t.Errorf("input fields not read: %+v", cfg)
	}
	if cfg.Analysis.TopN != 3 || cfg.Analysis.Cause != "I219" {
		t.Errorf("analysis fields not read: %+v", cfg.Analysis)
	}
	if cfg.Analysis.Seed != 42 || cfg.Delimiter != ";" {
		t.Errorf("unset fields should keep defaults: seed=%d delimiter=%q", cfg.Analysis.Seed, cfg.Delimiter)
	}
	if cfg.Output.Size.Width != 1024 || cfg.Output.Size.Height != 500 {
		t.Errorf("size = %+v", cfg.Output.Size)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "simstat.yaml", "analysis: [unclosed\n")
	if _, err := Load(path, true); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Errorf("got %v, want parse error", err)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SIMSTAT_FILE", "env.csv")
	t.Setenv("SIMSTAT_SEED", "7")
	t.Setenv("SIMSTAT_RENDERER", "svg")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.File != "env.csv" || cfg.Analysis.Seed != 7 || cfg.Output.Renderer != "svg" {
		t.Errorf("environment not applied: %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SIMSTAT_DELIMITER": ",",
		"SIMSTAT_ENCODING":  "cp1252",
		"SIMSTAT_CAUSE":     "J189",
		"SIMSTAT_LOG_LEVEL": "debug",
		"SIMSTAT_OUT_DIR":   "out",
		"SIMSTAT_FILE":      "",
	}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	cfg := Default()
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.DelimiterRune() != ',' || cfg.Encoding != "cp1252" || cfg.Analysis.Cause != "J189" ||
		cfg.LogLevel != "debug" || cfg.Output.Dir != "out" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.File != "SIM2024.csv" {
		t.Errorf("empty variable should not override, File = %q", cfg.File)
	}

	env["SIMSTAT_SEED"] = "forty-two"
	if err := cfg.applyEnv(lookup); err == nil {
		t.Error("non-numeric seed should fail")
	}
}

func TestDelimiterRune(t *testing.T) {
	for in, want := range map[string]rune{";": ';', ",": ',', `\t`: '\t', "tab": '\t', "|": '|'} {
		c := Config{Delimiter: in}
		if got := c.DelimiterRune(); got != want {
			t.Errorf("DelimiterRune(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.File = " "
	cfg.Delimiter = ";;"
	cfg.Encoding = "ebcdic"
	cfg.Output.Renderer = "matplotlib"
	cfg.Analysis.TopN = 0
	cfg.Analysis.Strategy = "smote"
	cfg.Analysis.Cause = "C50.0"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"file is empty", "single character", `"ebcdic"`, "matplotlib", "top_n", `"smote"`, `"C50.0"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error lacks %q: %v", want, err)
		}
	}

	ok := Default()
	ok.Analysis.Cause = "i219"
	ok.Analysis.Strategy = ""
	if err := ok.Validate(); err != nil {
		t.Errorf("lower-case cause and empty strategy should pass: %v", err)
	}
}
