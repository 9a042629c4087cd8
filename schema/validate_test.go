package schema

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateHeaders(t *testing.T) {
	cfg := SIM()

	if err := Validate(cfg, []string{"CONTADOR", "ASSISTMED", "CAUSABAS", "SEXO"}); err != nil {
		t.Fatalf("complete header rejected: %v", err)
	}

	err := Validate(cfg, []string{"ASSISTMED", "PESO"})
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if !strings.Contains(err.Error(), "CAUSABAS, SEXO") {
		t.Errorf("error should name every missing column: %v", err)
	}
}

func TestValidICD10(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"C500", true},
		{"I64", true},
		{"X59X", true},
		{" J189 ", true},
		{"C50.0", false},
		{"c500", false},
		{"", false},
		{"12345", false},
	}
	for _, tt := range tests {
		if got := ValidICD10(tt.code); got != tt.want {
			t.Errorf("ValidICD10(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestCheckPattern(t *testing.T) {
	d, _ := SIM().Dimension(KeyCausaBas)
	n, err := d.CheckPattern([]string{"C500", "c50.0", "I219", ""})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("mismatches = %d, want 1", n)
	}

	sexo, _ := SIM().Dimension(KeySexo)
	if n, _ := sexo.CheckPattern([]string{"anything"}); n != 0 {
		t.Errorf("dimension without pattern reported %d mismatches", n)
	}

	bad := DimensionMeta{Key: "x", Pattern: "("}
	if _, err := bad.CheckPattern([]string{"a"}); err == nil {
		t.Error("invalid pattern should fail")
	}
}

func TestSIMLabels(t *testing.T) {
	cfg := SIM()

	tests := []struct {
		dim, code, want string
	}{
		{KeySexo, "2", "2 – Female"},
		{KeyAssistMed, "9", "9 – Unknown"},
		{KeyAssistMed, "7", "7"},
		{KeyCausaBas, "C500", "C500"},
		{"unknown", "1", "1"},
	}
	for _, tt := range tests {
		if got := cfg.Label(tt.dim, tt.code); got != tt.want {
			t.Errorf("Label(%q, %q) = %q, want %q", tt.dim, tt.code, got, tt.want)
		}
	}

	if got := cfg.CodeLegend(KeyAssistMed); got != "1=Yes, 2=No, 9=Unknown" {
		t.Errorf("CodeLegend(assistmed) = %q", got)
	}
	if got := cfg.CodeLegend(KeySexo); got != "0=Unknown, 1=Male, 2=Female, 9=Unknown" {
		t.Errorf("CodeLegend(sexo) = %q", got)
	}
	if got := cfg.CodeLegend(KeyCausaBas); got != "" {
		t.Errorf("CodeLegend(causabas) = %q, want empty", got)
	}
}

func TestSIMSchemaShape(t *testing.T) {
	cfg := SIM()
	if cfg.GetDefaultMeasure() != RecordCountKey {
		t.Errorf("default measure = %q", cfg.GetDefaultMeasure())
	}
	for _, key := range cfg.Required {
		if _, ok := cfg.Dimension(key); !ok {
			t.Errorf("required key %q has no dimension", key)
		}
	}
	seen := make(map[string]bool)
	for _, k := range append(cfg.DimensionKeys(), cfg.MeasureKeys()...) {
		if seen[k] {
			t.Errorf("duplicate key %q", k)
		}
		seen[k] = true
	}
	for _, key := range []string{"idademae", "escmae", "parto"} {
		if _, ok := cfg.Dimension(key); !ok {
			t.Errorf("maternal column %q missing from the dictionary", key)
		}
	}
	if lbl := cfg.Labeler()(KeySexo, "1"); lbl != "1 – Male" {
		t.Errorf("Labeler = %q", lbl)
	}
}
