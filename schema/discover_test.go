package schema

import (
	"testing"
)

// ============================================================================
// DISCOVERY TESTS
// ============================================================================

// Semicolon-separated SIM extract: CONTADOR is a row id, IDADE is the coded
// age, PESO is only filled for perinatal deaths.
var simCSV = []byte(`CONTADOR;DTOBITO;TIPOBITO;SEXO;IDADE;ASSISTMED;CAUSABAS;PESO
1;01012024;2;1;465;1;I219;
2;02012024;2;2;472;1;C500;
3;03012024;2;2;458;1;C500;
4;04012024;2;1;481;2;I219;
5;05012024;2;2;439;1;C500;
6;06012024;2;1;490;9;J189;
7;07012024;2;1;477;1;I219;
8;08012024;2;2;466;;I64;
9;09012024;2;1;401;1;E149;
10;10012024;2;2;483;1;C500;
11;11012024;2;1;472;2;I219;
12;12012024;2;2;470;1;J189;
13;13012024;2;1;203;1;P369;3150
14;14012024;2;2;110;1;P369;2840
15;15012024;2;1;465;1;I219;
`)

func TestDiscoverSIMCSV(t *testing.T) {
	config, err := DiscoverFromCSV(simCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}

	dimKeys := config.DimensionKeys()
	for _, key := range []string{"dtobito", "tipobito", "sexo", "assistmed", "causabas"} {
		assertContains(t, dimKeys, key, key+" should be a dimension")
	}

	measKeys := config.MeasureKeys()
	assertContains(t, measKeys, "idade", "IDADE has many distinct integers")
	assertContains(t, measKeys, "record_count", "record_count synthetic measure should exist")

	if len(config.SkippedColumns) != 1 || config.SkippedColumns[0].Column != "CONTADOR" {
		t.Fatalf("expected CONTADOR to be skipped, got %+v", config.SkippedColumns)
	}
	if !config.SkippedColumns[0].Recoverable {
		t.Error("CONTADOR should be recoverable")
	}
	if config.RowsSampled != 15 {
		t.Errorf("RowsSampled = %d, want 15", config.RowsSampled)
	}

	d, _ := config.Dimension("dtobito")
	if !d.IsTemporal || d.TemporalFormat != "ddMMyyyy" {
		t.Errorf("DTOBITO should be temporal ddMMyyyy, got %v %q", d.IsTemporal, d.TemporalFormat)
	}

	d, _ = config.Dimension("assistmed")
	if len(d.SampleValues) != 3 || d.SampleValues[0] != "1" || d.SampleValues[2] != "9" {
		t.Errorf("assistmed samples = %v", d.SampleValues)
	}
	if d.DisplayName != "ASSISTMED" {
		t.Errorf("upper-case headers keep their display name, got %q", d.DisplayName)
	}
}

func TestDiscoverWithRecovery(t *testing.T) {
	config, err := DiscoverFromCSV(simCSV, DiscoverOptions{RecoverColumns: []string{"CONTADOR"}})
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	assertContains(t, config.DimensionKeys(), "contador", "recovered column should be a dimension")
	if len(config.SkippedColumns) != 0 {
		t.Errorf("no column should stay skipped, got %+v", config.SkippedColumns)
	}
}

func TestDiscoverSampleSize(t *testing.T) {
	config, err := DiscoverFromCSV(simCSV, DiscoverOptions{SampleSize: 5})
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	if config.RowsSampled != 5 {
		t.Errorf("RowsSampled = %d, want 5", config.RowsSampled)
	}
}

func TestDiscoverCommaDelimited(t *testing.T) {
	data := []byte("SEXO,CAUSABAS\n1,I219\n2,C500\n2,C500\n")
	config, err := DiscoverFromCSV(data)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	assertContains(t, config.DimensionKeys(), "causabas", "comma header should be split")
	if got := len(config.Dimensions) + len(config.Measures); got != 3 {
		t.Errorf("expected SEXO, CAUSABAS and record_count, got %d columns", got)
	}
}

func TestDiscoverErrors(t *testing.T) {
	if _, err := DiscoverFromCSV(nil); err == nil {
		t.Error("empty input should fail")
	}
	if _, err := DiscoverFromCSV([]byte("SEXO;CAUSABAS\n")); err == nil {
		t.Error("header-only input should fail")
	}
}

func TestMergeWithSIM(t *testing.T) {
	discovered, err := DiscoverFromCSV(simCSV)
	if err != nil {
		t.Fatalf("DiscoverFromCSV failed: %v", err)
	}
	merged := Merge(discovered, SIM())

	dimKeys := merged.DimensionKeys()
	assertContains(t, dimKeys, "idade", "dictionary moves IDADE to the dimensions")
	assertContains(t, merged.MeasureKeys(), "peso", "dictionary moves PESO to the measures")
	for _, k := range dimKeys {
		if k == "peso" {
			t.Error("peso should no longer be a dimension")
		}
	}
	for _, k := range merged.MeasureKeys() {
		if k == "idade" {
			t.Error("idade should no longer be a measure")
		}
	}

	// Dictionary entries missing from the file are not invented.
	if _, ok := merged.Dimension("racacor"); ok {
		t.Error("racacor is not in the file and should not be merged in")
	}

	sexo, ok := merged.Dimension(KeySexo)
	if !ok {
		t.Fatal("sexo missing after merge")
	}
	if sexo.Codes["2"] != "Female" {
		t.Errorf("sexo codes not taken from the dictionary: %v", sexo.Codes)
	}
	if len(sexo.SampleValues) != 2 {
		t.Errorf("discovered samples should be kept, got %v", sexo.SampleValues)
	}

	for _, m := range merged.Measures {
		if m.Key == "peso" && m.Unit != "grams" {
			t.Errorf("peso unit = %q, want grams", m.Unit)
		}
	}
	if len(merged.Required) != 3 {
		t.Errorf("Required = %v", merged.Required)
	}
	if merged.Name != SIM().Name {
		t.Errorf("Name = %q", merged.Name)
	}
	if len(merged.SkippedColumns) != 1 {
		t.Errorf("CONTADOR should stay skipped, got %+v", merged.SkippedColumns)
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"A;B;C\n1;2;3", ';'},
		{"a,b,c\n1;2;3", ','},
		{"a\tb\tc", '\t'},
		{"a;b,c", ';'},
		{"", ';'},
	}
	for _, tt := range tests {
		if got := SniffDelimiter([]byte(tt.in)); got != tt.want {
			t.Errorf("SniffDelimiter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"CAUSABAS", "causabas"},
		{"Story Points", "story_points"},
		{"codMunRes", "cod_mun_res"},
		{" ASSISTMED ", "assistmed"},
		{"\ufeffCONTADOR", "contador"},
		{`"SEXO"`, "sexo"},
		{"birth-weight", "birth_weight"},
	}
	for _, tt := range tests {
		if got := ToKey(tt.input); got != tt.expected {
			t.Errorf("ToKey(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"CAUSABAS", "CAUSABAS"},
		{"birth_weight", "Birth Weight"},
		{"Story Points", "Story Points"},
	}
	for _, tt := range tests {
		if got := toDisplayName(tt.input); got != tt.expected {
			t.Errorf("toDisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTemporalDetection(t *testing.T) {
	tests := []struct {
		key     string
		samples []string
		want    bool
		format  string
	}{
		{"dtobito", []string{"01012024", "15022024", "31122024"}, true, "ddMMyyyy"},
		{"dtnasc", []string{"1011990"}, true, "ddMMyyyy"},
		{"contador", []string{"01012024", "15022024"}, false, ""},
		{"dtobito", []string{"99999999", "12345678"}, false, ""},
		{"data", []string{"01/01/2024", "15/02/2024"}, true, "dd/MM/yyyy"},
	}
	for _, tt := range tests {
		got, format := detectTemporalPattern(tt.key, tt.samples)
		if got != tt.want || format != tt.format {
			t.Errorf("detectTemporalPattern(%q, %v) = %v %q, want %v %q",
				tt.key, tt.samples, got, format, tt.want, tt.format)
		}
	}
}

func assertContains(t *testing.T, slice []string, item string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == item {
			return
		}
	}
	t.Errorf("%s: %q not found in %v", msg, item, slice)
}
