package schema

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ============================================================================
// AUTO-DISCOVERY: Heuristic Column Classification
// ============================================================================
// Inspects a CSV header plus sample rows and generates a schema.Config.
//
// Classification pipeline per column:
//   1. Sample values → detect type (numeric, date, bool, string)
//   2. Type + cardinality → classify role (dimension, measure, skip)
//   3. Pattern matching → temporal columns (dd/mm/yyyy, ddmmyyyy on DT* columns)
//   4. Generate synthetic measure (record_count)
//
// Coded SIM fields (1/2/9) are low-cardinality integers, so they come out as
// dimensions. Merge overlays the built-in dictionary on the result.
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize     int      // Max rows to inspect (0 = default 1000)
	Delimiter      rune     // 0 = sniff from the header line
	RecoverColumns []string // Force-include columns that were auto-skipped
	Name           string   // Dataset name override
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV generates a schema.Config by inspecting CSV bytes.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	return DiscoverFromReader(bytes.NewReader(data), opts...)
}

// DiscoverFromReader generates a schema.Config from the first rows of r.
// Only the header and SampleSize rows are read.
func DiscoverFromReader(r io.Reader, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.SampleSize <= 0 {
		opt.SampleSize = 1000
	}

	br := bufio.NewReader(r)
	if opt.Delimiter == 0 {
		head, _ := br.Peek(4096)
		opt.Delimiter = SniffDelimiter(head)
	}

	reader := csv.NewReader(br)
	reader.Comma = opt.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// 1. Read headers
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 || (len(headers) == 1 && strings.TrimSpace(headers[0]) == "") {
		return nil, fmt.Errorf("CSV has no columns")
	}
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")

	// 2. Read sample rows
	var rows [][]string
	for i := 0; i < opt.SampleSize; i++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		rows = append(rows, row)
	}

	totalRows := len(rows)
	if totalRows == 0 {
		return nil, fmt.Errorf("CSV has no data rows")
	}

	// 3. Analyze each column
	recoverSet := make(map[string]bool)
	for _, col := range opt.RecoverColumns {
		recoverSet[ToKey(col)] = true
	}

	config := &Config{
		Name:           opt.Name,
		Version:        "1.0",
		DiscoveredFrom: "CSV",
		DiscoveredAt:   time.Now().Format(time.RFC3339),
		RowsSampled:    totalRows,
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dataset"
	}

	for i, header := range headers {
		col := analyzeColumn(header, i, rows, totalRows)

		switch col.role {
		case roleDimension:
			config.Dimensions = append(config.Dimensions, col.toDimension())
		case roleMeasure:
			config.Measures = append(config.Measures, col.toMeasure())
		case roleSkipped:
			if recoverSet[col.key] {
				config.Dimensions = append(config.Dimensions, col.toDimension())
				continue
			}
			config.SkippedColumns = append(config.SkippedColumns, SkippedColumn{
				Column:      col.header,
				Reason:      col.skipReason,
				Recoverable: col.recoverable,
			})
		}
	}

	// 4. Add synthetic record_count measure
	config.Measures = append(config.Measures, recordCountMeasure())

	return config, nil
}

// SniffDelimiter picks ';', ',' or tab by counting them on the first line.
// Ties and empty input fall back to ';', the DATASUS export separator.
func SniffDelimiter(head []byte) rune {
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	best, bestCount := ';', bytes.Count(head, []byte{';'})
	for _, d := range []rune{',', '\t'} {
		if n := bytes.Count(head, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Merge overlays a dictionary on a discovered schema. Discovered columns that
// the dictionary knows take its metadata (keeping discovered samples), a
// column is moved to the role the dictionary gives it, and dictionary
// entries absent from the file are dropped.
func Merge(discovered, dictionary *Config) *Config {
	out := *discovered
	out.Dimensions = nil
	out.Measures = nil
	out.Required = dictionary.Required
	if out.Name == "" || out.Name == "Auto-discovered Dataset" {
		out.Name = dictionary.Name
	}
	if out.Description == "" {
		out.Description = dictionary.Description
	}

	dictDims := make(map[string]DimensionMeta)
	for _, d := range dictionary.Dimensions {
		dictDims[d.Key] = d
	}
	dictMeas := make(map[string]MeasureMeta)
	for _, m := range dictionary.Measures {
		dictMeas[m.Key] = m
	}

	adopt := func(key string, samples []string) bool {
		d, ok := dictDims[key]
		if !ok {
			return false
		}
		if len(samples) > 0 {
			d.SampleValues = samples
		}
		out.Dimensions = append(out.Dimensions, d)
		return true
	}

	for _, d := range discovered.Dimensions {
		if adopt(d.Key, d.SampleValues) {
			continue
		}
		// Sparse numeric columns (PESO) look coded in a small sample.
		if m, ok := dictMeas[d.Key]; ok {
			out.Measures = append(out.Measures, m)
			continue
		}
		out.Dimensions = append(out.Dimensions, d)
	}
	for _, m := range discovered.Measures {
		if adopt(m.Key, nil) {
			continue
		}
		if dm, ok := dictMeas[m.Key]; ok {
			m = dm
		}
		out.Measures = append(out.Measures, m)
	}

	// Skipped columns the dictionary knows are recovered as dimensions.
	var skipped []SkippedColumn
	for _, s := range discovered.SkippedColumns {
		if !adopt(ToKey(s.Column), nil) {
			skipped = append(skipped, s)
		}
	}
	out.SkippedColumns = skipped

	return &out
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleDimension columnRole = iota
	roleMeasure
	roleSkipped
)

type columnType int

const (
	typeString columnType = iota
	typeNumeric
	typeDate
	typeBool
)

type columnAnalysis struct {
	header      string
	key         string
	colType     columnType
	role        columnRole
	skipReason  string
	recoverable bool

	uniqueCount int
	nullCount   int
	sampleVals  []string

	isTemporal      bool
	temporalFormat  string
	hasDecimals     bool
	cardinalityHint string
}

// analyzeColumn inspects all sampled values in a column and classifies it.
func analyzeColumn(header string, index int, rows [][]string, totalRows int) columnAnalysis {
	col := columnAnalysis{
		header: strings.TrimSpace(header),
		key:    ToKey(header),
	}

	values := make([]string, 0, len(rows))
	uniqueSet := make(map[string]bool)
	for _, row := range rows {
		if index >= len(row) {
			col.nullCount++
			continue
		}
		val := strings.TrimSpace(row[index])
		if isNull(val) {
			col.nullCount++
			continue
		}
		values = append(values, val)
		uniqueSet[val] = true
	}
	col.uniqueCount = len(uniqueSet)

	if len(values) == 0 {
		col.role = roleSkipped
		col.skipReason = "All values are empty/null"
		return col
	}

	col.sampleVals = collectSamples(uniqueSet, 10)

	// Step 1: Detect type
	col.colType = detectType(values)
	if col.colType == typeNumeric {
		for _, v := range values {
			if strings.ContainsAny(v, ".") {
				col.hasDecimals = true
				break
			}
		}
	}

	// Step 2: Temporal patterns before role classification
	col.isTemporal, col.temporalFormat = detectTemporalPattern(col.key, col.sampleVals)
	if col.colType == typeDate {
		col.isTemporal = true
	}

	// Step 3: Classify role based on type + cardinality
	col.classifyRole(totalRows)

	// Step 4: Cardinality hint
	switch {
	case col.uniqueCount <= 10:
		col.cardinalityHint = "low"
	case col.uniqueCount <= 100:
		col.cardinalityHint = "medium"
	default:
		col.cardinalityHint = "high"
	}

	return col
}

// classifyRole determines dimension vs measure vs skip.
func (col *columnAnalysis) classifyRole(totalRows int) {
	if col.isTemporal {
		col.role = roleDimension
		return
	}

	switch col.colType {
	case typeNumeric:
		if col.uniqueCount == totalRows && totalRows > 10 {
			col.role = roleSkipped
			col.skipReason = "Unique per row, likely an ID column"
			col.recoverable = true
			return
		}
		if col.hasDecimals {
			col.role = roleMeasure
			return
		}
		// Few distinct integers relative to the sample → coded field (1/2/9).
		uniqueRatio := float64(col.uniqueCount) / float64(totalRows)
		if col.uniqueCount < 20 && uniqueRatio < 0.3 {
			col.role = roleDimension
			return
		}
		col.role = roleMeasure

	case typeDate, typeBool:
		col.role = roleDimension

	case typeString:
		if col.uniqueCount == totalRows && totalRows > 10 {
			col.role = roleSkipped
			col.skipReason = "Unique per row, likely an identifier"
			col.recoverable = true
			return
		}
		col.role = roleDimension
	}
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType requires 80%+ of non-null values to match for numeric/date/bool.
func detectType(values []string) columnType {
	if len(values) == 0 {
		return typeString
	}

	numCount, dateCount, boolCount := 0, 0, 0
	for _, v := range values {
		if isNumeric(v) {
			numCount++
		}
		if isDate(v) {
			dateCount++
		}
		if isBool(v) {
			boolCount++
		}
	}

	threshold := int(float64(len(values)) * 0.8)
	switch {
	case boolCount >= threshold:
		return typeBool
	case dateCount >= threshold:
		return typeDate
	case numCount >= threshold:
		return typeNumeric
	}
	return typeString
}

func isNull(s string) bool {
	switch s {
	case "", "null", "NULL", "NA", "N/A", "n/a":
		return true
	}
	return false
}

func isNumeric(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "yes", "no", "sim", "não", "nao":
		return true
	}
	return false
}

var compactDate = regexp.MustCompile(`^\d{7,8}$`)

// detectTemporalPattern recognises compact ddmmyyyy dates on DT* columns
// (DTOBITO, DTNASC) and slash dates anywhere.
func detectTemporalPattern(key string, samples []string) (bool, string) {
	if len(samples) == 0 {
		return false, ""
	}
	matches := 0
	if strings.HasPrefix(key, "dt") {
		for _, s := range samples {
			if compactDate.MatchString(s) {
				if _, err := time.Parse("02012006", strings.Repeat("0", 8-len(s))+s); err == nil {
					matches++
				}
			}
		}
		if float64(matches)/float64(len(samples)) >= 0.8 {
			return true, "ddMMyyyy"
		}
	}
	matches = 0
	for _, s := range samples {
		if _, err := time.Parse("02/01/2006", s); err == nil {
			matches++
		}
	}
	if float64(matches)/float64(len(samples)) >= 0.8 {
		return true, "dd/MM/yyyy"
	}
	return false, ""
}

// ============================================================================
// CONVERSION HELPERS
// ============================================================================

func (col *columnAnalysis) toDimension() DimensionMeta {
	d := DefaultDimension(col.key, toDisplayName(col.header), col.sampleVals)
	d.IsTemporal = col.isTemporal
	d.TemporalFormat = col.temporalFormat
	d.CardinalityHint = col.cardinalityHint
	return d
}

func (col *columnAnalysis) toMeasure() MeasureMeta {
	return DefaultMeasure(col.key, toDisplayName(col.header))
}

// ============================================================================
// STRING UTILITIES
// ============================================================================

// ToKey converts a CSV header into the key used for dimensions and measures:
// "CAUSABAS" → "causabas", "Story Points" → "story_points", "codMunRes" → "cod_mun_res".
func ToKey(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	s = strings.Trim(s, `"`)

	var result strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			prev := rune(s[i-1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}

	s = strings.ToLower(result.String())
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "__", "_")
	return strings.Trim(s, "_")
}

// toDisplayName cleans a header for human display.
// Upper-case SIM headers are kept as they are ("CAUSABAS").
func toDisplayName(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, " ") || s == strings.ToUpper(s) {
		return s
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// collectSamples picks up to maxSamples values in code order.
func collectSamples(uniqueSet map[string]bool, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}
	sortCodes(samples)
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
