package helpers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/encoding/charmap"

	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/logging"
	"github.com/spektr-org/simstat/schema"
)

// ============================================================================
// CSV HELPER: Parses CSV data into []engine.Record
// ============================================================================
// DATASUS publishes SIM as semicolon-separated Latin-1 text. The loader
// decodes it, maps the header through the schema and turns every row into
// a Record: dictionary dimensions as strings, measures as floats, plus the
// synthetic record_count.
// ============================================================================

// LoadOptions controls how a CSV file is decoded.
type LoadOptions struct {
	Delimiter    rune
	Encoding     string
	Progress     io.Writer // nil = no progress bar
	KeepUnmapped bool      // keep columns the schema does not know as dimensions
}

// LoadOption configures a load.
type LoadOption func(*LoadOptions)

// WithDelimiter sets the field separator (default ';').
func WithDelimiter(d rune) LoadOption {
	return func(o *LoadOptions) {
		if d != 0 {
			o.Delimiter = d
		}
	}
}

// WithEncoding sets the text encoding: latin1 (default), windows-1252 or utf-8.
func WithEncoding(enc string) LoadOption {
	return func(o *LoadOptions) {
		if enc != "" {
			o.Encoding = enc
		}
	}
}

// WithProgress draws a byte progress bar on w while ReadFile runs.
func WithProgress(w io.Writer) LoadOption {
	return func(o *LoadOptions) { o.Progress = w }
}

// WithUnmapped keeps columns outside the schema as plain dimensions.
func WithUnmapped() LoadOption {
	return func(o *LoadOptions) { o.KeepUnmapped = true }
}

func applyLoadOptions(opts []LoadOption) LoadOptions {
	o := LoadOptions{Delimiter: ';', Encoding: "latin1"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Dataset is the parsed content of one CSV file.
type Dataset struct {
	Records  []engine.Record
	Headers  []string // raw header names, in file order
	Keys     []string // dimension keys, in file order
	Unmapped []string // headers the schema did not know (dropped unless KeepUnmapped)
	Skipped  int      // malformed rows
}

// View exposes the records as a RecordView with dimension keys in file order.
func (d *Dataset) View() engine.RecordView {
	return engine.NewSliceView(d.Records, d.Keys...)
}

// ============================================================================
// ENCODINGS
// ============================================================================

// ValidEncoding reports whether enc names an encoding the loader can decode.
func ValidEncoding(enc string) bool {
	_, err := decoder(enc)
	return err == nil
}

func decoder(enc string) (func(io.Reader) io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(enc, "_", "-")) {
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader, nil
	case "utf8", "utf-8", "":
		return func(r io.Reader) io.Reader { return r }, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", enc)
}

// ============================================================================
// PARSING
// ============================================================================

// ParseCSV parses CSV text into Records using sch for classification.
// Rows whose field count differs from the header are skipped and counted.
func ParseCSV(r io.Reader, sch schema.Config, opts ...LoadOption) (*Dataset, error) {
	o := applyLoadOptions(opts)
	decode, err := decoder(o.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decode(r))
	reader.Comma = o.Delimiter
	reader.LazyQuotes = true

	// Read header
	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	// Build column index → schema mapping
	dimSet := make(map[string]bool)
	for _, d := range sch.Dimensions {
		dimSet[d.Key] = true
	}
	measSet := make(map[string]bool)
	for _, m := range sch.Measures {
		if !m.IsSynthetic {
			measSet[m.Key] = true
		}
	}

	type colMapping struct {
		schemaKey   string
		isDimension bool
		isMeasure   bool
	}

	ds := &Dataset{Headers: headers}
	mappings := make([]colMapping, len(headers))
	for i, h := range headers {
		key := schema.ToKey(h)
		switch {
		case dimSet[key]:
			mappings[i] = colMapping{schemaKey: key, isDimension: true}
			ds.Keys = append(ds.Keys, key)
		case measSet[key]:
			mappings[i] = colMapping{schemaKey: key, isMeasure: true}
		default:
			ds.Unmapped = append(ds.Unmapped, strings.TrimSpace(h))
			if o.KeepUnmapped && key != "" {
				mappings[i] = colMapping{schemaKey: key, isDimension: true}
				ds.Keys = append(ds.Keys, key)
			}
		}
	}

	var synthetic []string
	for _, m := range sch.Measures {
		if m.IsSynthetic && m.DefaultAggregation == "count" {
			synthetic = append(synthetic, m.Key)
		}
	}
	if len(synthetic) == 0 {
		synthetic = []string{schema.RecordCountKey}
	}

	// Read rows
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			ds.Skipped++
			logging.Debugf("⚠️ skipping malformed row %d: %v", line, err)
			continue
		}

		rec := engine.Record{
			Dimensions: make(map[string]string, len(ds.Keys)),
			Measures:   make(map[string]float64, len(measSet)+1),
		}

		for i, val := range row {
			if i >= len(mappings) {
				break
			}
			m := mappings[i]
			val = strings.TrimSpace(val)

			if m.isDimension {
				rec.Dimensions[m.schemaKey] = val
			} else if m.isMeasure {
				if f, ok := parseNumber(val); ok {
					rec.Measures[m.schemaKey] = f
				}
			}
		}

		for _, key := range synthetic {
			rec.Measures[key] = 1
		}

		ds.Records = append(ds.Records, rec)
	}

	if len(ds.Unmapped) > 0 && !o.KeepUnmapped {
		logging.Debugf("📋 %d columns outside the schema ignored", len(ds.Unmapped))
	}
	logging.Debugf("📄 parsed %d rows, %d skipped", len(ds.Records), ds.Skipped)

	return ds, nil
}

// parseNumber accepts both "3150" and the decimal comma "3150,5".
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	return f, err == nil
}

// ParseCSVAuto parses CSV without a pre-existing schema. The schema is
// discovered from the first rows and, when dictionary is non-nil, merged
// with it. Returns the records and the schema that produced them.
func ParseCSVAuto(r io.Reader, dictionary *schema.Config, opts ...LoadOption) (*Dataset, *schema.Config, error) {
	o := applyLoadOptions(opts)
	decode, err := decoder(o.Encoding)
	if err != nil {
		return nil, nil, err
	}
	data, err := io.ReadAll(decode(r))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	sch, err := schema.DiscoverFromCSV(data, schema.DiscoverOptions{Delimiter: o.Delimiter})
	if err != nil {
		return nil, nil, err
	}
	if dictionary != nil {
		sch = schema.Merge(sch, dictionary)
	}

	// Already decoded.
	ds, err := ParseCSV(bytes.NewReader(data), *sch, append(opts, WithEncoding("utf-8"))...)
	if err != nil {
		return nil, nil, err
	}
	return ds, sch, nil
}

// ReadFile opens path and parses it with ParseCSV.
func ReadFile(path string, sch schema.Config, opts ...LoadOption) (*Dataset, error) {
	defer logging.TimeTrack(time.Now(), "load "+filepath.Base(path))

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	o := applyLoadOptions(opts)
	var r io.Reader = f
	var bar *progressbar.ProgressBar
	if o.Progress != nil {
		if info, err := f.Stat(); err == nil {
			bar = newProgressBar("loading "+filepath.Base(path), info.Size(), o.Progress)
			r = io.TeeReader(f, bar)
		}
	}

	ds, err := ParseCSV(r, sch, opts...)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Infof("📂 loaded %s records from %s", engine.FormatInt(len(ds.Records)), filepath.Base(path))
	return ds, nil
}

func newProgressBar(description string, size int64, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// ============================================================================
// EXPORT
// ============================================================================

// WriteCSV writes a view as CSV with upper-case SIM-style headers.
// keys selects and orders the columns; empty means every dimension followed
// by every non-synthetic measure.
func WriteCSV(w io.Writer, view engine.RecordView, keys []string, delimiter rune) error {
	measures := make(map[string]bool)
	for _, k := range view.MeasureKeys() {
		measures[k] = true
	}
	if len(keys) == 0 {
		keys = append(keys, view.DimensionKeys()...)
		for _, k := range view.MeasureKeys() {
			if k != schema.RecordCountKey {
				keys = append(keys, k)
			}
		}
	}

	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	header := make([]string, len(keys))
	for i, k := range keys {
		header[i] = strings.ToUpper(k)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(keys))
	for i := 0; i < view.Len(); i++ {
		for j, k := range keys {
			if measures[k] {
				row[j] = strconv.FormatFloat(view.Measure(i, k), 'f', -1, 64)
			} else {
				row[j] = view.Dimension(i, k)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
