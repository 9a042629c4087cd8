package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/schema"
)

// ============================================================================
// ANALYSIS: The five SIM exploratory analyses
// ============================================================================
// Each analysis is a straight line: filter/aggregate → chart → commentary.
// The numbers come from the engine; this package adds the SIM-specific
// wording, palettes and checks. Reports are plain data so the console
// printer, the encoders, the workbook writer and the GUI share them.
// ============================================================================

var (
	// ErrMissingColumn is returned when an analysis needs a column the file lacks.
	ErrMissingColumn = errors.New("analysis: missing column")
	// ErrNoRecords is returned when a filter leaves nothing to analyze.
	ErrNoRecords = errors.New("analysis: no records")
	// ErrUnknownAnalysis is returned by Lookup for an unknown key.
	ErrUnknownAnalysis = errors.New("analysis: unknown analysis")
)

// Settings parameterizes the analyses.
type Settings struct {
	TopN     int    `yaml:"top_n"`    // classes in the top-causes and balance analyses
	Cause    string `yaml:"cause"`    // ICD-10 code for the sex breakdown
	Seed     int64  `yaml:"seed"`     // resampling seed
	Strategy string `yaml:"strategy"` // engine.StrategyUpsample or engine.StrategyDownsample
	Target   int    `yaml:"target"`   // rows per class after balancing; 0 = automatic
}

// DefaultSettings returns the settings of the original study.
func DefaultSettings() Settings {
	return Settings{
		TopN:     5,
		Cause:    "C500",
		Seed:     42,
		Strategy: engine.StrategyUpsample,
	}
}

// Report is the outcome of one analysis.
type Report struct {
	Key          string   `json:"key" yaml:"key"`
	Title        string   `json:"title" yaml:"title"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Summary      string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Observations []string `json:"observations,omitempty" yaml:"observations,omitempty"`

	Chart *engine.ChartConfig  `json:"chart,omitempty" yaml:"chart,omitempty"`
	Table *engine.TableData    `json:"table,omitempty" yaml:"table,omitempty"`
	Stats *engine.Distribution `json:"stats,omitempty" yaml:"stats,omitempty"`

	// Before holds the class distribution prior to balancing.
	Before      *engine.TableData    `json:"before,omitempty" yaml:"before,omitempty"`
	BeforeStats *engine.Distribution `json:"beforeStats,omitempty" yaml:"beforeStats,omitempty"`

	Result *engine.Result    `json:"-" yaml:"-"`
	Rows   engine.RecordView `json:"-" yaml:"-"` // records behind the chart (filtered or resampled)
}

// Text joins the description, summary and observations into one commentary block.
func (r *Report) Text() string {
	var parts []string
	if r.Description != "" {
		parts = append(parts, r.Description)
	}
	if r.Summary != "" {
		parts = append(parts, r.Summary)
	}
	parts = append(parts, r.Observations...)
	return strings.Join(parts, "\n\n")
}

// Analyzer runs analyses over one loaded dataset. The view is read-only
// and may be shared by concurrent analyzers.
type Analyzer struct {
	view     engine.RecordView
	schema   *schema.Config
	settings Settings
	opts     []engine.Option
}

// New creates an Analyzer. A nil schema means the built-in SIM dictionary;
// zero-valued settings fields fall back to DefaultSettings.
func New(view engine.RecordView, sch *schema.Config, settings Settings, opts ...engine.Option) *Analyzer {
	if sch == nil {
		sch = schema.SIM()
	}
	def := DefaultSettings()
	if settings.TopN <= 0 {
		settings.TopN = def.TopN
	}
	if settings.Cause == "" {
		settings.Cause = def.Cause
	}
	if settings.Strategy == "" {
		settings.Strategy = def.Strategy
	}
	settings.Cause = strings.ToUpper(strings.TrimSpace(settings.Cause))
	return &Analyzer{view: view, schema: sch, settings: settings, opts: opts}
}

// Settings returns the effective settings.
func (a *Analyzer) Settings() Settings { return a.settings }

// View returns the analyzed records.
func (a *Analyzer) View() engine.RecordView { return a.view }

func (a *Analyzer) require(keys ...string) error {
	if a.view == nil || a.view.Len() == 0 {
		return fmt.Errorf("%w: the dataset is empty", ErrNoRecords)
	}
	var missing []string
	for _, k := range keys {
		if !engine.HasDimension(a.view, k) {
			missing = append(missing, engine.LabelForDimension(k))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func (a *Analyzer) execute(spec engine.QuerySpec, view engine.RecordView) (*engine.Result, error) {
	return engine.Execute(spec, view, a.opts...)
}

// ============================================================================
// CATALOG
// ============================================================================

// Entry is one runnable analysis.
type Entry struct {
	Key   string
	Label string
	Run   func(*Analyzer) (*Report, error)
}

// Analysis keys, in catalog order.
const (
	KeyAssistMed = "assistmed"
	KeyCauses    = "causabas"
	KeyBalance   = "balance"
	KeySex       = "sexo"
	KeyProposal  = "proposal"
)

// Catalog lists the analyses in presentation order.
func Catalog() []Entry {
	return []Entry{
		{Key: KeyAssistMed, Label: "1. Medical assistance (ASSISTMED)", Run: (*Analyzer).AssistMed},
		{Key: KeyCauses, Label: "2. Top underlying causes (CAUSABAS)", Run: (*Analyzer).TopCauses},
		{Key: KeyBalance, Label: "3. Class balancing", Run: (*Analyzer).Balance},
		{Key: KeySex, Label: "4. Sex for one cause (SEXO)", Run: (*Analyzer).SexForCause},
		{Key: KeyProposal, Label: "5. Study proposal", Run: (*Analyzer).StudyProposal},
	}
}

// Keys returns the catalog keys in order.
func Keys() []string {
	entries := Catalog()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Lookup finds a catalog entry by key (case-insensitive).
func Lookup(key string) (Entry, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, e := range Catalog() {
		if e.Key == key {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w %q (want one of %s)", ErrUnknownAnalysis, key, strings.Join(Keys(), ", "))
}

// Run executes the analysis named key.
func (a *Analyzer) Run(key string) (*Report, error) {
	e, err := Lookup(key)
	if err != nil {
		return nil, err
	}
	return e.Run(a)
}

// All runs every analysis, or only those named in keys. A failing analysis
// does not stop the others; its error is joined into the returned error.
func (a *Analyzer) All(keys ...string) ([]*Report, error) {
	if len(keys) == 0 {
		keys = Keys()
	}
	var (
		reports []*Report
		errs    []error
	)
	for _, key := range keys {
		r, err := a.Run(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		reports = append(reports, r)
	}
	return reports, errors.Join(errs...)
}
