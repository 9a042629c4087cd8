package analysis

import (
	"fmt"
	"strings"

	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/schema"
)

// Palettes of the original charts.
var (
	assistMedColors = []string{"steelblue", "indianred", "gray"}
	crestColors     = []string{"#A5CD90", "#6BB18D", "#3F958D", "#2B7689", "#2C5985"}
	coolwarmColors  = []string{"#3B4CC0", "#B40426", "#DDDDDD"}
	balancedColors  = []string{"mediumseagreen"}
)

func newReport(key string, res *engine.Result) *Report {
	return &Report{
		Key:     key,
		Title:   res.Title,
		Summary: res.Reply,
		Chart:   res.ChartConfig,
		Table:   res.TableData,
		Stats:   res.Stats,
		Result:  res,
	}
}

// describe renders a dictionary entry: its description and code legend.
func (a *Analyzer) describe(key string) string {
	d, ok := a.schema.Dimension(key)
	if !ok {
		return ""
	}
	text := d.Description
	if legend := a.schema.CodeLegend(key); legend != "" {
		text += "\nPossible values: " + legend + "."
	}
	return text
}

func (a *Analyzer) codeAxis(key, prefix string) string {
	if legend := a.schema.CodeLegend(key); legend != "" {
		return prefix + " (" + legend + ")"
	}
	return prefix
}

// shareOf returns the percentage of records whose group key is one of keys.
func shareOf(groups []engine.Group, keys ...string) float64 {
	total, n := 0, 0
	for _, g := range groups {
		total += g.Count
		for _, k := range keys {
			if g.Key == k {
				n += g.Count
			}
		}
	}
	return engine.Percent(float64(n), float64(total))
}

// ============================================================================
// 1. ASSISTMED: distribution including missing values, by code
// ============================================================================

// AssistMed charts every ASSISTMED value, missing values included, in code order.
func (a *Analyzer) AssistMed() (*Report, error) {
	if err := a.require(schema.KeyAssistMed); err != nil {
		return nil, err
	}

	res, err := a.execute(engine.QuerySpec{
		Intent:      "chart",
		Aggregation: "count",
		GroupBy:     []string{schema.KeyAssistMed},
		SortBy:      "code_asc",
		Title:       "Distribution of ASSISTMED values",
		XLabel:      a.codeAxis(schema.KeyAssistMed, "Code"),
		YLabel:      "Frequency",
		Colors:      assistMedColors,
		Labeler:     a.schema.Labeler(),
		Reply:       "{total} records in {classes} classes; the most frequent value is {top_category} ({top_share}).",
	}, a.view)
	if err != nil {
		return nil, err
	}

	r := newReport(KeyAssistMed, res)
	r.Rows = a.view
	r.Description = a.describe(schema.KeyAssistMed)

	assisted := shareOf(res.Groups, "1")
	r.Observations = append(r.Observations, fmt.Sprintf(
		"%s of the deaths had medical assistance, %s had none and %s are unknown or missing.",
		engine.FormatPercent(assisted),
		engine.FormatPercent(shareOf(res.Groups, "2")),
		engine.FormatPercent(shareOf(res.Groups, "9", ""))))
	if assisted > 50 {
		r.Observations = append(r.Observations,
			"Most records indicate medical assistance, so most deaths happened with professional follow-up, "+
				"although some cases had no care or no information (9 = unknown).")
	} else {
		r.Observations = append(r.Observations,
			"Fewer than half of the records indicate medical assistance; "+
				"the share without care or without information deserves a closer look.")
	}
	return r, nil
}

// ============================================================================
// 2. CAUSABAS: most frequent underlying causes
// ============================================================================

// TopCauses charts the TopN most frequent CAUSABAS codes. Missing codes are not counted.
func (a *Analyzer) TopCauses() (*Report, error) {
	if err := a.require(schema.KeyCausaBas); err != nil {
		return nil, err
	}
	n := a.settings.TopN

	res, err := a.execute(engine.QuerySpec{
		Intent:      "chart",
		Aggregation: "count",
		GroupBy:     []string{schema.KeyCausaBas},
		SortBy:      "value_desc",
		Limit:       n,
		DropEmpty:   true,
		Title:       fmt.Sprintf("%d most frequent underlying causes (CAUSABAS)", n),
		XLabel:      "ICD-10 code",
		YLabel:      "Frequency",
		Colors:      crestColors,
		Reply:       "The {classes} most frequent codes account for {total} of {count} deaths; {top_category} leads with {top_count}.",
	}, a.view)
	if err != nil {
		return nil, err
	}
	if len(res.Groups) == 0 {
		return nil, fmt.Errorf("%w: CAUSABAS is empty in every record", ErrNoRecords)
	}

	r := newReport(KeyCauses, res)
	r.Rows = a.view
	r.Description = a.describe(schema.KeyCausaBas)
	r.Observations = append(r.Observations,
		"Codes follow ICD-10: one letter followed by three digits, without the dot (C500 is C50.0).")

	var named []string
	for _, g := range res.Groups {
		if name := schema.CauseName(g.Key); name != "" {
			named = append(named, g.Key+" "+name)
		}
	}
	if len(named) > 0 {
		r.Observations = append(r.Observations, "Known codes: "+strings.Join(named, "; ")+".")
	}

	if bad := a.invalidCauses(); bad > 0 {
		r.Observations = append(r.Observations, fmt.Sprintf(
			"%s records carry a CAUSABAS value that does not look like an ICD-10 code.", engine.FormatInt(bad)))
	}

	r.Observations = append(r.Observations,
		"These codes are the diseases most often recorded as the underlying cause of death in this dataset.")
	return r, nil
}

func (a *Analyzer) invalidCauses() int {
	d, ok := a.schema.Dimension(schema.KeyCausaBas)
	if !ok {
		return 0
	}
	values := make([]string, a.view.Len())
	for i := range values {
		values[i] = a.view.Dimension(i, schema.KeyCausaBas)
	}
	n, err := d.CheckPattern(values)
	if err != nil {
		return 0
	}
	return n
}

// ============================================================================
// 3. BALANCE: resample the top causes to a common class size
// ============================================================================

// Balance restricts the records to the TopN causes and resamples every
// class to the same size. Report.Rows holds the balanced records.
func (a *Analyzer) Balance() (*Report, error) {
	if err := a.require(schema.KeyCausaBas); err != nil {
		return nil, err
	}
	s := a.settings

	top := engine.ValueCounts(a.view, schema.KeyCausaBas, engine.CountOptions{Limit: s.TopN, DropEmpty: true})
	if len(top) == 0 {
		return nil, fmt.Errorf("%w: CAUSABAS is empty in every record", ErrNoRecords)
	}
	subset := engine.ApplyFilters(a.view, engine.Filters{
		Dimensions: map[string][]string{schema.KeyCausaBas: engine.Keys(top)},
	})

	beforeSpec := engine.QuerySpec{
		Aggregation: "count",
		GroupBy:     []string{schema.KeyCausaBas},
		Title:       "Class distribution before balancing",
		XLabel:      "ICD-10 code",
	}
	before := engine.ValueCounts(subset, schema.KeyCausaBas, engine.CountOptions{DropEmpty: true})
	beforeStats := engine.Describe(before)

	balanced, err := engine.Resample(subset, schema.KeyCausaBas, engine.ResampleOptions{
		Strategy: s.Strategy,
		Seed:     s.Seed,
		Target:   s.Target,
	})
	if err != nil {
		return nil, err
	}

	res, err := a.execute(engine.QuerySpec{
		Intent:      "chart",
		Aggregation: "count",
		GroupBy:     []string{schema.KeyCausaBas},
		SortBy:      "value_desc",
		Title:       "Class distribution after balancing",
		XLabel:      "ICD-10 code",
		YLabel:      "Records (balanced)",
		Colors:      balancedColors,
		Reply:       "{total} records: {classes} classes of {top_count} each.",
	}, balanced)
	if err != nil {
		return nil, err
	}

	r := newReport(KeyBalance, res)
	r.Rows = balanced
	r.Before = engine.BuildTable(beforeSpec, before, subset, "")
	r.BeforeStats = &beforeStats

	perClass := 0
	if res.Stats != nil {
		perClass = int(res.Stats.Max)
	}
	switch s.Strategy {
	case engine.StrategyDownsample:
		r.Description = fmt.Sprintf(
			"Downsampling draws %s records from every class without replacement, "+
				"so each class matches the smallest one.", engine.FormatInt(perClass))
	default:
		r.Description = fmt.Sprintf(
			"Upsampling replicates records of the minority classes, drawing with replacement, "+
				"until every class has %s records.", engine.FormatInt(perClass))
	}

	r.Observations = append(r.Observations,
		fmt.Sprintf("Before: %s records in %d classes, largest %s (%s), imbalance ratio %.2f.",
			engine.FormatInt(beforeStats.Total), beforeStats.Classes, beforeStats.Majority,
			engine.FormatPercent(beforeStats.MajorityShare), beforeStats.ImbalanceRatio),
		fmt.Sprintf("After: %s records = %s per class × %d classes.",
			engine.FormatInt(balanced.Len()), engine.FormatInt(perClass), len(res.Groups)),
		fmt.Sprintf("Every class is drawn from a generator seeded with %d, so reruns give the same rows.", s.Seed),
		"The approach is simple and effective for avoiding class bias in exploratory analysis, "+
			"but replicated rows add no new information.")
	return r, nil
}

// ============================================================================
// 4. SEXO: sex distribution among the deaths by one cause
// ============================================================================

// SexForCause charts SEXO among the records whose CAUSABAS equals Settings.Cause.
func (a *Analyzer) SexForCause() (*Report, error) {
	if err := a.require(schema.KeyCausaBas, schema.KeySexo); err != nil {
		return nil, err
	}
	cause := a.settings.Cause
	filters := engine.Filters{Dimensions: map[string][]string{schema.KeyCausaBas: {cause}}}

	subset := engine.ApplyFilters(a.view, filters)
	if subset.Len() == 0 {
		return nil, fmt.Errorf("%w with CAUSABAS=%s", ErrNoRecords, cause)
	}

	name := schema.CauseName(cause)
	title := "Distribution of SEXO for deaths by " + cause
	if name != "" {
		title += " (" + name + ")"
	}

	res, err := a.execute(engine.QuerySpec{
		Intent:      "chart",
		Aggregation: "count",
		Filters:     filters,
		GroupBy:     []string{schema.KeySexo},
		SortBy:      "code_asc",
		DropEmpty:   true,
		Title:       title,
		XLabel:      a.codeAxis(schema.KeySexo, "SEXO"),
		YLabel:      "Frequency",
		Colors:      coolwarmColors,
		Labeler:     a.schema.Labeler(),
		Reply:       "{count} deaths with {filter_label}; {top_category} accounts for {top_share}.",
	}, a.view)
	if err != nil {
		return nil, err
	}

	r := newReport(KeySex, res)
	r.Rows = subset
	if name == "" {
		name = "this ICD-10 code"
	}
	r.Description = fmt.Sprintf("Filtering CAUSABAS = %s selects the deaths whose underlying cause is %s.", cause, name)

	if res.Stats != nil && res.Stats.MajorityShare >= 90 {
		r.Observations = append(r.Observations, fmt.Sprintf(
			"%s accounts for almost every record (%s).", res.Stats.Majority, engine.FormatPercent(res.Stats.MajorityShare)))
	} else {
		recorded := 0
		for _, g := range res.Groups {
			recorded += g.Count
		}
		parts := make([]string, len(res.Groups))
		for i, g := range res.Groups {
			parts[i] = fmt.Sprintf("%s %s", g.Label, engine.FormatPercent(engine.Percent(float64(g.Count), float64(recorded))))
		}
		r.Observations = append(r.Observations, "SEXO is split as "+strings.Join(parts, ", ")+".")
	}
	if strings.HasPrefix(cause, "C50") {
		r.Observations = append(r.Observations,
			"Breast cancer affects mostly women, so the predominance of the female sex confirms the consistency of the data.")
	}
	r.Observations = append(r.Observations,
		"Balancing SEXO here would not be appropriate: it would distort the biological and epidemiological profile of the disease.")
	return r, nil
}

// ============================================================================
// 5. PROPOSAL: study proposal (text only)
// ============================================================================

// proposalColumns are the SIM columns a maternal and neonatal mortality study needs.
var proposalColumns = []string{"assistmed", "parto", "peso", "idademae", "escmae"}

// StudyProposal returns the study proposal. It never fails; the observations
// report which of the needed columns the loaded file provides.
func (a *Analyzer) StudyProposal() (*Report, error) {
	r := &Report{
		Key:   KeyProposal,
		Title: "Study proposal",
		Description: "Analyze maternal and neonatal mortality in Brazil, relating the mother's age and schooling, " +
			"medical assistance (ASSISTMED), delivery type (PARTO) and birth weight (PESO).",
		Rows: a.view,
	}
	r.Observations = append(r.Observations,
		"Such a study would identify risk factors associated with infant mortality "+
			"and guide public policies on reproductive health.")

	if a.view == nil {
		return r, nil
	}
	present := make(map[string]bool)
	for _, k := range a.view.DimensionKeys() {
		present[k] = true
	}
	for _, k := range a.view.MeasureKeys() {
		present[k] = true
	}
	var have, lack []string
	for _, k := range proposalColumns {
		if present[k] {
			have = append(have, engine.LabelForDimension(k))
		} else {
			lack = append(lack, engine.LabelForDimension(k))
		}
	}
	if len(have) > 0 {
		r.Observations = append(r.Observations, "Columns available in this file: "+strings.Join(have, ", ")+".")
	}
	if len(lack) > 0 {
		r.Observations = append(r.Observations, "Columns to add from the full SIM extract: "+strings.Join(lack, ", ")+".")
	}

	if present["peso"] {
		weighed := 0
		for i := 0; i < a.view.Len(); i++ {
			if a.view.Measure(i, "peso") > 0 {
				weighed++
			}
		}
		r.Summary = fmt.Sprintf("%s of %s records carry a birth weight.",
			engine.FormatInt(weighed), engine.FormatInt(a.view.Len()))
	}
	return r, nil
}
