package schema

import (
	"sort"
	"strings"

	"github.com/spektr-org/simstat/engine"
)

// ============================================================================
// SIM DATA DICTIONARY: Mortality Information System (DATASUS)
// ============================================================================
// Built-in description of the coded fields the analyses use. Columns not
// listed here are skipped by the loader unless unmapped columns are kept.
// ============================================================================

// Dimension keys of the SIM columns the analyses depend on.
const (
	KeyAssistMed = "assistmed"
	KeyCausaBas  = "causabas"
	KeySexo      = "sexo"
)

// ICD10Pattern matches an ICD-10 code as stored in SIM: one letter, two
// digits and an optional fourth character (digit or X), without the dot.
const ICD10Pattern = `^[A-Z][0-9]{2}[0-9X]?$`

var (
	yesNoUnknown = map[string]string{"1": "Yes", "2": "No", "9": "Unknown"}
	schooling    = map[string]string{"1": "None", "2": "1 to 3 years", "3": "4 to 7 years", "4": "8 to 11 years", "5": "12 years or more", "9": "Unknown"}
)

// SIM returns the built-in SIM schema.
func SIM() *Config {
	dims := []DimensionMeta{
		coded(KeyAssistMed, "Medical assistance",
			"Whether the deceased received medical assistance during the illness that caused death.",
			yesNoUnknown),
		{
			Key:             KeyCausaBas,
			DisplayName:     "Underlying cause",
			Description:     "Underlying cause of death, ICD-10 code (one letter and three digits, e.g. C500 = malignant neoplasm of the breast).",
			Pattern:         ICD10Pattern,
			Groupable:       true,
			Filterable:      true,
			CardinalityHint: "high",
		},
		coded(KeySexo, "Sex", "Sex of the deceased.",
			map[string]string{"0": "Unknown", "1": "Male", "2": "Female", "9": "Unknown"}),
		coded("tipobito", "Death type", "Fetal or non-fetal death.",
			map[string]string{"1": "Fetal", "2": "Non-fetal"}),
		coded("racacor", "Race/colour", "Race or skin colour as recorded on the certificate.",
			map[string]string{"1": "White", "2": "Black", "3": "Yellow", "4": "Brown", "5": "Indigenous", "9": "Unknown"}),
		coded("estciv", "Marital status", "Marital status of the deceased.",
			map[string]string{"1": "Single", "2": "Married", "3": "Widowed", "4": "Legally separated", "5": "Stable union", "9": "Unknown"}),
		coded("esc", "Schooling", "Years of schooling.", schooling),
		coded("lococor", "Place of death", "Where the death occurred.",
			map[string]string{"1": "Hospital", "2": "Other health facility", "3": "Home", "4": "Public road", "5": "Other", "6": "Indigenous village", "9": "Unknown"}),
		coded("circobito", "Circumstance", "Circumstance of a violent death.",
			map[string]string{"1": "Accident", "2": "Suicide", "3": "Homicide", "4": "Other", "9": "Unknown"}),
		coded("necropsia", "Autopsy", "Whether an autopsy was performed.", yesNoUnknown),
		coded("parto", "Delivery type", "Type of delivery (fetal and infant deaths).",
			map[string]string{"1": "Vaginal", "2": "Caesarean", "9": "Unknown"}),
		{
			Key:            "dtobito",
			DisplayName:    "Date of death",
			Groupable:      true,
			Filterable:     true,
			IsTemporal:     true,
			TemporalFormat: "ddMMyyyy",
		},
		{
			Key:             "codmunres",
			DisplayName:     "Municipality of residence",
			Description:     "IBGE municipality code of residence.",
			Groupable:       true,
			Filterable:      true,
			CardinalityHint: "high",
		},
		{
			Key:         "idade",
			DisplayName: "Age (coded)",
			Description: "Three-digit coded age: the first digit is the unit (4 = years), the rest the amount.",
			Groupable:   true,
			Filterable:  true,
		},
		{
			Key:         "idademae",
			DisplayName: "Mother's age",
			Description: "Age of the mother in years (fetal and infant deaths).",
			Groupable:   true,
			Filterable:  true,
		},
		coded("escmae", "Mother's schooling", "Years of schooling of the mother (fetal and infant deaths).", schooling),
	}

	peso := DefaultMeasure("peso", "Birth weight")
	peso.Unit = "grams"
	peso.DefaultAggregation = "avg"

	return &Config{
		Name:        "SIM - Mortality Information System",
		Version:     "2024",
		Description: "Death certificate records published by the Brazilian Ministry of Health (DATASUS).",
		Dimensions:  dims,
		Measures:    []MeasureMeta{peso, recordCountMeasure()},
		Required:    []string{KeyAssistMed, KeyCausaBas, KeySexo},
	}
}

func coded(key, name, description string, codes map[string]string) DimensionMeta {
	d := DefaultDimension(key, name, nil)
	d.Description = description
	d.Codes = codes
	d.CardinalityHint = "low"
	return d
}

// Labeler adapts Config.Label to the engine's labeler signature.
func (c Config) Labeler() func(dimension, key string) string {
	return c.Label
}

func sortCodes(codes []string) {
	sort.Slice(codes, func(i, j int) bool { return engine.CompareCodes(codes[i], codes[j]) < 0 })
}

// causeNames holds short descriptions of frequent SIM underlying causes.
var causeNames = map[string]string{
	"A419": "sepsis, unspecified",
	"C349": "malignant neoplasm of bronchus or lung",
	"C500": "malignant neoplasm of the breast",
	"C509": "malignant neoplasm of the breast, unspecified",
	"C61":  "malignant neoplasm of the prostate",
	"E149": "diabetes mellitus without complications",
	"I10":  "essential (primary) hypertension",
	"I219": "acute myocardial infarction, unspecified",
	"I64":  "stroke, not specified as haemorrhage or infarction",
	"J189": "pneumonia, unspecified",
	"J449": "chronic obstructive pulmonary disease, unspecified",
	"R99":  "other ill-defined causes of mortality",
}

// CauseName returns a short English description of an ICD-10 code, or ""
// when the code is not one of the frequent causes known here.
func CauseName(code string) string {
	return causeNames[strings.ToUpper(strings.TrimSpace(code))]
}
