package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent from a file.
var ErrMissingColumn = errors.New("missing required column")

var icd10 = regexp.MustCompile(ICD10Pattern)

// Validate checks that every required dimension appears in headers.
// Header matching goes through ToKey, so "ASSISTMED" satisfies "assistmed".
// All missing columns are reported in one error wrapping ErrMissingColumn.
func Validate(cfg *Config, headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[ToKey(h)] = true
	}

	var missing []string
	for _, key := range cfg.Required {
		if !present[key] {
			missing = append(missing, strings.ToUpper(key))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// ValidICD10 reports whether code looks like a SIM-style ICD-10 code
// ("C500", "I219", "X59X"). Dotted codes ("C50.0") are rejected.
func ValidICD10(code string) bool {
	return icd10.MatchString(strings.TrimSpace(code))
}

// CheckPattern counts the values of a dimension that do not match its
// Pattern. Dimensions without a pattern never report mismatches.
func (d DimensionMeta) CheckPattern(values []string) (mismatches int, err error) {
	if d.Pattern == "" {
		return 0, nil
	}
	re, err := regexp.Compile(d.Pattern)
	if err != nil {
		return 0, fmt.Errorf("dimension %s: invalid pattern: %w", d.Key, err)
	}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" && !re.MatchString(v) {
			mismatches++
		}
	}
	return mismatches, nil
}
