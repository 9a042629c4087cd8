// Package config loads simstat settings from a YAML file, an optional .env
// file and SIMSTAT_* environment variables, in that order of precedence
// (later wins). Command-line flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/simstat/analysis"
	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/helpers"
	"github.com/spektr-org/simstat/render"
	"github.com/spektr-org/simstat/schema"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "simstat.yaml"

// Config is the full runtime configuration.
type Config struct {
	File      string            `yaml:"file"`
	Delimiter string            `yaml:"delimiter"`
	Encoding  string            `yaml:"encoding"`
	LogLevel  string            `yaml:"log_level"`
	Analysis  analysis.Settings `yaml:"analysis"`
	Output    Output            `yaml:"output"`
}

// Output controls chart rendering and exports.
type Output struct {
	Renderer string      `yaml:"renderer"`
	Dir      string      `yaml:"dir"`
	Size     render.Size `yaml:"size"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		File:      "SIM2024.csv",
		Delimiter: ";",
		Encoding:  "latin1",
		LogLevel:  "info",
		Analysis:  analysis.DefaultSettings(),
		Output: Output{
			Renderer: render.BackendGonum,
			Dir:      "charts",
			Size:     render.DefaultSize(),
		},
	}
}

// Load reads path over the defaults, then applies .env and the environment.
// A missing file is not an error unless explicit is set.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	// .env is optional; variables already set in the process are kept.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides fields from SIMSTAT_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"SIMSTAT_FILE":      &c.File,
		"SIMSTAT_DELIMITER": &c.Delimiter,
		"SIMSTAT_ENCODING":  &c.Encoding,
		"SIMSTAT_CAUSE":     &c.Analysis.Cause,
		"SIMSTAT_LOG_LEVEL": &c.LogLevel,
		"SIMSTAT_RENDERER":  &c.Output.Renderer,
		"SIMSTAT_OUT_DIR":   &c.Output.Dir,
	}
	for name, dst := range str {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("SIMSTAT_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SIMSTAT_SEED: %w", err)
		}
		c.Analysis.Seed = seed
	}
	return nil
}

// DelimiterRune returns the configured delimiter; "\t" and "tab" mean a tab.
func (c Config) DelimiterRune() rune {
	switch c.Delimiter {
	case `\t`, "tab":
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.File) == "" {
		errs = append(errs, errors.New("file is empty"))
	}
	if d := c.Delimiter; d != `\t` && d != "tab" && utf8.RuneCountInString(d) != 1 {
		errs = append(errs, fmt.Errorf("delimiter %q must be a single character", d))
	}
	if !helpers.ValidEncoding(c.Encoding) {
		errs = append(errs, fmt.Errorf("unknown encoding %q", c.Encoding))
	}
	if _, err := render.New(c.Output.Renderer, c.Output.Size); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.TopN < 1 {
		errs = append(errs, fmt.Errorf("analysis.top_n must be at least 1, got %d", c.Analysis.TopN))
	}
	switch c.Analysis.Strategy {
	case "", engine.StrategyUpsample, engine.StrategyDownsample:
	default:
		errs = append(errs, fmt.Errorf("unknown balancing strategy %q", c.Analysis.Strategy))
	}
	if c.Analysis.Target < 0 {
		errs = append(errs, errors.New("analysis.target must not be negative"))
	}
	if c.Analysis.Cause != "" && !schema.ValidICD10(strings.ToUpper(c.Analysis.Cause)) {
		errs = append(errs, fmt.Errorf("cause %q is not an ICD-10 code", c.Analysis.Cause))
	}
	return errors.Join(errs...)
}
