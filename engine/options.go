package engine

import (
	"log"

	"github.com/spektr-org/simstat/logging"
)

// ============================================================================
// ENGINE OPTIONS: Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	DefaultMeasure string // default measure key if QuerySpec.Measure is empty
	Logger         *log.Logger
}

// WithDefaultMeasure sets the measure to aggregate when QuerySpec.Measure is empty.
func WithDefaultMeasure(measure string) Option {
	return func(c *config) {
		c.DefaultMeasure = measure
	}
}

// WithLogger routes engine progress lines to l instead of the shared logger.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.Logger = l
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{
		DefaultMeasure: "record_count",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
		return
	}
	logging.Debugf(format, args...)
}
