package engine

import (
	"errors"
	"fmt"
	"math/rand"
)

// ============================================================================
// RESAMPLE: Class rebalancing by random sampling
// ============================================================================
// Every class is redrawn to a common target size. Output is the
// concatenation of per-class SubViews, ordered by class label, so the
// resampled view never copies a record.
// ============================================================================

// Resampling strategies.
const (
	StrategyUpsample   = "upsample"
	StrategyDownsample = "downsample"
)

var (
	// ErrEmptyView is returned when there is nothing to resample.
	ErrEmptyView = errors.New("engine: view has no records")
	// ErrUnknownStrategy is returned for a strategy other than upsample/downsample.
	ErrUnknownStrategy = errors.New("engine: unknown resampling strategy")
)

// ResampleOptions controls Resample.
type ResampleOptions struct {
	Strategy string // StrategyUpsample (default) or StrategyDownsample
	Seed     int64  // every class is drawn from a fresh source with this seed
	Target   int    // rows per class; 0 = majority (upsample) or minority (downsample)
}

// Resample redraws every class of dimension to the same size.
//
// Upsampling draws the majority count from each class with replacement, the
// majority class included. Downsampling draws the minority count without
// replacement. The result has exactly target × classes rows.
func Resample(view RecordView, dimension string, opts ResampleOptions) (RecordView, error) {
	if view == nil || view.Len() == 0 {
		return nil, ErrEmptyView
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategyUpsample
	}
	if strategy != StrategyUpsample && strategy != StrategyDownsample {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	classes := ValueCounts(view, dimension, CountOptions{SortBy: "label_asc"})

	target := opts.Target
	if target <= 0 {
		stats := Describe(classes)
		if strategy == StrategyUpsample {
			target = int(stats.Max)
		} else {
			target = int(stats.Min)
		}
	}

	parts := make([]RecordView, 0, len(classes))
	for _, class := range classes {
		rng := rand.New(rand.NewSource(opts.Seed))
		n := class.View.Len()

		var picks []int
		if strategy == StrategyDownsample && target <= n {
			picks = rng.Perm(n)[:target]
		} else {
			picks = make([]int, target)
			for j := range picks {
				picks[j] = rng.Intn(n)
			}
		}
		parts = append(parts, newSubView(class.View, picks))
	}

	return Concat(parts...), nil
}
