package engine

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Describe summarizes the sizes of groups. Groups are read by Count, so the
// result is independent of the aggregation that produced Value.
func Describe(groups []Group) Distribution {
	if len(groups) == 0 {
		return Distribution{}
	}

	sizes := make([]float64, len(groups))
	for i, g := range groups {
		sizes[i] = float64(g.Count)
	}

	d := Distribution{
		Classes: len(groups),
		Total:   int(floats.Sum(sizes)),
		Min:     floats.Min(sizes),
		Max:     floats.Max(sizes),
		Mean:    stat.Mean(sizes, nil),
	}
	if len(sizes) > 1 {
		d.StdDev = stat.StdDev(sizes, nil)
	}

	top := floats.MaxIdx(sizes)
	d.Majority = groups[top].Label
	d.MajorityShare = Percent(sizes[top], float64(d.Total))
	if d.Min > 0 {
		d.ImbalanceRatio = d.Max / d.Min
	}
	return d
}
