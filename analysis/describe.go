package analysis

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/spektr-org/simstat/engine"
)

// ============================================================================
// DESCRIBE: descriptive statistics through a gota DataFrame
// ============================================================================

// Frame copies the selected columns of a view into a DataFrame. Dimensions
// become string series and measures float series. A zero measure is stored
// as NaN: SIM leaves PESO blank outside perinatal deaths, and a blank is not
// a weight of zero. Empty keys selects every dimension and measure.
func Frame(view engine.RecordView, keys ...string) (dataframe.DataFrame, error) {
	measures := make(map[string]bool)
	for _, k := range view.MeasureKeys() {
		measures[k] = true
	}
	dims := make(map[string]bool)
	for _, k := range view.DimensionKeys() {
		dims[k] = true
	}

	if len(keys) == 0 {
		keys = append(keys, view.DimensionKeys()...)
		for _, k := range view.MeasureKeys() {
			if k != "record_count" {
				keys = append(keys, k)
			}
		}
	}
	for _, k := range keys {
		if !dims[k] && !measures[k] {
			return dataframe.DataFrame{}, fmt.Errorf("%w: %s", ErrMissingColumn, engine.LabelForDimension(k))
		}
	}
	if view.Len() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: the dataset is empty", ErrNoRecords)
	}

	cols := make([]series.Series, 0, len(keys))
	for _, k := range keys {
		name := engine.LabelForDimension(k)
		if measures[k] {
			vals := make([]float64, view.Len())
			for i := range vals {
				if v := view.Measure(i, k); v != 0 {
					vals[i] = v
				} else {
					vals[i] = math.NaN()
				}
			}
			cols = append(cols, series.New(vals, series.Float, name))
			continue
		}
		vals := make([]string, view.Len())
		for i := range vals {
			vals[i] = view.Dimension(i, k)
		}
		cols = append(cols, series.New(vals, series.String, name))
	}

	df := dataframe.New(cols...)
	return df, df.Err
}

// DescribeFrame returns the gota summary (mean, median, std, min, quartiles,
// max) of the selected columns. Each numeric column is summarized over the
// rows where it has a value; coded columns over every row. Without keys,
// numeric columns with no value at all are left out.
func DescribeFrame(view engine.RecordView, keys ...string) (dataframe.DataFrame, error) {
	df, err := Frame(view, keys...)
	if err != nil {
		return df, err
	}

	var desc dataframe.DataFrame
	described := 0
	for _, name := range df.Names() {
		col := df.Col(name)
		if col.Type() == series.Float {
			present := make([]int, 0, col.Len())
			for i, nan := range col.IsNaN() {
				if !nan {
					present = append(present, i)
				}
			}
			if len(present) == 0 {
				if len(keys) == 0 {
					continue
				}
				return dataframe.DataFrame{}, fmt.Errorf("%w: %s has no recorded values", ErrNoRecords, name)
			}
			col = col.Subset(present)
		}

		d := dataframe.New(col).Describe()
		if d.Err != nil {
			return d, d.Err
		}
		if described == 0 {
			desc = d
		} else {
			desc = desc.CBind(d.Select(1))
		}
		described++
	}
	if described == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("%w: no column has recorded values", ErrNoRecords)
	}
	return desc, desc.Err
}
