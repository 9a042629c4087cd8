package engine

// ============================================================================
// TEXT BUILDER: Produces TextData for simple queries
// ============================================================================

// BuildText produces text response data from filtered records.
func BuildText(spec QuerySpec, view RecordView, measure string) *TextData {
	label := spec.Filters.Label()
	if view.Len() == 0 {
		return &TextData{Value: "0", Filter: label}
	}

	var value float64
	switch spec.Aggregation {
	case "sum":
		value = SumMeasure(view, measure)
	case "avg":
		value = AvgMeasure(view, measure)
	case "max":
		value = MaxMeasure(view, measure)
	case "min":
		value = MinMeasure(view, measure)
	default:
		value = float64(view.Len())
	}

	unit := ""
	if spec.Aggregation == "count" || spec.Aggregation == "" {
		unit = "records"
	}

	return &TextData{
		Value:    FormatNumber(value),
		RawValue: value,
		Unit:     unit,
		Count:    view.Len(),
		Filter:   label,
	}
}
