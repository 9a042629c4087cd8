package engine

// ============================================================================
// CHART BUILDER: Produces ChartConfig from QuerySpec + Groups
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4682B4", "#CD5C5C", "#808080", "#3CB371", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a ChartConfig from a QuerySpec and aggregated groups.
func BuildChart(spec QuerySpec, groups []Group) *ChartConfig {
	if len(groups) == 0 {
		return nil
	}

	chartType := spec.Visualize
	if chartType == "" || chartType == "chart" {
		chartType = "bar"
	}

	config := &ChartConfig{
		ChartType: chartType,
		Title:     spec.Title,
		XAxis:     spec.XLabel,
		YAxis:     spec.YLabel,
		ShowGrid:  true,
	}

	if config.XAxis == "" && len(spec.GroupBy) > 0 {
		config.XAxis = LabelForDimension(spec.GroupBy[0])
	}
	if config.YAxis == "" {
		config.YAxis = LabelForAggregation(spec.Aggregation)
	}

	if len(spec.GroupBy) >= 2 && hasSubGroups(groups) {
		config.Series = buildMultiSeries(groups)
		config.ShowLegend = true
	} else {
		config.Series = buildSingleSeries(groups, spec)
	}

	config.Colors = assignColors(len(groups), spec.Colors)
	return config
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(groups []Group, spec QuerySpec) []ChartSeries {
	name := spec.Title
	if name == "" {
		name = "Value"
	}

	palette := spec.Colors
	points := make([]ChartPoint, 0, len(groups))
	for i, g := range groups {
		p := ChartPoint{
			Label: g.Label,
			Value: RoundTo2(g.Value),
		}
		if len(palette) > 0 {
			p.Color = palette[i%len(palette)]
		}
		points = append(points, p)
	}

	series := ChartSeries{Name: name, Data: points}
	if len(palette) == 1 {
		series.Color = palette[0]
	}
	return []ChartSeries{series}
}

func buildMultiSeries(groups []Group) []ChartSeries {
	var subKeys []string
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, sg := range g.SubGroups {
			if !seen[sg.Key] {
				seen[sg.Key] = true
				subKeys = append(subKeys, sg.Key)
			}
		}
	}
	sortCodes(subKeys)

	series := make([]ChartSeries, 0, len(subKeys))
	for i, key := range subKeys {
		points := make([]ChartPoint, 0, len(groups))
		for _, g := range groups {
			var v float64
			for _, sg := range g.SubGroups {
				if sg.Key == key {
					v = sg.Value
					break
				}
			}
			points = append(points, ChartPoint{Label: g.Label, Value: RoundTo2(v)})
		}
		name := key
		if name == "" {
			name = MissingLabel
		}
		series = append(series, ChartSeries{
			Name:  name,
			Data:  points,
			Color: defaultColors[i%len(defaultColors)],
		})
	}
	return series
}

func hasSubGroups(groups []Group) bool {
	for _, g := range groups {
		if len(g.SubGroups) > 0 {
			return true
		}
	}
	return false
}

func assignColors(count int, palette []string) []string {
	if len(palette) == 0 {
		palette = defaultColors
	}
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = palette[i%len(palette)]
	}
	return colors
}

func sortCodes(keys []string) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && CompareCodes(keys[j-1], keys[j]) > 0; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}
