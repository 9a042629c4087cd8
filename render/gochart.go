package render

import (
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/spektr-org/simstat/engine"
)

// GoChartRenderer draws bar charts with wcharczuk/go-chart. Only the first
// series is drawn; multi-series configs are flattened to "category/series" bars.
type GoChartRenderer struct {
	Size Size
}

// Ext implements Renderer.
func (r *GoChartRenderer) Ext() string { return "png" }

// Render implements Renderer.
func (r *GoChartRenderer) Render(cfg *engine.ChartConfig, w io.Writer) error {
	if err := validate(cfg); err != nil {
		return err
	}
	size := r.Size.orDefault()

	bars := r.bars(cfg)
	maxValue := 0.0
	for _, b := range bars {
		if b.Value > maxValue {
			maxValue = b.Value
		}
	}
	if maxValue == 0 {
		maxValue = 1
	}

	barWidth := (size.Width - 120) / (len(bars) * 2)
	if barWidth > 80 {
		barWidth = 80
	}
	if barWidth < 8 {
		barWidth = 8
	}

	ch := chart.BarChart{
		Title:      cfg.Title,
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Name:  cfg.YAxis,
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return engine.FormatNumber(f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("go-chart: %w", err)
	}
	return nil
}

func (r *GoChartRenderer) bars(cfg *engine.ChartConfig) []chart.Value {
	var out []chart.Value
	for _, s := range cfg.Series {
		for i, pt := range s.Data {
			label := pt.Label
			if len(cfg.Series) > 1 {
				label = pt.Label + "/" + s.Name
			}
			col := pointColor(cfg, s, i)
			out = append(out, chart.Value{
				Label: label,
				Value: pt.Value,
				Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
			})
		}
	}
	return out
}
