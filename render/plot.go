package render

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spektr-org/simstat/engine"
)

// PlotRenderer draws bar charts with gonum.org/v1/plot.
type PlotRenderer struct {
	Size   Size
	Format string // "png" or "svg"
}

// Ext implements Renderer.
func (r *PlotRenderer) Ext() string {
	if r.Format == "" {
		return "png"
	}
	return r.Format
}

// Render implements Renderer. Every bar is its own BarChart so single-series
// charts can color bars individually; multi-series charts are grouped with
// offsets and get a legend.
func (r *PlotRenderer) Render(cfg *engine.ChartConfig, w io.Writer) error {
	if err := validate(cfg); err != nil {
		return err
	}
	p, err := r.plot(cfg)
	if err != nil {
		return err
	}

	size := r.Size.orDefault()
	width := vg.Length(size.Width) * vg.Inch / 96
	height := vg.Length(size.Height) * vg.Inch / 96
	wt, err := p.WriterTo(width, height, r.Ext())
	if err != nil {
		return fmt.Errorf("gonum plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func (r *PlotRenderer) plot(cfg *engine.ChartConfig) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = cfg.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = cfg.XAxis
	p.Y.Label.Text = cfg.YAxis
	p.Y.Min = 0

	if cfg.ShowGrid {
		grid := plotter.NewGrid()
		grid.Vertical.Width = 0
		p.Add(grid)
	}

	nSeries := len(cfg.Series)
	barWidth := vg.Points(40)
	if nSeries > 1 {
		barWidth = vg.Points(float64(60 / nSeries))
	}

	maxValue := 0.0
	for k, s := range cfg.Series {
		offset := (vg.Length(k) - vg.Length(nSeries-1)/2) * barWidth
		for i, pt := range s.Data {
			bars, err := plotter.NewBarChart(plotter.Values{pt.Value}, barWidth)
			if err != nil {
				return nil, fmt.Errorf("gonum plot: %w", err)
			}
			bars.XMin = float64(i)
			bars.Offset = offset
			bars.Color = pointColor(cfg, s, i)
			bars.LineStyle.Width = vg.Length(0)
			p.Add(bars)
			if i == 0 && cfg.ShowLegend {
				p.Legend.Add(s.Name, bars)
			}
			maxValue = math.Max(maxValue, pt.Value)
		}
	}

	// Value labels on top of single-series bars.
	if nSeries == 1 {
		xys := make(plotter.XYs, len(cfg.Series[0].Data))
		texts := make([]string, len(cfg.Series[0].Data))
		for i, pt := range cfg.Series[0].Data {
			xys[i].X = float64(i)
			xys[i].Y = pt.Value
			texts[i] = engine.FormatNumber(pt.Value)
		}
		lbls, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: texts})
		if err != nil {
			return nil, fmt.Errorf("gonum plot: %w", err)
		}
		for i := range lbls.TextStyle {
			lbls.TextStyle[i].XAlign = draw.XCenter
		}
		p.Add(lbls)
	}

	p.Y.Max = maxValue * 1.1
	if p.Y.Max == 0 {
		p.Y.Max = 1
	}
	p.NominalX(labels(cfg)...)
	if len(cfg.Series[0].Data) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	if cfg.ShowLegend {
		p.Legend.Top = true
	}
	return p, nil
}
