package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/spektr-org/simstat/analysis"
	"github.com/spektr-org/simstat/config"
	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/helpers"
	"github.com/spektr-org/simstat/logging"
	"github.com/spektr-org/simstat/render"
	"github.com/spektr-org/simstat/schema"
)

// ============================================================================
// SIMVIEWER: one window per analysis
// ============================================================================

type viewer struct {
	app      fyne.App
	window   fyne.Window
	analyzer *analysis.Analyzer
	renderer render.Renderer
	size     render.Size
}

func main() {
	configPath := flag.String("config", "", "Configuration file (default simstat.yaml when present)")
	fileFlag := flag.String("file", "", "SIM CSV extract")
	flag.Parse()

	cfg, err := config.Load(*configPath, *configPath != "")
	if err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
	if *fileFlag != "" {
		cfg.File = *fileFlag
	}
	logging.SetLevel(cfg.LogLevel)

	a := app.NewWithID("org.spektr.simstat.viewer")
	w := a.NewWindow("SIM Viewer")
	w.Resize(fyne.NewSize(440, 400))

	v := &viewer{
		app:      a,
		window:   w,
		renderer: &render.GoChartRenderer{Size: cfg.Output.Size},
		size:     cfg.Output.Size,
	}
	status := widget.NewLabel("")
	status.Wrapping = fyne.TextWrapWord

	an, err := load(cfg)
	if err != nil {
		status.SetText("Could not load " + cfg.File)
	} else {
		v.analyzer = an
		status.SetText(fmt.Sprintf("%s: %s records", cfg.File, engine.FormatInt(an.View().Len())))
	}

	w.SetContent(container.NewBorder(status, nil, nil, nil, v.menu()))
	if err != nil {
		dialog.ShowError(err, w)
	}
	w.ShowAndRun()
}

// load reads the configured file against the SIM dictionary.
func load(cfg config.Config) (*analysis.Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sim := schema.SIM()
	ds, err := helpers.ReadFile(cfg.File, *sim,
		helpers.WithDelimiter(cfg.DelimiterRune()),
		helpers.WithEncoding(cfg.Encoding),
	)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(sim, ds.Headers); err != nil {
		return nil, err
	}
	return analysis.New(ds.View(), sim, cfg.Analysis), nil
}

// menu has one button per catalog entry.
func (v *viewer) menu() fyne.CanvasObject {
	box := container.NewVBox()
	for _, e := range analysis.Catalog() {
		e := e
		btn := widget.NewButton(e.Label, func() { v.open(e) })
		if v.analyzer == nil {
			btn.Disable()
		}
		box.Add(btn)
	}
	return container.NewVScroll(box)
}

func (v *viewer) open(e analysis.Entry) {
	if v.analyzer == nil {
		dialog.ShowError(errors.New("no dataset loaded"), v.window)
		return
	}
	rep, err := e.Run(v.analyzer)
	if err != nil {
		dialog.ShowError(err, v.window)
		return
	}
	content, err := v.reportContent(rep)
	if err != nil {
		dialog.ShowError(err, v.window)
	}
	win := v.app.NewWindow(rep.Title)
	win.SetContent(content)
	win.Resize(fyne.NewSize(float32(v.size.Width)+40, float32(v.size.Height)+320))
	win.Show()
}

// reportContent lays out the chart, the table and the commentary of rep in a
// vertical scroll. A chart that fails to render is left out and its error
// returned along with the rest of the content.
func (v *viewer) reportContent(rep *analysis.Report) (fyne.CanvasObject, error) {
	var (
		objs   []fyne.CanvasObject
		imgErr error
	)
	if rep.Chart != nil {
		img, err := chartImage(v.renderer, rep.Chart)
		if err != nil {
			imgErr = fmt.Errorf("%s chart: %w", rep.Key, err)
		} else {
			ci := canvas.NewImageFromImage(img)
			ci.FillMode = canvas.ImageFillContain
			ci.SetMinSize(fyne.NewSize(float32(v.size.Width), float32(v.size.Height)))
			objs = append(objs, ci, widget.NewSeparator())
		}
	}
	if t := rep.Table; t != nil && len(t.Columns) > 0 {
		table := tableWidget(t)
		holder := container.NewGridWrap(fyne.NewSize(float32(v.size.Width), float32(36*(len(t.Rows)+1))), table)
		objs = append(objs, holder, widget.NewSeparator())
	}
	text := widget.NewLabel(rep.Text())
	text.Wrapping = fyne.TextWrapWord
	objs = append(objs, text)

	return container.NewVScroll(container.NewVBox(objs...)), imgErr
}

// chartImage renders cfg to PNG and decodes it for display.
func chartImage(r render.Renderer, cfg *engine.ChartConfig) (image.Image, error) {
	data, err := render.Bytes(r, cfg)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(data))
}

// tableWidget shows t with a header row.
func tableWidget(t *engine.TableData) *widget.Table {
	headers := t.Headers()
	table := widget.NewTable(
		func() (int, int) { return len(t.Rows) + 1, len(t.Columns) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, o fyne.CanvasObject) {
			lbl := o.(*widget.Label)
			if id.Row == 0 {
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				lbl.SetText(headers[id.Col])
				return
			}
			lbl.TextStyle = fyne.TextStyle{}
			row := t.Rows[id.Row-1]
			if id.Col < len(row) {
				lbl.SetText(row[id.Col])
			} else {
				lbl.SetText("")
			}
		},
	)
	for i := range t.Columns {
		width := float32(110)
		if i == 0 {
			width = 220
		}
		table.SetColumnWidth(i, width)
	}
	return table
}
