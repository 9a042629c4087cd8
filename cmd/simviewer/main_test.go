package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"

	"github.com/spektr-org/simstat/analysis"
	"github.com/spektr-org/simstat/config"
	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/render"
	"github.com/spektr-org/simstat/schema"
)

func testViewer() *viewer {
	size := render.Size{Width: 400, Height: 300}
	return &viewer{app: test.NewApp(), renderer: &render.GoChartRenderer{Size: size}, size: size}
}

func sampleReport() *analysis.Report {
	return &analysis.Report{
		Key:   "assistmed",
		Title: "Distribution of ASSISTMED values",
		Chart: &engine.ChartConfig{
			Title: "Distribution of ASSISTMED values",
			Series: []engine.ChartSeries{{Name: "ASSISTMED", Data: []engine.ChartPoint{
				{Label: "1 – Yes", Value: 8, Color: "steelblue"},
				{Label: "2 – No", Value: 3, Color: "indianred"},
			}}},
		},
		Table: &engine.TableData{
			Columns: []engine.Column{{Key: "assistmed", Label: "ASSISTMED"}, {Key: "count", Label: "Count"}},
			Rows:    [][]string{{"1 – Yes", "8"}, {"2 – No", "3"}},
		},
		Summary: "11 records in 2 classes.",
	}
}

func TestChartImage(t *testing.T) {
	img, err := chartImage(&render.GoChartRenderer{Size: render.Size{Width: 400, Height: 300}}, sampleReport().Chart)
	if err != nil {
		t.Fatalf("chartImage: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("image is %dx%d, want 400x300", b.Dx(), b.Dy())
	}
}

func TestReportContent(t *testing.T) {
	v := testViewer()
	defer v.app.Quit()

	obj, err := v.reportContent(sampleReport())
	if err != nil {
		t.Fatalf("reportContent: %v", err)
	}
	scroll, ok := obj.(*container.Scroll)
	if !ok {
		t.Fatalf("content is %T, want *container.Scroll", obj)
	}
	box := scroll.Content.(*fyne.Container)
	// image, separator, table, separator, commentary
	if len(box.Objects) != 5 {
		t.Errorf("got %d objects, want 5", len(box.Objects))
	}

	rep := sampleReport()
	rep.Chart = &engine.ChartConfig{}
	rep.Table = nil
	obj, err = v.reportContent(rep)
	if !errors.Is(err, render.ErrEmptyChart) {
		t.Errorf("got %v, want ErrEmptyChart", err)
	}
	if box := obj.(*container.Scroll).Content.(*fyne.Container); len(box.Objects) != 1 {
		t.Errorf("only the commentary should remain, got %d objects", len(box.Objects))
	}
}

func TestTableWidget(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	rows, cols := tableWidget(sampleReport().Table).Length()
	if rows != 3 || cols != 2 {
		t.Errorf("table is %dx%d, want 3x2", rows, cols)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.csv")
	data := "SEXO;ASSISTMED;CAUSABAS\n2;1;C500\n1;2;I219\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.File = path
	cfg.Encoding = "utf-8"

	an, err := load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if an.View().Len() != 2 {
		t.Errorf("loaded %d records, want 2", an.View().Len())
	}

	if err := os.WriteFile(path, []byte("CAUSABAS\nC500\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := load(cfg); !errors.Is(err, schema.ErrMissingColumn) {
		t.Errorf("got %v, want ErrMissingColumn", err)
	}
}

func TestMenuDisabledWithoutData(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	v := &viewer{app: app}
	box := v.menu().(*container.Scroll).Content.(*fyne.Container)
	if len(box.Objects) != len(analysis.Catalog()) {
		t.Fatalf("got %d buttons, want %d", len(box.Objects), len(analysis.Catalog()))
	}
	for _, o := range box.Objects {
		if !o.(*widget.Button).Disabled() {
			t.Error("buttons should be disabled until a dataset loads")
		}
	}
}
