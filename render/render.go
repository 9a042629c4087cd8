package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/simstat/engine"
)

// ============================================================================
// RENDER: ChartConfig → image
// ============================================================================
// The engine describes a chart; a Renderer draws it. Two backends:
//   gonum    gonum.org/v1/plot, png (or svg with the "svg" backend)
//   gochart  wcharczuk/go-chart, png
// ============================================================================

var (
	// ErrUnknownBackend is returned by New for an unsupported backend name.
	ErrUnknownBackend = errors.New("render: unknown backend")
	// ErrEmptyChart is returned when a chart has no data points.
	ErrEmptyChart = errors.New("render: chart has no data")
)

// Backend names accepted by New.
const (
	BackendGonum   = "gonum"
	BackendSVG     = "svg"
	BackendGoChart = "gochart"
)

// Renderer draws a ChartConfig.
type Renderer interface {
	Render(cfg *engine.ChartConfig, w io.Writer) error
	Ext() string
}

// Size is the output size in pixels.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DefaultSize is 800×500.
func DefaultSize() Size { return Size{Width: 800, Height: 500} }

func (s Size) orDefault() Size {
	d := DefaultSize()
	if s.Width <= 0 {
		s.Width = d.Width
	}
	if s.Height <= 0 {
		s.Height = d.Height
	}
	return s
}

// Backends lists the backend names New accepts.
func Backends() []string { return []string{BackendGonum, BackendSVG, BackendGoChart} }

// New returns the renderer for backend.
func New(backend string, size Size) (Renderer, error) {
	size = size.orDefault()
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendGonum, "plot", "png", "":
		return &PlotRenderer{Size: size, Format: "png"}, nil
	case BackendSVG:
		return &PlotRenderer{Size: size, Format: "svg"}, nil
	case BackendGoChart, "go-chart":
		return &GoChartRenderer{Size: size}, nil
	}
	return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownBackend, backend, strings.Join(Backends(), ", "))
}

// Bytes renders cfg into memory.
func Bytes(r Renderer, cfg *engine.ChartConfig) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(cfg, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ChartFile renders cfg to <dir>/<name>.<ext> and returns the path.
func ChartFile(r Renderer, cfg *engine.ChartConfig, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	path := filepath.Join(dir, name+"."+r.Ext())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	if err := r.Render(cfg, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func validate(cfg *engine.ChartConfig) error {
	if cfg == nil || len(cfg.Series) == 0 || len(cfg.Series[0].Data) == 0 {
		return ErrEmptyChart
	}
	return nil
}

// ============================================================================
// COLORS
// ============================================================================

// namedColors covers the CSS names the analyses use.
var namedColors = map[string]string{
	"steelblue":      "4682B4",
	"indianred":      "CD5C5C",
	"gray":           "808080",
	"grey":           "808080",
	"mediumseagreen": "3CB371",
	"seagreen":       "2E8B57",
	"darkorange":     "FF8C00",
	"crimson":        "DC143C",
	"teal":           "008080",
	"slategray":      "708090",
	"gold":           "FFD700",
	"navy":           "000080",
	"black":          "000000",
	"white":          "FFFFFF",
}

// Color resolves a CSS color name or a hex string ("#4682B4", "4682B4").
// Unknown values fall back to steelblue.
func Color(name string) drawing.Color {
	name = strings.ToLower(strings.TrimSpace(name))
	if hex, ok := namedColors[name]; ok {
		return drawing.ColorFromHex(hex)
	}
	hex := strings.TrimPrefix(name, "#")
	if isHex(hex) && (len(hex) == 6 || len(hex) == 3) {
		return drawing.ColorFromHex(hex)
	}
	return drawing.ColorFromHex(namedColors["steelblue"])
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return s != ""
}

// pointColor picks the color of bar i of series s.
func pointColor(cfg *engine.ChartConfig, s engine.ChartSeries, i int) drawing.Color {
	switch {
	case s.Data[i].Color != "":
		return Color(s.Data[i].Color)
	case s.Color != "":
		return Color(s.Color)
	case len(cfg.Colors) > 0:
		return Color(cfg.Colors[i%len(cfg.Colors)])
	}
	return Color("steelblue")
}

// labels returns the category labels of the first series.
func labels(cfg *engine.ChartConfig) []string {
	out := make([]string, len(cfg.Series[0].Data))
	for i, p := range cfg.Series[0].Data {
		out[i] = p.Label
	}
	return out
}
