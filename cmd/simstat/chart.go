package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/logging"
	"github.com/spektr-org/simstat/render"
)

// ChartCommand renders the chart of one analysis.
type ChartCommand struct {
	g *globalOptions

	out      string
	renderer string
}

// NewChartCommand creates a new chart command.
func NewChartCommand(g *globalOptions) *ChartCommand {
	return &ChartCommand{g: g}
}

// CreateCobraCommand creates the cobra command for chart.
func (c *ChartCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart ANALYSIS",
		Short: "Render the chart of one analysis",
		Long: `Render the chart of one analysis to an image file.

Without --out the chart goes to <output dir>/<analysis>.<ext>.

Examples:
  simstat chart causabas
  simstat chart balance --renderer svg --out balance.svg`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}
	cmd.Flags().StringVar(&c.out, "out", "", "Output file")
	cmd.Flags().StringVar(&c.renderer, "renderer", "", "Chart backend: gonum, svg, gochart")
	return cmd
}

func (c *ChartCommand) run(cmd *cobra.Command, args []string) error {
	r, err := c.g.renderer(c.renderer)
	if err != nil {
		return err
	}
	a, err := c.g.analyzer(cmd)
	if err != nil {
		return err
	}
	rep, err := a.Run(args[0])
	if err != nil {
		return err
	}
	if rep.Chart == nil {
		return fmt.Errorf("analysis %s has no chart", rep.Key)
	}

	path := c.out
	if path == "" {
		path, err = render.ChartFile(r, rep.Chart, c.g.cfg.Output.Dir, rep.Key)
		if err != nil {
			return err
		}
	} else if err := renderTo(r, rep.Chart, path); err != nil {
		return err
	}
	logging.Infof("🖼️ chart saved: %s", path)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func renderTo(r render.Renderer, cfg *engine.ChartConfig, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := r.Render(cfg, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
