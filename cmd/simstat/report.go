package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spektr-org/simstat/analysis"
	"github.com/spektr-org/simstat/logging"
	"github.com/spektr-org/simstat/render"
)

// ReportCommand runs analyses and prints their reports.
type ReportCommand struct {
	g *globalOptions

	format   string
	charts   string
	renderer string
	xlsx     string
}

// NewReportCommand creates a new report command.
func NewReportCommand(g *globalOptions) *ReportCommand {
	return &ReportCommand{g: g, format: render.FormatText}
}

// CreateCobraCommand creates the cobra command for the report.
func (c *ReportCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [analyses...]",
		Short: "Run the analyses and print the report",
		Long: fmt.Sprintf(`Run the analyses (all of them by default) over the loaded file.

Analyses: %s

A failing analysis (for example a cause with no deaths) is reported and the
others still run.

Examples:
  simstat report
  simstat report assistmed sexo --format yaml
  simstat report --charts charts --xlsx simstat.xlsx`, keyList()),
		RunE: c.run,
	}
	cmd.Flags().StringVarP(&c.format, "format", "o", render.FormatText, "Output format: text, json, yaml")
	cmd.Flags().StringVar(&c.charts, "charts", "", "Render every chart into this directory")
	cmd.Flags().StringVar(&c.renderer, "renderer", "", "Chart backend: gonum, svg, gochart")
	cmd.Flags().StringVar(&c.xlsx, "xlsx", "", "Also write the reports to this Excel workbook")
	return cmd
}

func (c *ReportCommand) run(cmd *cobra.Command, args []string) error {
	switch c.format {
	case render.FormatText, render.FormatJSON, render.FormatYAML:
	default:
		return fmt.Errorf("unsupported format %q (want text, json or yaml)", c.format)
	}
	for _, key := range args {
		if _, err := analysis.Lookup(key); err != nil {
			return err
		}
	}

	a, err := c.g.analyzer(cmd)
	if err != nil {
		return err
	}
	reports, runErr := a.All(args...)
	if len(reports) == 0 {
		return runErr
	}
	if runErr != nil {
		logging.Warnf("⚠️ %v", runErr)
	}

	if c.format == render.FormatText {
		con := c.g.console(cmd)
		con.Header(c.g.title(), dataSource)
		for _, r := range reports {
			con.Report(r)
		}
	} else if err := render.Encode(cmd.OutOrStdout(), reports, c.format); err != nil {
		return err
	}

	if c.charts != "" || c.xlsx != "" {
		r, err := c.g.renderer(c.renderer)
		if err != nil {
			return err
		}
		if c.charts != "" {
			if err := writeCharts(r, reports, c.charts); err != nil {
				return err
			}
		}
		if c.xlsx != "" {
			if err := render.WriteWorkbook(c.xlsx, reports, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCharts(r render.Renderer, reports []*analysis.Report, dir string) error {
	for _, rep := range reports {
		if rep.Chart == nil {
			continue
		}
		path, err := render.ChartFile(r, rep.Chart, dir, rep.Key)
		if err != nil {
			return err
		}
		logging.Infof("🖼️ chart saved: %s", path)
	}
	return nil
}

func keyList() string {
	var s string
	for i, e := range analysis.Catalog() {
		if i > 0 {
			s += ", "
		}
		s += e.Key
	}
	return s
}
