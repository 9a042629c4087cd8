package main

import (
	"github.com/spf13/cobra"

	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/logging"
	"github.com/spektr-org/simstat/query"
	"github.com/spektr-org/simstat/render"
	"github.com/spektr-org/simstat/schema"
)

// QueryCommand runs a query file against the loaded records.
type QueryCommand struct {
	g *globalOptions

	format   string
	chart    string
	renderer string
}

// NewQueryCommand creates a new query command.
func NewQueryCommand(g *globalOptions) *QueryCommand {
	return &QueryCommand{g: g, format: render.FormatText}
}

// CreateCobraCommand creates the cobra command for query.
func (c *QueryCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query FILE",
		Short: "Run a query file (YAML or JSON)",
		Long: `Run an ad-hoc query written as YAML or JSON. "simstat columns" lists the
columns a query can use and the query file fields.

Example file:
  intent: chart
  groupBy: [causabas]
  filters: {dimensions: {sexo: ["2"]}}
  sortBy: value_desc
  limit: 10
  title: Leading causes of death among women

Examples:
  simstat query women.yaml
  simstat query women.yaml --chart women.png`,
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}
	cmd.Flags().StringVarP(&c.format, "format", "o", render.FormatText, "Output format: text, json, yaml")
	cmd.Flags().StringVar(&c.chart, "chart", "", "Render the chart to this file")
	cmd.Flags().StringVar(&c.renderer, "renderer", "", "Chart backend: gonum, svg, gochart")
	return cmd
}

func (c *QueryCommand) run(cmd *cobra.Command, args []string) error {
	spec, err := query.Load(args[0])
	if err != nil {
		return err
	}
	ds, err := c.g.load(cmd)
	if err != nil {
		return err
	}
	view := ds.View()
	if err := query.Validate(spec, view); err != nil {
		return err
	}
	spec.Labeler = schema.SIM().Labeler()

	res, err := engine.Execute(spec, view)
	if err != nil {
		return err
	}

	if c.chart != "" && res.ChartConfig != nil {
		r, err := c.g.renderer(c.renderer)
		if err != nil {
			return err
		}
		if err := renderTo(r, res.ChartConfig, c.chart); err != nil {
			return err
		}
		logging.Infof("🖼️ chart saved: %s", c.chart)
	}

	if c.format != render.FormatText {
		return render.Encode(cmd.OutOrStdout(), res, c.format)
	}
	con := c.g.console(cmd)
	title := res.Title
	if title == "" {
		title = "Query: " + spec.Filters.Label()
	}
	con.Section(title)
	switch {
	case res.TableData != nil:
		con.Table(res.TableData)
	case res.Data != nil:
		con.Paragraph(res.Data.Value + " " + res.Data.Unit)
	}
	if res.Stats != nil && res.Stats.Classes > 1 {
		con.Paragraph(render.StatsLine(*res.Stats))
	}
	con.Note(res.Reply)
	return nil
}
