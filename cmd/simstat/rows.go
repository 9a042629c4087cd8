package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spektr-org/simstat/engine"
	"github.com/spektr-org/simstat/render"
	"github.com/spektr-org/simstat/schema"
)

// RowsCommand lists the records matching a set of filters.
type RowsCommand struct {
	g *globalOptions

	where   []string
	limit   int
	measure string
	format  string
}

// NewRowsCommand creates a new rows command.
func NewRowsCommand(g *globalOptions) *RowsCommand {
	return &RowsCommand{g: g, limit: 20, format: render.FormatText}
}

// CreateCobraCommand creates the cobra command for rows.
func (c *RowsCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "List records matching filters",
		Long: `List records. Every --where narrows the selection: values of one column
are alternatives, separate --where flags (one per column) must all hold.

Examples:
  simstat rows --where causabas=C500
  simstat rows --where causabas=I219,I10 --where sexo=1 --limit 50 --measure peso`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	cmd.Flags().StringArrayVarP(&c.where, "where", "w", nil, "Filter KEY=V1,V2 (repeatable)")
	cmd.Flags().IntVarP(&c.limit, "limit", "n", 20, "Maximum rows to show (0 = all)")
	cmd.Flags().StringVar(&c.measure, "measure", "", "Also show this numeric column (peso)")
	cmd.Flags().StringVarP(&c.format, "format", "o", render.FormatText, "Output format: text, json, yaml")
	return cmd
}

func (c *RowsCommand) run(cmd *cobra.Command, _ []string) error {
	filters := engine.Filters{Dimensions: map[string][]string{}}
	for _, expr := range c.where {
		key, vals, err := engine.ParseFilter(expr)
		if err != nil {
			return err
		}
		if _, dup := filters.Dimensions[key]; dup {
			return fmt.Errorf("--where %s given twice: list the alternatives in one flag (%s=V1,V2)", key, key)
		}
		filters.Dimensions[key] = vals
	}

	ds, err := c.g.load(cmd)
	if err != nil {
		return err
	}
	view := ds.View()
	for key := range filters.Dimensions {
		if !engine.HasDimension(view, key) {
			return fmt.Errorf("%w: %s", schema.ErrMissingColumn, key)
		}
	}

	res, err := engine.Execute(engine.QuerySpec{
		Intent:      "table",
		Aggregation: "list",
		Filters:     filters,
		Measure:     c.measure,
		Limit:       c.limit,
		Title:       "Records: " + filters.Label(),
		Reply:       "{count} records match {filter_label}.",
	}, view)
	if err != nil {
		return err
	}

	if c.format != render.FormatText {
		return render.Encode(cmd.OutOrStdout(), res, c.format)
	}
	con := c.g.console(cmd)
	con.Section(res.Title)
	if res.TableData != nil {
		con.Table(res.TableData)
	}
	con.Note(res.Reply)
	return nil
}
