package main

import (
	"github.com/spf13/cobra"

	"github.com/spektr-org/simstat/analysis"
)

// DescribeCommand prints descriptive statistics of the loaded columns.
type DescribeCommand struct {
	g *globalOptions
}

// NewDescribeCommand creates a new describe command.
func NewDescribeCommand(g *globalOptions) *DescribeCommand {
	return &DescribeCommand{g: g}
}

// CreateCobraCommand creates the cobra command for describe.
func (c *DescribeCommand) CreateCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [columns...]",
		Short: "Descriptive statistics of the loaded columns",
		Long: `Print count, mean, standard deviation, quartiles and extremes per column.
Numeric columns (PESO) are summarized as numbers; coded columns (IDADE) as
text. Without arguments every column is described.

Examples:
  simstat describe
  simstat describe peso idade`,
		RunE: c.run,
	}
}

func (c *DescribeCommand) run(cmd *cobra.Command, args []string) error {
	ds, err := c.g.load(cmd)
	if err != nil {
		return err
	}
	df, err := analysis.DescribeFrame(ds.View(), args...)
	if err != nil {
		return err
	}
	con := c.g.console(cmd)
	con.Section("Descriptive statistics")
	con.Records(df.Records())
	return nil
}
