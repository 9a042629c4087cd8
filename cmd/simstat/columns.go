package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spektr-org/simstat/query"
	"github.com/spektr-org/simstat/schema"
)

// ColumnsCommand describes the columns of the loaded file.
type ColumnsCommand struct {
	g *globalOptions

	values int
}

// NewColumnsCommand creates a new columns command.
func NewColumnsCommand(g *globalOptions) *ColumnsCommand {
	return &ColumnsCommand{g: g, values: 12}
}

// CreateCobraCommand creates the cobra command for columns.
func (c *ColumnsCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns",
		Short: "Describe the loaded columns and the query file format",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	cmd.Flags().IntVar(&c.values, "values", 12, "Observed values to list per column (0 = all)")
	return cmd
}

func (c *ColumnsCommand) run(cmd *cobra.Command, _ []string) error {
	ds, err := c.g.load(cmd)
	if err != nil {
		return err
	}
	sum := query.Summarize(ds.View(), c.values)
	_, err = fmt.Fprint(cmd.OutOrStdout(), query.Describe(*schema.SIM(), &sum))
	return err
}
