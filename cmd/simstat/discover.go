package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/simstat/helpers"
	"github.com/spektr-org/simstat/logging"
	"github.com/spektr-org/simstat/render"
	"github.com/spektr-org/simstat/schema"
)

// DiscoverCommand infers the schema of a CSV file.
type DiscoverCommand struct {
	g *globalOptions

	format string
	raw    bool
}

// NewDiscoverCommand creates a new discover command.
func NewDiscoverCommand(g *globalOptions) *DiscoverCommand {
	return &DiscoverCommand{g: g, format: render.FormatYAML}
}

// CreateCobraCommand creates the cobra command for discover.
func (c *DiscoverCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the schema inferred from the file",
		Long: `Infer dimensions, measures and skipped columns from the file header and
sample rows. By default the result is merged with the built-in SIM data
dictionary so known columns carry their labels and code tables.

Examples:
  simstat discover
  simstat discover --raw --format json`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	cmd.Flags().StringVarP(&c.format, "format", "o", render.FormatYAML, "Output format: json, yaml")
	cmd.Flags().BoolVar(&c.raw, "raw", false, "Do not merge with the SIM dictionary")
	return cmd
}

func (c *DiscoverCommand) run(cmd *cobra.Command, _ []string) error {
	cfg := c.g.cfg
	f, err := os.Open(cfg.File)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var dictionary *schema.Config
	if !c.raw {
		dictionary = schema.SIM()
	}
	ds, sch, err := helpers.ParseCSVAuto(f, dictionary,
		helpers.WithDelimiter(cfg.DelimiterRune()),
		helpers.WithEncoding(cfg.Encoding),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.File, err)
	}
	logging.Infof("🔍 %s: %d dimensions, %d measures, %d skipped columns over %d records",
		cfg.File, len(sch.Dimensions), len(sch.Measures), len(sch.SkippedColumns), len(ds.Records))
	return render.Encode(cmd.OutOrStdout(), sch, c.format)
}
