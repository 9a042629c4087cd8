package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/simstat/helpers"
	"github.com/spektr-org/simstat/logging"
	"github.com/spektr-org/simstat/render"
)

// BalanceCommand balances the most frequent causes of death by resampling.
type BalanceCommand struct {
	g *globalOptions

	strategy string
	seed     int64
	top      int
	target   int
	export   string
	format   string
}

// NewBalanceCommand creates a new balance command.
func NewBalanceCommand(g *globalOptions) *BalanceCommand {
	return &BalanceCommand{g: g, format: render.FormatText}
}

// CreateCobraCommand creates the cobra command for balance.
func (c *BalanceCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Balance the most frequent causes of death",
		Long: `Keep the records of the N most frequent underlying causes (CAUSABAS) and
resample every cause to the same number of records.

upsample draws every class up to the largest one with replacement;
downsample draws every class down to the smallest one without replacement.
The same seed always gives the same records.

Examples:
  simstat balance
  simstat balance --top 10 --strategy downsample --export balanced.csv`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	cmd.Flags().StringVar(&c.strategy, "strategy", "", "Resampling strategy: upsample, downsample")
	cmd.Flags().Int64Var(&c.seed, "seed", 0, "Random seed (default 42)")
	cmd.Flags().IntVar(&c.top, "top", 0, "Number of causes to keep (default 5)")
	cmd.Flags().IntVar(&c.target, "target", 0, "Records per cause after balancing (default automatic)")
	cmd.Flags().StringVar(&c.export, "export", "", "Write the balanced records to this CSV file")
	cmd.Flags().StringVarP(&c.format, "format", "o", render.FormatText, "Output format: text, json, yaml")
	return cmd
}

func (c *BalanceCommand) run(cmd *cobra.Command, _ []string) error {
	s := &c.g.cfg.Analysis
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		s.Strategy = c.strategy
	}
	if flags.Changed("seed") {
		s.Seed = c.seed
	}
	if flags.Changed("top") {
		s.TopN = c.top
	}
	if flags.Changed("target") {
		s.Target = c.target
	}

	a, err := c.g.analyzer(cmd)
	if err != nil {
		return err
	}
	rep, err := a.Balance()
	if err != nil {
		return err
	}

	if c.format == render.FormatText {
		con := c.g.console(cmd)
		con.Header(c.g.title(), dataSource)
		con.Report(rep)
	} else if err := render.Encode(cmd.OutOrStdout(), rep, c.format); err != nil {
		return err
	}

	if c.export == "" {
		return nil
	}
	f, err := os.Create(c.export)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := helpers.WriteCSV(f, rep.Rows, nil, c.g.cfg.DelimiterRune()); err != nil {
		f.Close()
		return fmt.Errorf("export balanced records: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logging.Infof("💾 %d balanced records written to %s", rep.Rows.Len(), c.export)
	return nil
}
