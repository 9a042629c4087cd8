package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/spektr-org/simstat/analysis"
	"github.com/spektr-org/simstat/config"
	"github.com/spektr-org/simstat/helpers"
	"github.com/spektr-org/simstat/logging"
	"github.com/spektr-org/simstat/render"
	"github.com/spektr-org/simstat/schema"
)

const dataSource = "Ministry of Health / DATASUS"

// globalOptions holds the persistent flags and the configuration they
// resolve to. Every subcommand shares one instance.
type globalOptions struct {
	configPath string
	file       string
	delimiter  string
	encoding   string
	logLevel   string
	noColor    bool

	cfg config.Config
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "simstat",
		Short: "Analyze SIM mortality records",
		Long: `simstat loads a SIM (Sistema de Informações sobre Mortalidade) extract and
answers the standard questions about it:

• how often medical assistance (ASSISTMED) was recorded
• which underlying causes of death (CAUSABAS) are most frequent
• how the most frequent causes look once the classes are balanced
• how deaths from one cause split by sex (SEXO)
• which columns a maternal and neonatal mortality study would need

Settings come from simstat.yaml, a .env file and SIMSTAT_* variables;
flags override all of them.

Examples:
  # Full console report
  simstat report --file SIM2024.csv

  # Two analyses as JSON, charts rendered with go-chart
  simstat report causabas balance --format json --charts out --renderer gochart

  # Every record for breast cancer deaths among women
  simstat rows --where causabas=C500 --where sexo=2`,
		SilenceUsage:      true,
		PersistentPreRunE: g.resolve,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Configuration file (default simstat.yaml when present)")
	pf.StringVarP(&g.file, "file", "f", "", "SIM CSV extract (default SIM2024.csv)")
	pf.StringVar(&g.delimiter, "delimiter", "", "Field separator (default ';')")
	pf.StringVar(&g.encoding, "encoding", "", "Text encoding: latin1, windows-1252, utf-8 (default latin1)")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&g.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		NewReportCommand(g).CreateCobraCommand(),
		NewChartCommand(g).CreateCobraCommand(),
		NewBalanceCommand(g).CreateCobraCommand(),
		NewDiscoverCommand(g).CreateCobraCommand(),
		NewDescribeCommand(g).CreateCobraCommand(),
		NewRowsCommand(g).CreateCobraCommand(),
		NewQueryCommand(g).CreateCobraCommand(),
		NewColumnsCommand(g).CreateCobraCommand(),
		NewVersionCommand().CreateCobraCommand(),
	)
	return root
}

// resolve loads the configuration, applies the persistent flags over it and
// validates the result.
func (g *globalOptions) resolve(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(g.configPath, g.configPath != "")
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("file") {
		cfg.File = g.file
	}
	if flags.Changed("delimiter") {
		cfg.Delimiter = g.delimiter
	}
	if flags.Changed("encoding") {
		cfg.Encoding = g.encoding
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = g.logLevel
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	g.cfg = cfg

	logging.SetOutput(cmd.ErrOrStderr())
	logging.SetLevel(cfg.LogLevel)
	return nil
}

// load reads the configured file against the SIM dictionary and checks that
// the required columns are present.
func (g *globalOptions) load(cmd *cobra.Command) (*helpers.Dataset, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}

	opts := []helpers.LoadOption{
		helpers.WithDelimiter(g.cfg.DelimiterRune()),
		helpers.WithEncoding(g.cfg.Encoding),
	}
	if interactive(cmd.ErrOrStderr()) {
		opts = append(opts, helpers.WithProgress(cmd.ErrOrStderr()))
	}

	sim := schema.SIM()
	ds, err := helpers.ReadFile(g.cfg.File, *sim, opts...)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(sim, ds.Headers); err != nil {
		return nil, fmt.Errorf("%s: %w", g.cfg.File, err)
	}
	if ds.Skipped > 0 {
		logging.Warnf("⚠️ skipped %d malformed rows", ds.Skipped)
	}
	return ds, nil
}

// analyzer loads the dataset and wraps it for the analyses.
func (g *globalOptions) analyzer(cmd *cobra.Command) (*analysis.Analyzer, error) {
	ds, err := g.load(cmd)
	if err != nil {
		return nil, err
	}
	return analysis.New(ds.View(), schema.SIM(), g.cfg.Analysis), nil
}

// console prints to the command's stdout; color only on a terminal.
func (g *globalOptions) console(cmd *cobra.Command) *render.Console {
	out := cmd.OutOrStdout()
	return render.NewConsole(out, !g.noColor && interactive(out))
}

// title is the report banner, e.g. "Analysis - SIM2024".
func (g *globalOptions) title() string {
	base := filepath.Base(g.cfg.File)
	return "Analysis - " + strings.TrimSuffix(base, filepath.Ext(base))
}

// renderer returns the chart renderer named by backend, or the configured one.
func (g *globalOptions) renderer(backend string) (render.Renderer, error) {
	if backend == "" {
		backend = g.cfg.Output.Renderer
	}
	return render.New(backend, g.cfg.Output.Size)
}

// interactive reports whether w is a terminal.
func interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
