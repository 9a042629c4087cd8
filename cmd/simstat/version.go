package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// VersionCommand prints the build version.
type VersionCommand struct{}

// NewVersionCommand creates a new version command.
func NewVersionCommand() *VersionCommand { return &VersionCommand{} }

// CreateCobraCommand creates the cobra command for version.
func (c *VersionCommand) CreateCobraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simstat %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
