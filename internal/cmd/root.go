package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for acrocheck
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acrocheck",
		Short: "Acrolinx content checks from the terminal",
		Long: `acrocheck submits documents to an Acrolinx server for checking and
shows the resulting scorecard: the quality score, and every issue with its
position, suggestions and guidance.

Configuration is loaded from config.yaml (or config.toml) in the acrocheck
home directory, which is $ACROCHECK_HOME or .acrocheck. ACROLINX_URL,
ACROLINX_ACCESS_TOKEN and ACROLINX_CLIENT_SIGNATURE override the file.
CLI flags override both.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewCheckCommand())
	cmd.AddCommand(NewTargetsCommand())
	cmd.AddCommand(NewLoginCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the acrocheck version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "acrocheck %s\n", Version)
		},
	}
}
