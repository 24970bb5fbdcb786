package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrison/acrocheck/internal/checking"
	"github.com/harrison/acrocheck/internal/models"
)

// NewTargetsCommand creates the targets command
func NewTargetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the guidance profiles the server offers",
		Long: `List the guidance profiles (check targets) offered by the Acrolinx server.

The configured default target is marked with *.`,
		Args: cobra.NoArgs,
		RunE: targetsCommand,
	}

	addConnectionFlags(cmd)
	cmd.Flags().Bool("yaml", false, "Print the list as YAML")

	return cmd
}

// targetsCommand implements the targets command logic
func targetsCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rt, err := newRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	resolver := checking.NewResolver(rt.client, checking.NewSession(), nil, cfg.DefaultTarget, rt.logger)
	targets, err := resolver.ListTargets(ctx, false)
	if err != nil {
		return describeError(err)
	}

	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(targets); err != nil {
			return fmt.Errorf("failed to encode targets: %w", err)
		}
		return enc.Close()
	}
	writeTargetTable(cmd.OutOrStdout(), targets, cfg.DefaultTarget)
	return nil
}

// writeTargetTable prints one target per line with ids aligned.
func writeTargetTable(w io.Writer, targets []models.Target, defaultTarget string) {
	width := 0
	for _, t := range targets {
		width = max(width, runewidth.StringWidth(t.ID))
	}
	for _, t := range targets {
		mark := " "
		if defaultTarget != "" && (t.ID == defaultTarget || t.DisplayName == defaultTarget) {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s  %s\n", mark, runewidth.FillRight(t.ID, width), t.DisplayName)
	}
}
