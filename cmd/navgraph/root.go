package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/navgraph/internal/logging"
	"github.com/aretw0/navgraph/internal/navmap"
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "navgraph",
		Short: "Navigation graph engine for UI-driven test automation",
		Long: `navgraph plans navigations through a declarative map of destinations.
Site maps describe the type hierarchy, the destinations of each type and what must be
reached before each one; navgraph resolves, validates and draws them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().String("map", "navgraph.yaml", "Site map file (YAML or JSON)")
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newPlanCmd(),
		newGraphCmd(),
		newValidateCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI with args.
func Execute(args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

func loggerFrom(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(cmd.ErrOrStderr(), level), nil
}

func loadMap(cmd *cobra.Command) (*navmap.Map, error) {
	path, _ := cmd.Flags().GetString("map")
	site, err := navmap.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load site map: %w", err)
	}
	return site, nil
}
