package main

import (
	"fmt"

	"github.com/aretw0/navgraph/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the navigation graph visualization",
		Long: `Outputs a Mermaid diagram (graph TD) of every registered destination and its
prerequisites. With --entity and --destination the resolved plan is highlighted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, _ := cmd.Flags().GetString("entity")
			dest, _ := cmd.Flags().GetString("destination")

			site, nav, err := openNavigator(cmd)
			if err != nil {
				return err
			}

			var overlay *graph.GraphOverlay
			if entity != "" && dest != "" {
				plan, err := nav.Plan(site.Target(entity), dest)
				if err != nil {
					return err
				}
				overlay = graph.OverlayFromPlan(plan)
			}

			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(nav.Registry(), overlay))
			return nil
		},
	}
	cmd.Flags().String("entity", "", "Entity id whose plan is highlighted")
	cmd.Flags().String("destination", "", "Destination whose plan is highlighted")
	cmd.MarkFlagsRequiredTogether("entity", "destination")
	return cmd
}
