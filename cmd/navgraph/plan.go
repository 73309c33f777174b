package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/navgraph"
	"github.com/aretw0/navgraph/internal/navmap"
	"github.com/aretw0/navgraph/pkg/domain"
	"github.com/spf13/cobra"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <entity> <destination>",
		Short: "Print the hops needed to reach a destination",
		Long: `Resolves the chain of prerequisites for the destination of an entity declared
in the site map, root first. An unknown entity id is treated as a bare type name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")

			site, nav, err := openNavigator(cmd)
			if err != nil {
				return err
			}
			plan, err := nav.Plan(site.Target(args[0]), args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(planRows(plan))
			}
			for i, row := range planRows(plan) {
				fmt.Fprintf(out, "%d. %s -> %s  [%s on %s]\n", i+1, row.Entity, row.Destination, row.Prerequisite, row.DefinedOn)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the plan as JSON")
	return cmd
}

type planRow struct {
	Entity       string `json:"entity"`
	Destination  string `json:"destination"`
	DefinedOn    string `json:"defined_on"`
	Prerequisite string `json:"prerequisite"`
}

func planRows(plan *domain.Plan) []planRow {
	rows := make([]planRow, 0, plan.Len())
	for _, h := range plan.Hops {
		rows = append(rows, planRow{
			Entity:       domain.Describe(h.Entity),
			Destination:  h.Destination(),
			DefinedOn:    string(h.Definition.EntityType),
			Prerequisite: h.Definition.Prerequisite.String(),
		})
	}
	return rows
}

// openNavigator loads the site map and builds a navigator over it.
func openNavigator(cmd *cobra.Command) (*navmap.Map, *navgraph.Navigator, error) {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return nil, nil, err
	}
	site, err := loadMap(cmd)
	if err != nil {
		return nil, nil, err
	}
	nav, err := navgraph.New(site.Registry(),
		navgraph.WithLogger(logger),
		navgraph.WithDefaults(site.Options()),
	)
	if err != nil {
		return nil, nil, err
	}
	return site, nav, nil
}
