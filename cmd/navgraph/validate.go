package main

import (
	"fmt"

	"github.com/aretw0/navgraph/internal/validator"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the site map for consistency",
		Long:  `Reports unknown base types, inheritance cycles, dangling sibling and object prerequisites, and prerequisite cycles.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := loadMap(cmd)
			if err != nil {
				return err
			}
			if err := validator.Validate(site.Registry()); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Site map %q is valid (%d destinations)\n", site.Name, site.Registry().Len())
			return nil
		},
	}
}
