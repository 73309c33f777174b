package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/navgraph"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of navgraph",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "navgraph version %s\n", strings.TrimSpace(navgraph.Version))
		},
	}
}
