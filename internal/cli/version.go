package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/dndb/pkg/dndb"
)

const modulePath = "github.com/mesh-intelligence/dndb"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dndb version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "dndb v%s\nmodule: %s\n", dndb.Version, modulePath)
			return nil
		},
	}
}
