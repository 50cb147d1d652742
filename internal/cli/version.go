package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chainflow/pkg/buildinfo"
)

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, buildinfo.String())
		},
	}
}
