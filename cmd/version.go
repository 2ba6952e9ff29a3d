package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/que-labs/quecore/internal/build"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the quecore version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "quecore %s\n", build.String())
	},
}
