package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/adhocsim/report"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the output formats.",
	Long: "`formats` lists the values accepted by --format. Formats that this " +
		"build cannot write are marked.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, name := range report.FormatNames() {
			if _, err := report.ParseFormat(name); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (unavailable: %v)\n", name, err)
				continue
			}

			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
