package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the scenario that the flags describe.",
	Long: "`config` prints the YAML scenario built from the defaults, the " +
		"--config file and the other flags. The output can be edited and " +
		"passed back with --config.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := configFromFlags(cmd.Flags())
		if err != nil {
			return err
		}

		if err := c.Validate(); err != nil {
			return err
		}

		return c.Dump(cmd.OutOrStdout())
	},
}

func init() {
	addRunFlags(configCmd.Flags())
	rootCmd.AddCommand(configCmd)
}
