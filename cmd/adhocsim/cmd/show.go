package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/adhocsim/datarecording"
	"github.com/sarchlab/adhocsim/report"
)

var showCmd = &cobra.Command{
	Use:   "show [file.sqlite3]",
	Short: "Print the statistics stored in a db report.",
	Long: "`show` reads a report written with --format db and prints one " +
		"line per value. --variable narrows the output to one metric.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		variable, _ := cmd.Flags().GetString("variable")

		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		return showSingletons(cmd.Context(), cmd.OutOrStdout(), reader, variable)
	},
}

func init() {
	showCmd.Flags().String("variable", "", "only print this metric, e.g. delay0-average")
	rootCmd.AddCommand(showCmd)
}

func showSingletons(
	ctx context.Context,
	w io.Writer,
	reader datarecording.DataReader,
	variable string,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reader.MapTable(report.SingletonsTable, report.SingletonRow{})

	params := datarecording.QueryParams{}
	if variable != "" {
		params.Where = "Variable = ?"
		params.Args = []any{variable}
	}

	rows, _, err := reader.Query(ctx, report.SingletonsTable, params)
	if err != nil {
		return fmt.Errorf("reading %s: %w", report.SingletonsTable, err)
	}

	for _, r := range rows {
		row := r.(*report.SingletonRow)
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\n", row.Run, row.Name, row.Variable, row.Value)
	}

	return nil
}
