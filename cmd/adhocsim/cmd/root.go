// Package cmd provides the command-line interface of adhocsim.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

// EnvPrefix starts the names of the environment variables that provide flag
// defaults, such as ADHOCSIM_NUM_NODES for --numNodes.
const EnvPrefix = "ADHOCSIM_"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "adhocsim",
	Short: "adhocsim simulates packet flows over a grid of ad-hoc wifi nodes.",
	Long: `adhocsim places nodes on a grid, sends packet flows from the first ` +
		`row to the last row, and reports frame counts, packet delays and ` +
		`radio energy. Flags override the scenario file; ADHOCSIM_* ` +
		`variables, also read from a .env file, override flag defaults.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnv,
	RunE:              runExperiment,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// EnvName returns the environment variable that sets a flag.
func EnvName(flag string) string {
	var b strings.Builder

	b.WriteString(EnvPrefix)

	for i, r := range flag {
		switch {
		case r == '-':
			b.WriteRune('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteRune('_')
			}

			b.WriteRune(r)
		default:
			b.WriteString(strings.ToUpper(string(r)))
		}
	}

	return b.String()
}

func loadEnv(cmd *cobra.Command, _ []string) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	return applyEnv(cmd.Flags())
}

func applyEnv(flags *pflag.FlagSet) error {
	var err error

	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}

		value, ok := os.LookupEnv(EnvName(f.Name))
		if !ok {
			return
		}

		if setErr := flags.Set(f.Name, value); setErr != nil {
			err = fmt.Errorf("%s: %w", EnvName(f.Name), setErr)
		}
	})

	return err
}

func newLogger(verbose bool) hclog.Logger {
	level := hclog.Info
	if verbose {
		level = hclog.Debug
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "adhocsim",
		Level:  level,
		Output: os.Stderr,
	})
}
