package cmd

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarchlab/adhocsim/report"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/simulation"
)

func init() {
	addRunFlags(rootCmd.Flags())
}

func addRunFlags(f *pflag.FlagSet) {
	d := simulation.DefaultConfig()

	f.String("config", "", "YAML scenario file")
	f.Float64("distance", d.Network.Distance, "grid spacing in meters")
	f.Int("packetSize", d.Traffic.PacketSize, "size of application packets in bytes")
	f.Int("numPackets", d.Traffic.NumPackets, "number of packets each flow sends")
	f.Float64("interval", float64(d.Traffic.Interval), "interval between packets in seconds")
	f.Int("numNodes", d.Network.NumNodes, "number of nodes")
	f.Int("gridWidth", d.Network.GridWidth, "number of nodes per grid row")
	f.Float64("loss", d.Network.LossRate, "probability that a hop loses a frame")
	f.Uint64("seed", d.Network.Seed, "seed of the loss model")
	f.Float64("stop", float64(d.Stop), "simulated time to stop at, in seconds")
	f.String("format", d.Output.Format,
		fmt.Sprintf("output format, one of %v", report.FormatNames()))
	f.String("output", d.Output.Prefix, "path of output files without extension")
	f.String("energy-file", d.Output.EnergyFile,
		"file receiving the energy consumed by each node, empty to skip")
	f.String("tracing", "", "record every frame into \"csv\" or \"db\"")
	f.String("experiment", d.Run.Experiment, "identifier for experimental study")
	f.String("strategy", d.Run.Strategy, "identifier for strategy in the study")
	f.String("run", "", "identifier for the run, generated when empty")
	f.Bool("verbose", false, "log every event")
	f.Bool("monitor", false, "serve a web monitor while the simulation runs")
	f.Int("monitor-port", 0, "port of the web monitor, random when 0")
	f.Bool("open-monitor", false, "open the web monitor in a browser")
}

// configFromFlags loads the scenario file, if any, and applies the flags
// that are explicitly set.
func configFromFlags(f *pflag.FlagSet) (simulation.Config, error) {
	c := simulation.DefaultConfig()

	if path, _ := f.GetString("config"); path != "" {
		var err error

		c, err = simulation.LoadConfig(path)
		if err != nil {
			return c, err
		}
	}

	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}

	set("distance", func() { c.Network.Distance, _ = f.GetFloat64("distance") })
	set("packetSize", func() { c.Traffic.PacketSize, _ = f.GetInt("packetSize") })
	set("numPackets", func() { c.Traffic.NumPackets, _ = f.GetInt("numPackets") })
	set("interval", func() {
		v, _ := f.GetFloat64("interval")
		c.Traffic.Interval = timing.VTimeInSec(v)
	})
	set("numNodes", func() { c.Network.NumNodes, _ = f.GetInt("numNodes") })
	set("gridWidth", func() { c.Network.GridWidth, _ = f.GetInt("gridWidth") })
	set("loss", func() { c.Network.LossRate, _ = f.GetFloat64("loss") })
	set("seed", func() { c.Network.Seed, _ = f.GetUint64("seed") })
	set("stop", func() {
		v, _ := f.GetFloat64("stop")
		c.Stop = timing.VTimeInSec(v)
	})
	set("format", func() { c.Output.Format, _ = f.GetString("format") })
	set("output", func() { c.Output.Prefix, _ = f.GetString("output") })
	set("energy-file", func() { c.Output.EnergyFile, _ = f.GetString("energy-file") })
	set("tracing", func() { c.Output.Tracing, _ = f.GetString("tracing") })
	set("experiment", func() { c.Run.Experiment, _ = f.GetString("experiment") })
	set("strategy", func() { c.Run.Strategy, _ = f.GetString("strategy") })
	set("run", func() { c.Run.RunID, _ = f.GetString("run") })
	set("monitor", func() { c.Monitor.Enabled, _ = f.GetBool("monitor") })
	set("monitor-port", func() { c.Monitor.Port, _ = f.GetInt("monitor-port") })

	if open, _ := f.GetBool("open-monitor"); open {
		c.Monitor.Enabled = true
	}

	return c, nil
}

func runExperiment(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := newLogger(verbose)

	c, err := configFromFlags(cmd.Flags())
	if err != nil {
		logger.Error("cannot load configuration", "error", err)
		return err
	}

	b := simulation.MakeBuilder().
		WithConfig(c).
		WithLogger(logger)

	if verbose {
		b = b.WithEventLogger(logger.StandardLogger(&hclog.StandardLoggerOptions{
			ForceLevel: hclog.Debug,
		}))
	}

	s, err := b.Build()
	if err != nil {
		logger.Error("cannot build simulation", "error", err)
		return err
	}

	defer func() {
		if err := s.Terminate(); err != nil {
			logger.Warn("cannot close trace", "error", err)
		}
	}()

	if open, _ := cmd.Flags().GetBool("open-monitor"); open {
		if err := browser.OpenURL(s.MonitorURL()); err != nil {
			logger.Warn("cannot open browser", "url", s.MonitorURL(), "error", err)
		}
	}

	if err := s.Run(); err != nil {
		logger.Error("simulation failed", "error", err)
		return err
	}

	return nil
}
