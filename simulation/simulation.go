// Package simulation wires the engine, the network, the flows, the metrics and
// the energy ledger of one experiment run, and writes its results.
package simulation

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/sarchlab/adhocsim/energy"
	"github.com/sarchlab/adhocsim/metrics"
	"github.com/sarchlab/adhocsim/monitoring"
	"github.com/sarchlab/adhocsim/report"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/substrate"
	"github.com/sarchlab/adhocsim/tracing"
	"github.com/sarchlab/adhocsim/traffic"
)

// A Simulation is one run of an experiment. Build it with a Builder, call Run
// once, then Terminate.
type Simulation struct {
	id     string
	config Config
	logger hclog.Logger

	engine   *timing.SerialEngine
	network  substrate.Network
	registry *metrics.Registry
	ledger   *energy.Ledger
	flows    []*traffic.Flow
	sinks    map[substrate.NodeID]*traffic.Sink

	writer       report.Writer
	traceWriter  tracing.TraceWriter
	monitor      *monitoring.Monitor
	monitorURL   string
	eventCounter *timing.EventCounter

	ran    bool
	report *report.Report
}

// ID returns the run ID.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() Config {
	return s.config
}

// Engine returns the engine used in the simulation.
func (s *Simulation) Engine() timing.Engine {
	return s.engine
}

// Network returns the substrate.
func (s *Simulation) Network() substrate.Network {
	return s.network
}

// Registry returns the metrics registry.
func (s *Simulation) Registry() *metrics.Registry {
	return s.registry
}

// Ledger returns the energy ledger.
func (s *Simulation) Ledger() *energy.Ledger {
	return s.ledger
}

// Flows returns the flows in configuration order.
func (s *Simulation) Flows() []*traffic.Flow {
	return s.flows
}

// Sink returns the sink running on node, if any.
func (s *Simulation) Sink(node substrate.NodeID) (*traffic.Sink, bool) {
	sink, ok := s.sinks[node]
	return sink, ok
}

// Monitor returns the monitor, or nil when monitoring is off.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitor, or "" when monitoring is off.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// Events returns the number of events handled so far.
func (s *Simulation) Events() uint64 {
	return s.eventCounter.Count()
}

// Report returns the report of a finished run, or nil.
func (s *Simulation) Report() *report.Report {
	return s.report
}

// Run starts the flows, runs the engine until the stop time and writes the
// report and the energy summary. If the energy model becomes inconsistent,
// Run returns the error and writes nothing. A simulation runs at most once,
// even when the first run fails.
func (s *Simulation) Run() error {
	if s.ran {
		return fmt.Errorf("simulation %s has already run", s.id)
	}

	s.ran = true

	started := time.Now()

	for _, f := range s.flows {
		f.Start()
	}

	if err := s.runEngine(); err != nil {
		s.logger.Error("simulation aborted", "error", err)
		return err
	}

	info := s.config.RunInfo()
	info.RunID = s.id
	info.Started = started
	info.Finished = time.Now()

	s.report = report.Build(info, s.registry, s.ledger)

	s.logger.Info("simulation finished",
		"time", float64(s.engine.Now()),
		"events", s.Events(),
		"energy", s.ledger.TotalConsumed())

	if err := s.writer.Write(s.report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if err := s.writeEnergySummary(); err != nil {
		return fmt.Errorf("writing energy summary: %w", err)
	}

	return nil
}

func (s *Simulation) runEngine() (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		uerr, ok := r.(*energy.UnderflowError)
		if !ok {
			panic(r)
		}

		err = fmt.Errorf("energy model inconsistency: %w", uerr)
	}()

	return s.engine.RunUntil(s.config.Stop)
}

func (s *Simulation) writeEnergySummary() error {
	path := s.config.Output.EnergyFile
	if path == "" {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := s.ledger.WriteSummary(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// Terminate releases the resources of the simulation. The flows are stopped
// and buffered traces are flushed.
func (s *Simulation) Terminate() error {
	for _, f := range s.flows {
		f.Stop()
	}

	if s.traceWriter == nil {
		return nil
	}

	err := s.traceWriter.Close()
	s.traceWriter = nil

	return err
}
