package simulation

import (
	"fmt"
	"log"

	"github.com/hashicorp/go-hclog"

	"github.com/sarchlab/adhocsim/datarecording"
	"github.com/sarchlab/adhocsim/energy"
	"github.com/sarchlab/adhocsim/metrics"
	"github.com/sarchlab/adhocsim/monitoring"
	"github.com/sarchlab/adhocsim/report"
	"github.com/sarchlab/adhocsim/sim/hooking"
	"github.com/sarchlab/adhocsim/sim/id"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/substrate"
	"github.com/sarchlab/adhocsim/tracing"
	"github.com/sarchlab/adhocsim/traffic"
)

// NetworkFactory creates the substrate of a simulation.
type NetworkFactory func(
	engine timing.EventScheduler,
	c Config,
) (substrate.Network, error)

// GridNetworkFactory builds the reference grid substrate from the network
// and energy sections of the configuration.
func GridNetworkFactory(
	engine timing.EventScheduler,
	c Config,
) (substrate.Network, error) {
	return substrate.MakeGridBuilder().
		WithEngine(engine).
		WithNumNodes(c.Network.NumNodes).
		WithLayout(substrate.GridLayout{
			Width:   c.Network.GridWidth,
			Spacing: c.Network.Distance,
		}).
		WithRadioRange(c.RadioRange()).
		WithBitRate(c.Network.BitRate).
		WithPerHopDelay(c.Network.PerHopDelay).
		WithLossRate(c.Network.LossRate).
		WithTransmitPower(c.CostModel().TransmitPower()).
		WithSeed(c.Network.Seed).
		Build()
}

// Builder can be used to build a simulation.
type Builder struct {
	config         Config
	logger         hclog.Logger
	eventLogger    *log.Logger
	networkFactory NetworkFactory
}

// MakeBuilder creates a new builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		config:         DefaultConfig(),
		logger:         hclog.NewNullLogger(),
		networkFactory: GridNetworkFactory,
	}
}

// WithConfig sets the configuration to build.
func (b Builder) WithConfig(c Config) Builder {
	b.config = c
	return b
}

// WithLogger sets the logger of the simulation.
func (b Builder) WithLogger(logger hclog.Logger) Builder {
	b.logger = logger
	return b
}

// WithEventLogger prints every event into logger.
func (b Builder) WithEventLogger(logger *log.Logger) Builder {
	b.eventLogger = logger
	return b
}

// WithNetworkFactory replaces the grid substrate.
func (b Builder) WithNetworkFactory(f NetworkFactory) Builder {
	b.networkFactory = f
	return b
}

// Build validates the configuration and wires the simulation. Nothing is
// scheduled before Run, so a failed build leaves no trace.
func (b Builder) Build() (*Simulation, error) {
	c := b.config

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Run.RunID == "" {
		c.Run.RunID = id.RunID()
	}

	format, err := report.ParseFormat(c.Output.Format)
	if err != nil {
		return nil, err
	}

	writer, err := report.NewWriter(format, report.Options{
		Prefix:     c.Output.Prefix,
		ClickHouse: c.Output.ClickHouse,
	})
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		id:           c.Run.RunID,
		config:       c,
		logger:       b.logger.Named("simulation"),
		engine:       timing.NewSerialEngine(),
		registry:     metrics.NewRegistry(),
		ledger:       energy.NewLedger(),
		sinks:        make(map[substrate.NodeID]*traffic.Sink),
		writer:       writer,
		eventCounter: &timing.EventCounter{},
	}

	s.engine.AcceptHook(s.eventCounter)
	if b.eventLogger != nil {
		s.engine.AcceptHook(timing.NewEventLogger(b.eventLogger))
	}

	s.network, err = b.networkFactory(s.engine, c)
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}

	if err := b.buildLedger(s); err != nil {
		return nil, err
	}

	if err := b.buildFlows(s); err != nil {
		return nil, err
	}

	instrument(s.registry, s.network, s.flows, s.sinks)

	if err := b.buildTracer(s); err != nil {
		return nil, err
	}

	if err := b.buildMonitor(s); err != nil {
		return nil, err
	}

	s.logger.Info("simulation built",
		"run", s.id,
		"nodes", s.network.NumNodes(),
		"flows", len(s.flows),
		"format", format.String())

	return s, nil
}

func (b Builder) buildLedger(s *Simulation) error {
	for i := 0; i < s.network.NumNodes(); i++ {
		node := substrate.NodeID(i)

		err := s.ledger.AddNode(node, s.config.Energy.InitialJoules)
		if err != nil {
			return err
		}

		s.network.RegisterEnergyHandler(node, s.ledger)
	}

	return nil
}

func (b Builder) buildFlows(s *Simulation) error {
	flows, err := traffic.MakeBuilder().
		WithEngine(s.engine).
		WithSender(s.network).
		WithNumNodes(s.network.NumNodes()).
		BuildAll(s.config.FlowSpecs())
	if err != nil {
		return err
	}

	s.flows = flows

	for _, f := range flows {
		spec := f.Spec()

		s.logger.Debug("flow configured",
			"flow", f.Name(),
			"src", spec.Src.String(),
			"dst", spec.Dst.String(),
			"start", float64(spec.Start),
			"packets", spec.PacketCount)

		if _, ok := s.sinks[spec.Dst]; ok {
			continue
		}

		sink := traffic.NewSink(spec.Dst, s.engine)
		s.sinks[spec.Dst] = sink
		s.network.RegisterReceiveHandler(spec.Dst, sink)
	}

	return nil
}

func (b Builder) buildTracer(s *Simulation) error {
	var w tracing.TraceWriter

	switch s.config.Output.Tracing {
	case TraceNone:
		return nil
	case TraceCSV:
		csv := tracing.NewCSVTraceWriter(s.config.Output.Prefix + "_trace.csv")
		if err := csv.Init(); err != nil {
			return fmt.Errorf("creating trace file: %w", err)
		}

		w = csv
	case TraceDB:
		rec, err := datarecording.Open(s.config.Output.Prefix + "_trace")
		if err != nil {
			return fmt.Errorf("creating trace database: %w", err)
		}

		w = tracing.NewDBTraceWriter(rec)
	}

	hookable, ok := s.network.(hooking.Hookable)
	if !ok {
		_ = w.Close()
		return fmt.Errorf("the network does not support tracing")
	}

	hookable.AcceptHook(hooking.NewHookPosFilter(
		tracing.NewFrameTracer(s.engine, w),
		substrate.HookPosFrameTransmitted,
		substrate.HookPosFrameReceived,
		substrate.HookPosFrameDropped,
	))
	s.traceWriter = w

	return nil
}

func (b Builder) buildMonitor(s *Simulation) error {
	if !s.config.Monitor.Enabled {
		return nil
	}

	m := monitoring.NewMonitor().WithPortNumber(s.config.Monitor.Port)
	m.RegisterEngine(s.engine)
	m.RegisterRegistry(s.registry)
	m.RegisterLedger(s.ledger)

	for _, f := range s.flows {
		m.RegisterFlow(f)
	}

	url, err := m.StartServer()
	if err != nil {
		return err
	}

	s.monitor = m
	s.monitorURL = url
	s.logger.Info("monitoring simulation", "url", url)

	return nil
}
