package simulation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/adhocsim/datarecording"
	"github.com/sarchlab/adhocsim/energy"
	"github.com/sarchlab/adhocsim/report"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/traffic"
)

// Trace backends.
const (
	TraceNone = ""
	TraceCSV  = "csv"
	TraceDB   = "db"
)

// NetworkConfig describes the grid and the radio.
type NetworkConfig struct {
	NumNodes  int     `yaml:"num_nodes"`
	GridWidth int     `yaml:"grid_width"`
	Distance  float64 `yaml:"distance"`

	// RadioRange is the distance a frame reaches. Zero means Distance, so
	// that only grid neighbours hear each other.
	RadioRange  float64           `yaml:"radio_range"`
	BitRate     float64           `yaml:"bit_rate"`
	PerHopDelay timing.VTimeInSec `yaml:"per_hop_delay"`
	LossRate    float64           `yaml:"loss_rate"`
	Seed        uint64            `yaml:"seed"`
}

// TrafficConfig describes the flows.
type TrafficConfig struct {
	PacketSize int               `yaml:"packet_size"`
	NumPackets int               `yaml:"num_packets"`
	Interval   timing.VTimeInSec `yaml:"interval"`

	// Starts are the start times of the staggered flows, one flow each.
	Starts []timing.VTimeInSec `yaml:"starts"`

	// Flows replaces the staggered layout when not empty.
	Flows []traffic.FlowSpec `yaml:"flows,omitempty"`
}

// EnergyConfig describes the batteries and the radio power draw.
type EnergyConfig struct {
	InitialJoules  float64 `yaml:"initial_joules"`
	TxCurrentA     float64 `yaml:"tx_current_a"`
	SupplyVoltageV float64 `yaml:"supply_voltage_v"`
}

// OutputConfig tells where results go.
type OutputConfig struct {
	Format     string                          `yaml:"format"`
	Prefix     string                          `yaml:"prefix"`
	EnergyFile string                          `yaml:"energy_file"`
	Tracing    string                          `yaml:"tracing"`
	ClickHouse datarecording.ClickHouseOptions `yaml:"clickhouse"`
}

// RunConfig is the metadata attached to the report.
type RunConfig struct {
	Experiment  string              `yaml:"experiment"`
	Strategy    string              `yaml:"strategy"`
	Input       string              `yaml:"input"`
	RunID       string              `yaml:"run"`
	Description string              `yaml:"description"`
	Annotations []report.Annotation `yaml:"annotations"`
}

// MonitorConfig controls the web monitor.
type MonitorConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Config is everything needed to build a simulation.
type Config struct {
	Network NetworkConfig     `yaml:"network"`
	Traffic TrafficConfig     `yaml:"traffic"`
	Energy  EnergyConfig      `yaml:"energy"`
	Stop    timing.VTimeInSec `yaml:"stop"`
	Output  OutputConfig      `yaml:"output"`
	Run     RunConfig         `yaml:"run"`
	Monitor MonitorConfig     `yaml:"monitor"`
}

// DefaultConfig returns the wifi distance experiment: a 10 by 10 grid with
// 1000 m spacing and ten flows from the first row to the last row.
func DefaultConfig() Config {
	cost := energy.DefaultCostModel()

	starts := make([]timing.VTimeInSec, len(traffic.StaggeredStarts))
	copy(starts, traffic.StaggeredStarts)

	return Config{
		Network: NetworkConfig{
			NumNodes:    100,
			GridWidth:   10,
			Distance:    1000,
			BitRate:     1e6,
			PerHopDelay: 0.0002,
			Seed:        1,
		},
		Traffic: TrafficConfig{
			PacketSize: 1000,
			NumPackets: 1,
			Interval:   1,
			Starts:     starts,
		},
		Energy: EnergyConfig{
			InitialJoules:  30,
			TxCurrentA:     cost.TxCurrentA,
			SupplyVoltageV: cost.SupplyVoltageV,
		},
		Stop: 33,
		Output: OutputConfig{
			Format:     "omnet",
			Prefix:     "data",
			EnergyFile: "energy.txt",
		},
		Run: RunConfig{
			Experiment: "wifi-distance-test",
			Strategy:   "wifi-default",
			Annotations: []report.Annotation{
				{Key: "author", Value: "adhocsim"},
			},
		},
	}
}

// LoadConfig reads a YAML scenario file. Fields that the file does not set
// keep their default values.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return ReadConfig(f)
}

// ReadConfig decodes a YAML scenario on top of DefaultConfig. Unknown fields
// are rejected.
func ReadConfig(r io.Reader) (Config, error) {
	c := DefaultConfig()

	content, err := io.ReadAll(r)
	if err != nil {
		return c, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	err = dec.Decode(&c)
	if err != nil && !errors.Is(err, io.EOF) {
		return c, fmt.Errorf("malformed scenario: %w", err)
	}

	return c, nil
}

// Dump encodes the configuration as YAML.
func (c Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(c); err != nil {
		return err
	}

	return enc.Close()
}

// Validate checks the configuration. A configuration that passes can be built
// without error.
func (c Config) Validate() error {
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return err
	}

	if err := c.validateNetwork(); err != nil {
		return err
	}

	if err := c.validateEnergy(); err != nil {
		return err
	}

	switch c.Output.Tracing {
	case TraceNone, TraceCSV, TraceDB:
	default:
		return fmt.Errorf("unknown trace backend %q, expecting %q or %q",
			c.Output.Tracing, TraceCSV, TraceDB)
	}

	if !isFinite(c.Stop) || c.Stop < 0 {
		return fmt.Errorf("stop time must be a finite non-negative time, got %f",
			c.Stop)
	}

	return c.validateFlows()
}

func (c Config) validateFlows() error {
	specs := c.FlowSpecs()
	if len(specs) == 0 {
		return errors.New("no flow to simulate")
	}

	ids := make(map[int]bool, len(specs))

	for _, s := range specs {
		if ids[s.ID] {
			return fmt.Errorf("%s is defined more than once", s.Name())
		}

		ids[s.ID] = true

		if err := s.Validate(c.Network.NumNodes); err != nil {
			return err
		}
	}

	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (c Config) validateNetwork() error {
	n := c.Network

	for _, v := range []float64{
		n.Distance, n.RadioRange, n.BitRate, n.PerHopDelay, n.LossRate,
	} {
		if !isFinite(v) {
			return fmt.Errorf("network parameters must be finite, got %f", v)
		}
	}

	switch {
	case n.NumNodes <= 0:
		return fmt.Errorf("number of nodes must be positive, got %d", n.NumNodes)
	case n.GridWidth <= 0:
		return fmt.Errorf("grid width must be positive, got %d", n.GridWidth)
	case n.Distance <= 0:
		return fmt.Errorf("distance must be positive, got %f", n.Distance)
	case n.RadioRange < 0:
		return fmt.Errorf("radio range cannot be negative, got %f", n.RadioRange)
	case n.BitRate <= 0:
		return fmt.Errorf("bit rate must be positive, got %f", n.BitRate)
	case n.PerHopDelay < 0:
		return fmt.Errorf("per-hop delay cannot be negative, got %f",
			n.PerHopDelay)
	case n.LossRate < 0 || n.LossRate > 1:
		return fmt.Errorf("loss rate must be within [0, 1], got %f", n.LossRate)
	}

	return nil
}

func (c Config) validateEnergy() error {
	e := c.Energy

	for _, v := range []float64{e.InitialJoules, e.TxCurrentA, e.SupplyVoltageV} {
		if !isFinite(v) {
			return fmt.Errorf("energy parameters must be finite, got %f", v)
		}
	}

	switch {
	case e.InitialJoules < 0:
		return fmt.Errorf("initial energy cannot be negative, got %f",
			e.InitialJoules)
	case e.TxCurrentA < 0:
		return fmt.Errorf("transmit current cannot be negative, got %f",
			e.TxCurrentA)
	case e.SupplyVoltageV < 0:
		return fmt.Errorf("supply voltage cannot be negative, got %f",
			e.SupplyVoltageV)
	}

	return nil
}

// FlowSpecs returns the flows of the configuration. Explicit flows win over
// the staggered layout.
func (c Config) FlowSpecs() []traffic.FlowSpec {
	if len(c.Traffic.Flows) > 0 {
		specs := make([]traffic.FlowSpec, len(c.Traffic.Flows))
		copy(specs, c.Traffic.Flows)

		return specs
	}

	return traffic.Staggered(
		c.Network.NumNodes,
		c.Network.GridWidth,
		c.Traffic.Starts,
		traffic.FlowSpec{
			PacketSize:  c.Traffic.PacketSize,
			PacketCount: c.Traffic.NumPackets,
			Interval:    c.Traffic.Interval,
		},
	)
}

// RadioRange returns the effective radio range.
func (c Config) RadioRange() float64 {
	if c.Network.RadioRange > 0 {
		return c.Network.RadioRange
	}

	return c.Network.Distance
}

// CostModel returns the energy cost model.
func (c Config) CostModel() energy.CostModel {
	return energy.CostModel{
		TxCurrentA:     c.Energy.TxCurrentA,
		SupplyVoltageV: c.Energy.SupplyVoltageV,
	}
}

// RunInfo returns the report metadata. The input defaults to the grid
// spacing, as the experiment sweeps over distances.
func (c Config) RunInfo() report.RunInfo {
	input := c.Run.Input
	if input == "" {
		input = strconv.FormatFloat(c.Network.Distance, 'g', -1, 64)
	}

	annotations := make([]report.Annotation, len(c.Run.Annotations))
	copy(annotations, c.Run.Annotations)

	return report.RunInfo{
		Experiment:  c.Run.Experiment,
		Strategy:    c.Run.Strategy,
		Input:       input,
		RunID:       c.Run.RunID,
		Description: c.Run.Description,
		Annotations: annotations,
	}
}
