package substrate

import (
	"fmt"
	"math/rand/v2"

	"github.com/sarchlab/adhocsim/sim/id"
	"github.com/sarchlab/adhocsim/sim/timing"
)

// GridBuilder builds GridNetworks.
type GridBuilder struct {
	engine       timing.EventScheduler
	numNodes     int
	layout       GridLayout
	radioRange   float64
	bitRate      float64
	perHopDelay  float64
	lossRate     float64
	txPowerWatts float64
	seed         uint64
}

// MakeGridBuilder returns a GridBuilder with the defaults of the wifi distance
// experiment: 100 nodes on a 10-wide grid 1000 m apart, 1 Mbps radios whose
// range covers the direct neighbors, and no loss.
func MakeGridBuilder() GridBuilder {
	return GridBuilder{
		numNodes:     100,
		layout:       GridLayout{Width: 10, Spacing: 1000},
		radioRange:   1000,
		bitRate:      1e6,
		perHopDelay:  0.0002,
		txPowerWatts: 0.0174 * 3.0,
		seed:         1,
	}
}

// WithEngine sets the engine that times the frames.
func (b GridBuilder) WithEngine(engine timing.EventScheduler) GridBuilder {
	b.engine = engine
	return b
}

// WithNumNodes sets the number of nodes.
func (b GridBuilder) WithNumNodes(n int) GridBuilder {
	b.numNodes = n
	return b
}

// WithLayout sets the grid layout.
func (b GridBuilder) WithLayout(layout GridLayout) GridBuilder {
	b.layout = layout
	return b
}

// WithRadioRange sets the maximum distance, in meters, between neighbors.
func (b GridBuilder) WithRadioRange(meters float64) GridBuilder {
	b.radioRange = meters
	return b
}

// WithBitRate sets the radio bit rate in bits per second.
func (b GridBuilder) WithBitRate(bps float64) GridBuilder {
	b.bitRate = bps
	return b
}

// WithPerHopDelay sets the delay added to the airtime of every hop.
func (b GridBuilder) WithPerHopDelay(delay timing.VTimeInSec) GridBuilder {
	b.perHopDelay = delay
	return b
}

// WithLossRate sets the probability that a hop loses a frame.
func (b GridBuilder) WithLossRate(rate float64) GridBuilder {
	b.lossRate = rate
	return b
}

// WithTransmitPower sets the power, in watts, drawn while transmitting.
func (b GridBuilder) WithTransmitPower(watts float64) GridBuilder {
	b.txPowerWatts = watts
	return b
}

// WithSeed sets the seed of the loss process.
func (b GridBuilder) WithSeed(seed uint64) GridBuilder {
	b.seed = seed
	return b
}

func (b GridBuilder) validate() error {
	switch {
	case b.engine == nil:
		return fmt.Errorf("grid network needs an engine")
	case b.numNodes <= 0:
		return fmt.Errorf("number of nodes must be positive, got %d", b.numNodes)
	case b.layout.Width <= 0:
		return fmt.Errorf("grid width must be positive, got %d", b.layout.Width)
	case b.layout.Spacing < 0:
		return fmt.Errorf("grid spacing cannot be negative, got %f",
			b.layout.Spacing)
	case b.bitRate <= 0:
		return fmt.Errorf("bit rate must be positive, got %f", b.bitRate)
	case b.perHopDelay < 0:
		return fmt.Errorf("per-hop delay cannot be negative, got %f",
			b.perHopDelay)
	case b.lossRate < 0 || b.lossRate > 1:
		return fmt.Errorf("loss rate must be within [0, 1], got %f", b.lossRate)
	case b.txPowerWatts < 0:
		return fmt.Errorf("transmit power cannot be negative, got %f",
			b.txPowerWatts)
	}

	return nil
}

// Build creates the network and computes its routes.
func (b GridBuilder) Build() (*GridNetwork, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	g := &GridNetwork{
		HandlerTable: NewHandlerTable(),
		engine:       b.engine,
		numNodes:     b.numNodes,
		layout:       b.layout,
		radioRange:   b.radioRange,
		bitRate:      b.bitRate,
		perHopDelay:  b.perHopDelay,
		lossRate:     b.lossRate,
		txPowerWatts: b.txPowerWatts,
		frameIDs:     id.NewPrefixedIDGenerator("frame-"),
	}

	g.rngs = make([]*rand.Rand, b.numNodes)
	for i := range g.rngs {
		g.rngs[i] = rand.New(rand.NewPCG(b.seed, uint64(i)))
	}

	g.connect()
	g.route()

	return g, nil
}
