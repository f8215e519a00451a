package traffic

import (
	"fmt"

	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/substrate"
)

// StaggeredStarts are the start times, in seconds, of the flows of the wifi
// distance experiment.
var StaggeredStarts = []timing.VTimeInSec{1, 3, 5, 8, 11, 14, 17, 20, 23, 26}

// Builder builds flows.
type Builder struct {
	engine   timing.EventScheduler
	sender   Sender
	numNodes int
}

// MakeBuilder returns a Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithEngine sets the engine that times the packets.
func (b Builder) WithEngine(engine timing.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithSender sets where the packets are sent.
func (b Builder) WithSender(sender Sender) Builder {
	b.sender = sender
	return b
}

// WithNumNodes sets the number of nodes that the flow end points are checked
// against.
func (b Builder) WithNumNodes(n int) Builder {
	b.numNodes = n
	return b
}

// Build creates a pending flow from spec.
func (b Builder) Build(spec FlowSpec) (*Flow, error) {
	if b.engine == nil || b.sender == nil {
		return nil, fmt.Errorf("flow builder needs an engine and a sender")
	}

	if err := spec.Validate(b.numNodes); err != nil {
		return nil, err
	}

	f := &Flow{
		spec:      spec,
		engine:    b.engine,
		sender:    b.sender,
		state:     StatePending,
		remaining: spec.PacketCount,
	}

	return f, nil
}

// BuildAll creates one flow per spec, in order. Flow IDs must be unique, as
// per-flow metrics are keyed on them.
func (b Builder) BuildAll(specs []FlowSpec) ([]*Flow, error) {
	flows := make([]*Flow, 0, len(specs))
	ids := make(map[int]bool, len(specs))

	for _, spec := range specs {
		if ids[spec.ID] {
			return nil, fmt.Errorf("%s is defined more than once", spec.Name())
		}

		ids[spec.ID] = true

		f, err := b.Build(spec)
		if err != nil {
			return nil, err
		}

		flows = append(flows, f)
	}

	return flows, nil
}

// Staggered lays out flows the way the wifi distance experiment does: flow i
// goes from node i in the first grid row to node i of the last grid row and
// starts at starts[i]. Packet size, count and interval come from template.
func Staggered(
	numNodes, gridWidth int,
	starts []timing.VTimeInSec,
	template FlowSpec,
) []FlowSpec {
	lastRow := numNodes - gridWidth
	specs := make([]FlowSpec, 0, len(starts))

	for i, start := range starts {
		if i >= gridWidth || lastRow+i >= numNodes || lastRow+i < 0 {
			break
		}

		spec := template
		spec.ID = i
		spec.Src = substrate.NodeID(i)
		spec.Dst = substrate.NodeID(lastRow + i)
		spec.Start = start
		specs = append(specs, spec)
	}

	return specs
}
