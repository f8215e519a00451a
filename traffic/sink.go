package traffic

import (
	"github.com/sarchlab/adhocsim/sim/hooking"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/substrate"
)

// A Sink is the receiving application of a node. It accepts the packets whose
// destination is its node and measures their delay.
type Sink struct {
	hooking.HookableBase

	node     substrate.NodeID
	clock    timing.TimeTeller
	received uint64
}

// NewSink creates a sink on node.
func NewSink(node substrate.NodeID, clock timing.TimeTeller) *Sink {
	return &Sink{
		node:  node,
		clock: clock,
	}
}

// Node returns the node the sink runs on.
func (s *Sink) Node() substrate.NodeID {
	return s.node
}

// Received returns the number of packets delivered to the sink.
func (s *Sink) Received() uint64 {
	return s.received
}

// OnReceive consumes frames that end their journey at the sink's node.
func (s *Sink) OnReceive(f substrate.Frame) {
	if !f.IsFinalHop() || f.To != s.node {
		return
	}

	pkt, ok := f.Payload.(*Packet)
	if !ok {
		return
	}

	s.received++

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosPacketReceived,
		Item:   pkt,
		Detail: s.clock.Now() - pkt.SentAt,
	})
}
