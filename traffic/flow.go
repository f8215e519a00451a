// Package traffic drives point-to-point packet flows and receives them at
// their destinations.
package traffic

import (
	"fmt"
	"math"
	"sync"

	"github.com/sarchlab/adhocsim/sim/hooking"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/substrate"
)

// HookPosPacketSent is triggered when a flow emits a packet. The hook item is
// the *Packet.
var HookPosPacketSent = &hooking.HookPos{Name: "PacketSent"}

// HookPosPacketReceived is triggered when a sink receives a packet. The hook
// item is the *Packet and the detail is the delay in seconds.
var HookPosPacketReceived = &hooking.HookPos{Name: "PacketReceived"}

// A Sender can hand packets to a network.
type Sender interface {
	Send(src, dst substrate.NodeID, payload any, size int)
}

// FlowSpec configures a flow.
type FlowSpec struct {
	ID          int               `yaml:"id" json:"id"`
	Src         substrate.NodeID  `yaml:"src" json:"src"`
	Dst         substrate.NodeID  `yaml:"dst" json:"dst"`
	PacketSize  int               `yaml:"packet_size" json:"packet_size"`
	PacketCount int               `yaml:"packet_count" json:"packet_count"`
	Interval    timing.VTimeInSec `yaml:"interval" json:"interval"`
	Start       timing.VTimeInSec `yaml:"start" json:"start"`
}

// Name returns the name of the flow, such as "flow3".
func (s FlowSpec) Name() string {
	return fmt.Sprintf("flow%d", s.ID)
}

// Validate checks the spec against a network of numNodes nodes.
func (s FlowSpec) Validate(numNodes int) error {
	switch {
	case s.Src < 0 || int(s.Src) >= numNodes:
		return fmt.Errorf("%s: source %s does not exist", s.Name(), s.Src)
	case s.Dst < 0 || int(s.Dst) >= numNodes:
		return fmt.Errorf("%s: destination %s does not exist", s.Name(), s.Dst)
	case s.PacketSize <= 0:
		return fmt.Errorf("%s: packet size must be positive, got %d",
			s.Name(), s.PacketSize)
	case s.PacketCount < 0:
		return fmt.Errorf("%s: packet count cannot be negative, got %d",
			s.Name(), s.PacketCount)
	case !isTime(s.Interval):
		return fmt.Errorf("%s: interval must be a finite non-negative time, got %f",
			s.Name(), s.Interval)
	case !isTime(s.Start):
		return fmt.Errorf("%s: start time must be a finite non-negative time, got %f",
			s.Name(), s.Start)
	}

	return nil
}

// isTime rejects negative values, NaN and infinities, none of which can be
// ordered in the event queue.
func isTime(t timing.VTimeInSec) bool {
	return t >= 0 && !math.IsInf(t, 1)
}

// State is the lifecycle stage of a flow.
type State int

// The states of a flow.
const (
	StatePending State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// A Packet is the payload that flows put into the network.
type Packet struct {
	FlowID int
	Seq    uint64
	Src    substrate.NodeID
	Dst    substrate.NodeID
	Size   int
	SentAt timing.VTimeInSec
}

// A Flow sends a fixed number of packets from one node to another at a fixed
// interval.
type Flow struct {
	hooking.HookableBase

	spec   FlowSpec
	engine timing.EventScheduler
	sender Sender

	// lock guards state and remaining, which monitors read from other
	// goroutines.
	lock      sync.Mutex
	state     State
	remaining int
	nextSeq   uint64
	next      *timing.EventHandle
}

// Name returns the name of the flow.
func (f *Flow) Name() string {
	return f.spec.Name()
}

// Spec returns the configuration of the flow.
func (f *Flow) Spec() FlowSpec {
	return f.spec
}

// State returns the lifecycle stage of the flow.
func (f *Flow) State() State {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.state
}

// Sent returns the number of packets emitted so far.
func (f *Flow) Sent() int {
	return f.spec.PacketCount - f.Remaining()
}

// Remaining returns the number of packets still to send.
func (f *Flow) Remaining() int {
	f.lock.Lock()
	defer f.lock.Unlock()

	return f.remaining
}

// Start schedules the first packet at the start time of the flow.
func (f *Flow) Start() {
	if f.State() != StatePending || f.next != nil {
		return
	}

	f.next = f.engine.Schedule(timing.NewFuncEvent(f.spec.Start, f.activate))
}

// Stop closes the flow and cancels its next packet.
func (f *Flow) Stop() {
	if f.next != nil {
		f.engine.Cancel(f.next)
	}

	f.close()
}

func (f *Flow) activate(now timing.VTimeInSec) {
	if f.Remaining() == 0 {
		f.close()
		return
	}

	f.lock.Lock()
	f.state = StateActive
	f.lock.Unlock()

	f.tick(now)
}

func (f *Flow) tick(now timing.VTimeInSec) {
	f.emit(now)

	f.lock.Lock()
	f.remaining--
	done := f.remaining == 0
	f.lock.Unlock()

	if done {
		f.close()
		return
	}

	f.next = f.engine.ScheduleAfter(f.spec.Interval, f.tick)
}

func (f *Flow) emit(now timing.VTimeInSec) {
	pkt := &Packet{
		FlowID: f.spec.ID,
		Seq:    f.nextSeq,
		Src:    f.spec.Src,
		Dst:    f.spec.Dst,
		Size:   f.spec.PacketSize,
		SentAt: now,
	}
	f.nextSeq++

	f.InvokeHook(hooking.HookCtx{
		Domain: f,
		Pos:    HookPosPacketSent,
		Item:   pkt,
	})

	f.sender.Send(f.spec.Src, f.spec.Dst, pkt, f.spec.PacketSize)
}

func (f *Flow) close() {
	f.lock.Lock()
	f.state = StateClosed
	f.lock.Unlock()

	f.next = nil
}
