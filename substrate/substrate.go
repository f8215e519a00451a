// Package substrate defines how the experiment core talks to the network it
// runs on. A substrate carries packets between nodes and reports what its
// radios do.
package substrate

import (
	"fmt"
	"sync"
)

// NodeID identifies a node by its index.
type NodeID int

// String returns the metric context of the node, such as "node[3]".
func (n NodeID) String() string {
	return fmt.Sprintf("node[%d]", int(n))
}

// A Frame is one link-layer transmission of a packet. Src and Dst are the
// end points of the packet while From and To are the end points of the hop.
type Frame struct {
	ID      string
	Src     NodeID
	Dst     NodeID
	From    NodeID
	To      NodeID
	Payload any
	Size    int
}

// IsFinalHop returns true if the frame is delivered to its destination.
func (f Frame) IsFinalHop() bool {
	return f.To == f.Dst
}

// TransmitHandler is notified when a node's radio transmits a frame.
type TransmitHandler interface {
	OnTransmit(f Frame)
}

// ReceiveHandler is notified when a node's radio receives a frame.
type ReceiveHandler interface {
	OnReceive(f Frame)
}

// EnergyHandler is notified of the energy, in joules, that a node spends.
type EnergyHandler interface {
	OnEnergySample(node NodeID, cost float64)
}

// Network is a substrate that delivers packets between nodes.
type Network interface {
	// NumNodes returns the number of nodes. Nodes are numbered from 0.
	NumNodes() int

	// Send hands a packet to the network at node src. The network may deliver
	// it to dst later, or lose it.
	Send(src, dst NodeID, payload any, size int)

	RegisterTransmitHandler(node NodeID, h TransmitHandler)
	RegisterReceiveHandler(node NodeID, h ReceiveHandler)
	RegisterEnergyHandler(node NodeID, h EnergyHandler)
}

// HandlerTable keeps the handlers registered for each node and dispatches
// notifications to them in registration order.
type HandlerTable struct {
	lock     sync.RWMutex
	transmit map[NodeID][]TransmitHandler
	receive  map[NodeID][]ReceiveHandler
	energy   map[NodeID][]EnergyHandler
}

// NewHandlerTable creates an empty HandlerTable.
func NewHandlerTable() *HandlerTable {
	return &HandlerTable{
		transmit: make(map[NodeID][]TransmitHandler),
		receive:  make(map[NodeID][]ReceiveHandler),
		energy:   make(map[NodeID][]EnergyHandler),
	}
}

// RegisterTransmitHandler subscribes h to the transmissions of node.
func (t *HandlerTable) RegisterTransmitHandler(node NodeID, h TransmitHandler) {
	t.lock.Lock()
	t.transmit[node] = append(t.transmit[node], h)
	t.lock.Unlock()
}

// RegisterReceiveHandler subscribes h to the receptions of node.
func (t *HandlerTable) RegisterReceiveHandler(node NodeID, h ReceiveHandler) {
	t.lock.Lock()
	t.receive[node] = append(t.receive[node], h)
	t.lock.Unlock()
}

// RegisterEnergyHandler subscribes h to the energy samples of node.
func (t *HandlerTable) RegisterEnergyHandler(node NodeID, h EnergyHandler) {
	t.lock.Lock()
	t.energy[node] = append(t.energy[node], h)
	t.lock.Unlock()
}

// NotifyTransmit tells the handlers of f.From that f was transmitted.
func (t *HandlerTable) NotifyTransmit(f Frame) {
	t.lock.RLock()
	handlers := t.transmit[f.From]
	t.lock.RUnlock()

	for _, h := range handlers {
		h.OnTransmit(f)
	}
}

// NotifyReceive tells the handlers of f.To that f was received.
func (t *HandlerTable) NotifyReceive(f Frame) {
	t.lock.RLock()
	handlers := t.receive[f.To]
	t.lock.RUnlock()

	for _, h := range handlers {
		h.OnReceive(f)
	}
}

// NotifyEnergy tells the handlers of node that it spent cost joules.
func (t *HandlerTable) NotifyEnergy(node NodeID, cost float64) {
	t.lock.RLock()
	handlers := t.energy[node]
	t.lock.RUnlock()

	for _, h := range handlers {
		h.OnEnergySample(node, cost)
	}
}
