// Package energy tracks the battery of every node.
package energy

import (
	"fmt"
	"io"
	"log"
	"math"
	"sync"

	"github.com/sarchlab/adhocsim/substrate"
)

// A Record is the energy state of one node, in joules.
type Record struct {
	Node     substrate.NodeID
	Initial  float64
	Residual float64
}

// Consumed returns the energy the node has spent.
func (r Record) Consumed() float64 {
	return r.Initial - r.Residual
}

// UnderflowError reports a deduction that would drive a node's residual energy
// below zero. The ledger panics with it, as the run no longer models a real
// battery.
type UnderflowError struct {
	Node     substrate.NodeID
	Residual float64
	Cost     float64
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("%s cannot spend %.10f J with %.10f J left",
		e.Node, e.Cost, e.Residual)
}

// Ledger keeps the energy records of all nodes. It receives energy samples
// from the substrate.
type Ledger struct {
	lock    sync.Mutex
	order   []substrate.NodeID
	records map[substrate.NodeID]*Record
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		records: make(map[substrate.NodeID]*Record),
	}
}

// AddNode gives node a battery of initial joules.
func (l *Ledger) AddNode(node substrate.NodeID, initial float64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if !(initial >= 0) || math.IsInf(initial, 1) {
		return fmt.Errorf("initial energy of %s must be finite and non-negative, got %f",
			node, initial)
	}

	if _, found := l.records[node]; found {
		return fmt.Errorf("%s is already in the ledger", node)
	}

	l.records[node] = &Record{
		Node:     node,
		Initial:  initial,
		Residual: initial,
	}
	l.order = append(l.order, node)

	return nil
}

// OnTransmit deducts cost joules from node.
func (l *Ledger) OnTransmit(node substrate.NodeID, cost float64) {
	l.lock.Lock()
	defer l.lock.Unlock()

	r, found := l.records[node]
	if !found {
		log.Panicf("%s is not in the ledger", node)
	}

	if !(cost >= 0) || math.IsInf(cost, 1) {
		log.Panicf("%s cannot spend %f joules", node, cost)
	}

	if r.Residual-cost < 0 {
		panic(&UnderflowError{Node: node, Residual: r.Residual, Cost: cost})
	}

	r.Residual -= cost
}

// OnEnergySample lets the ledger subscribe to substrate energy samples.
func (l *Ledger) OnEnergySample(node substrate.NodeID, cost float64) {
	l.OnTransmit(node, cost)
}

// Record returns the energy record of node.
func (l *Ledger) Record(node substrate.NodeID) (Record, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	r, found := l.records[node]
	if !found {
		return Record{}, false
	}

	return *r, true
}

// Residual returns the energy node has left.
func (l *Ledger) Residual(node substrate.NodeID) float64 {
	r, found := l.Record(node)
	if !found {
		log.Panicf("%s is not in the ledger", node)
	}

	return r.Residual
}

// Consumed returns the energy node has spent.
func (l *Ledger) Consumed(node substrate.NodeID) float64 {
	r, found := l.Record(node)
	if !found {
		log.Panicf("%s is not in the ledger", node)
	}

	return r.Consumed()
}

// Records returns the records of all nodes in the order they were added.
func (l *Ledger) Records() []Record {
	l.lock.Lock()
	defer l.lock.Unlock()

	records := make([]Record, 0, len(l.order))
	for _, n := range l.order {
		records = append(records, *l.records[n])
	}

	return records
}

// TotalConsumed returns the energy spent by all nodes.
func (l *Ledger) TotalConsumed() float64 {
	total := 0.0
	for _, r := range l.Records() {
		total += r.Consumed()
	}

	return total
}

// WriteSummary writes the energy consumed by every node, one value per line,
// in the order the nodes were added. It fails if any node has spent more than
// its initial energy.
func (l *Ledger) WriteSummary(w io.Writer) error {
	for _, r := range l.Records() {
		if r.Consumed() > r.Initial {
			return fmt.Errorf("%s consumed %f J, more than its %f J",
				r.Node, r.Consumed(), r.Initial)
		}

		if _, err := fmt.Fprintf(w, "%g\n", r.Consumed()); err != nil {
			return err
		}
	}

	return nil
}

// CostModel converts radio activity into energy.
type CostModel struct {
	TxCurrentA     float64
	SupplyVoltageV float64
}

// DefaultCostModel returns the 802.11 radio of the wifi distance experiment:
// 17.4 mA transmit current from a 3 V source.
func DefaultCostModel() CostModel {
	return CostModel{
		TxCurrentA:     0.0174,
		SupplyVoltageV: 3.0,
	}
}

// TransmitPower returns the power, in watts, drawn while transmitting.
func (m CostModel) TransmitPower() float64 {
	return m.TxCurrentA * m.SupplyVoltageV
}

// TransmitCost returns the energy, in joules, of transmitting for airtime
// seconds.
func (m CostModel) TransmitCost(airtime float64) float64 {
	return m.TransmitPower() * airtime
}
