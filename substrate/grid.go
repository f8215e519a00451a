package substrate

import (
	"log"
	"math"
	"math/rand/v2"

	"github.com/sarchlab/adhocsim/sim/hooking"
	"github.com/sarchlab/adhocsim/sim/id"
	"github.com/sarchlab/adhocsim/sim/timing"
)

// HookPosFrameTransmitted is triggered when a hop sender transmits a frame.
var HookPosFrameTransmitted = &hooking.HookPos{Name: "FrameTransmitted"}

// HookPosFrameReceived is triggered when a hop receiver receives a frame.
var HookPosFrameReceived = &hooking.HookPos{Name: "FrameReceived"}

// HookPosFrameDropped is triggered when a frame is lost or has no route.
var HookPosFrameDropped = &hooking.HookPos{Name: "FrameDropped"}

// Reasons attached as hook details when a frame is dropped.
const (
	DropReasonLoss    = "loss"
	DropReasonNoRoute = "no-route"
)

const noRoute NodeID = -1

// GridLayout places nodes row by row on a square grid.
type GridLayout struct {
	Width   int
	Spacing float64
}

// Position returns the coordinates of a node in meters.
func (l GridLayout) Position(n NodeID) (x, y float64) {
	col := int(n) % l.Width
	row := int(n) / l.Width

	return float64(col) * l.Spacing, float64(row) * l.Spacing
}

// Distance returns the Euclidean distance between two nodes.
func (l GridLayout) Distance(a, b NodeID) float64 {
	ax, ay := l.Position(a)
	bx, by := l.Position(b)

	return math.Hypot(ax-bx, ay-by)
}

// GridNetwork is a reference substrate. Nodes within radio range of each other
// are neighbors, packets are relayed along a fixed shortest-hop path, each hop
// takes the frame airtime plus a fixed delay, and each hop may lose the frame
// with a fixed probability.
type GridNetwork struct {
	*HandlerTable
	hooking.HookableBase

	engine       timing.EventScheduler
	numNodes     int
	layout       GridLayout
	radioRange   float64
	bitRate      float64
	perHopDelay  float64
	lossRate     float64
	txPowerWatts float64

	neighbors [][]NodeID
	nextHop   [][]NodeID
	rngs      []*rand.Rand
	frameIDs  id.IDGenerator
}

// NumNodes returns the number of nodes.
func (g *GridNetwork) NumNodes() int {
	return g.numNodes
}

// Layout returns the placement of the nodes.
func (g *GridNetwork) Layout() GridLayout {
	return g.layout
}

// Neighbors returns the nodes within radio range of n.
func (g *GridNetwork) Neighbors(n NodeID) []NodeID {
	return g.neighbors[n]
}

// Route returns the nodes that a packet from src visits until it reaches dst,
// including both ends. It returns nil if dst is unreachable.
func (g *GridNetwork) Route(src, dst NodeID) []NodeID {
	g.mustBeNode(src)
	g.mustBeNode(dst)

	route := []NodeID{src}
	for cur := src; cur != dst; {
		cur = g.nextHop[cur][dst]
		if cur == noRoute {
			return nil
		}

		route = append(route, cur)
	}

	return route
}

// Airtime returns how long the radio is busy sending size bytes.
func (g *GridNetwork) Airtime(size int) timing.VTimeInSec {
	return float64(size*8) / g.bitRate
}

// Send starts relaying a packet from src toward dst.
func (g *GridNetwork) Send(src, dst NodeID, payload any, size int) {
	g.mustBeNode(src)
	g.mustBeNode(dst)

	frame := Frame{
		ID:      g.frameIDs.Generate(),
		Src:     src,
		Dst:     dst,
		From:    src,
		Payload: payload,
		Size:    size,
	}

	if src == dst {
		frame.To = dst
		g.engine.ScheduleAfter(0, func(timing.VTimeInSec) {
			g.arrive(frame)
		})

		return
	}

	frame.To = g.nextHop[src][dst]
	if frame.To == noRoute {
		g.drop(frame, DropReasonNoRoute)
		return
	}

	g.transmit(frame)
}

func (g *GridNetwork) transmit(frame Frame) {
	airtime := g.Airtime(frame.Size)

	g.NotifyTransmit(frame)
	g.InvokeHook(hooking.HookCtx{
		Domain: g,
		Pos:    HookPosFrameTransmitted,
		Item:   frame,
	})
	g.NotifyEnergy(frame.From, g.txPowerWatts*airtime)

	if g.lossRate > 0 && g.rngs[frame.From].Float64() < g.lossRate {
		g.drop(frame, DropReasonLoss)
		return
	}

	g.engine.ScheduleAfter(airtime+g.perHopDelay, func(timing.VTimeInSec) {
		g.arrive(frame)
	})
}

func (g *GridNetwork) arrive(frame Frame) {
	g.NotifyReceive(frame)
	g.InvokeHook(hooking.HookCtx{
		Domain: g,
		Pos:    HookPosFrameReceived,
		Item:   frame,
	})

	if frame.IsFinalHop() {
		return
	}

	next := frame
	next.From = frame.To
	next.To = g.nextHop[frame.To][frame.Dst]
	g.transmit(next)
}

func (g *GridNetwork) drop(frame Frame, reason string) {
	g.InvokeHook(hooking.HookCtx{
		Domain: g,
		Pos:    HookPosFrameDropped,
		Item:   frame,
		Detail: reason,
	})
}

func (g *GridNetwork) mustBeNode(n NodeID) {
	if n < 0 || int(n) >= g.numNodes {
		log.Panicf("%s does not exist in a network of %d nodes", n, g.numNodes)
	}
}

func (g *GridNetwork) connect() {
	g.neighbors = make([][]NodeID, g.numNodes)

	for a := 0; a < g.numNodes; a++ {
		for b := 0; b < g.numNodes; b++ {
			if a == b {
				continue
			}

			if g.layout.Distance(NodeID(a), NodeID(b)) <= g.radioRange {
				g.neighbors[a] = append(g.neighbors[a], NodeID(b))
			}
		}
	}
}

// route fills the next hop table with a breadth-first search rooted at every
// destination. Ties go to the neighbor with the lowest ID.
func (g *GridNetwork) route() {
	g.nextHop = make([][]NodeID, g.numNodes)
	for i := range g.nextHop {
		g.nextHop[i] = make([]NodeID, g.numNodes)
		for j := range g.nextHop[i] {
			g.nextHop[i][j] = noRoute
		}
	}

	for d := 0; d < g.numNodes; d++ {
		dst := NodeID(d)
		g.nextHop[dst][dst] = dst

		queue := []NodeID{dst}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]

			for _, n := range g.neighbors[cur] {
				if g.nextHop[n][dst] != noRoute {
					continue
				}

				g.nextHop[n][dst] = cur
				queue = append(queue, n)
			}
		}
	}
}
