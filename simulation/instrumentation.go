package simulation

import (
	"fmt"

	"github.com/sarchlab/adhocsim/metrics"
	"github.com/sarchlab/adhocsim/sim/hooking"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/substrate"
	"github.com/sarchlab/adhocsim/traffic"
)

// Metric names.
const (
	MetricTxFrames   = "wifi-tx-frames"
	MetricRxFrames   = "wifi-rx-frames"
	MetricTxPackets  = "sender-tx-packets"
	MetricRxPackets  = "receiver-rx-packets"
	MetricTxPktSize  = "tx-pkt-size"
	MetricDelayStem  = "delay"
	DelayMetricScope = "."
)

// DelayMetric returns the name of the delay statistics of a flow.
func DelayMetric(flowID int) string {
	return fmt.Sprintf("%s%d", MetricDelayStem, flowID)
}

// frameCounter counts the frames a node transmits or receives.
type frameCounter struct {
	counter *metrics.Counter
}

func (c frameCounter) OnTransmit(substrate.Frame) {
	c.counter.Increment()
}

func (c frameCounter) OnReceive(substrate.Frame) {
	c.counter.Increment()
}

// senderProbe records the packets a flow emits.
type senderProbe struct {
	packets *metrics.Counter
	sizes   *metrics.SizeStats
}

func (p senderProbe) Func(ctx hooking.HookCtx) {
	if ctx.Pos != traffic.HookPosPacketSent {
		return
	}

	pkt := ctx.Item.(*traffic.Packet)

	p.packets.Increment()
	p.sizes.UpdateSize(pkt.Size)
}

// receiverProbe records the packets a sink accepts and their delay per flow.
type receiverProbe struct {
	packets *metrics.Counter
	delays  map[int]*metrics.DelayStats
}

func (p receiverProbe) Func(ctx hooking.HookCtx) {
	if ctx.Pos != traffic.HookPosPacketReceived {
		return
	}

	pkt := ctx.Item.(*traffic.Packet)

	p.packets.Increment()

	if d, ok := p.delays[pkt.FlowID]; ok {
		d.Update(float64(ctx.Detail.(timing.VTimeInSec)))
	}
}

// instrument creates the metrics of the flows and connects them to the
// network, the flows and the sinks. Metrics are registered family by family,
// each family in flow order, so that reports list them the same way every
// run. A node serving several flows shares one metric per family.
func instrument(
	registry *metrics.Registry,
	network substrate.Network,
	flows []*traffic.Flow,
	sinks map[substrate.NodeID]*traffic.Sink,
) {
	key := func(name string, n substrate.NodeID) metrics.Key {
		return metrics.Key{Name: name, Context: n.String()}
	}

	once := make(map[metrics.Key]bool)
	first := func(k metrics.Key) bool {
		if once[k] {
			return false
		}

		once[k] = true

		return true
	}

	for _, f := range flows {
		k := key(MetricTxFrames, f.Spec().Src)
		if first(k) {
			network.RegisterTransmitHandler(
				f.Spec().Src, frameCounter{registry.Counter(k)})
		}
	}

	for _, f := range flows {
		k := key(MetricRxFrames, f.Spec().Dst)
		if first(k) {
			network.RegisterReceiveHandler(
				f.Spec().Dst, frameCounter{registry.Counter(k)})
		}
	}

	for _, f := range flows {
		registry.Counter(key(MetricTxPackets, f.Spec().Src))
	}

	for _, f := range flows {
		registry.Counter(key(MetricRxPackets, f.Spec().Dst))
	}

	for _, f := range flows {
		src := f.Spec().Src
		f.AcceptHook(senderProbe{
			packets: registry.Counter(key(MetricTxPackets, src)),
			sizes:   registry.Size(key(MetricTxPktSize, src)),
		})
	}

	probes := make(map[substrate.NodeID]receiverProbe)

	for _, f := range flows {
		dst := f.Spec().Dst

		probe, ok := probes[dst]
		if !ok {
			probe = receiverProbe{
				packets: registry.Counter(key(MetricRxPackets, dst)),
				delays:  make(map[int]*metrics.DelayStats),
			}
			probes[dst] = probe
			sinks[dst].AcceptHook(probe)
		}

		probe.delays[f.Spec().ID] = registry.Delay(metrics.Key{
			Name:    DelayMetric(f.Spec().ID),
			Context: DelayMetricScope,
		})
	}
}
