// Package tracing records what happens to every frame in the network. It only
// observes and never changes the simulation.
package tracing

import (
	"github.com/sarchlab/adhocsim/sim/hooking"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/substrate"
	"github.com/sarchlab/adhocsim/traffic"
)

// Kinds of frame records.
const (
	KindTransmit = "tx"
	KindReceive  = "rx"
	KindDrop     = "drop"
)

// FrameRecord is one observation of a frame.
type FrameRecord struct {
	Time    float64
	Kind    string
	FrameID string
	Src     int
	Dst     int
	From    int
	To      int
	FlowID  int
	Seq     int64
	Size    int
	Reason  string
}

// TraceWriter stores frame records.
type TraceWriter interface {
	Write(r FrameRecord)
	Flush()
	Close() error
}

// FrameTracer is a hook that turns substrate frame events into records.
type FrameTracer struct {
	clock  timing.TimeTeller
	writer TraceWriter
}

// NewFrameTracer creates a FrameTracer that stamps records with the time of
// clock.
func NewFrameTracer(clock timing.TimeTeller, writer TraceWriter) *FrameTracer {
	return &FrameTracer{
		clock:  clock,
		writer: writer,
	}
}

// Func records the frame of the hook context.
func (t *FrameTracer) Func(ctx hooking.HookCtx) {
	frame, ok := ctx.Item.(substrate.Frame)
	if !ok {
		return
	}

	var kind string

	switch ctx.Pos {
	case substrate.HookPosFrameTransmitted:
		kind = KindTransmit
	case substrate.HookPosFrameReceived:
		kind = KindReceive
	case substrate.HookPosFrameDropped:
		kind = KindDrop
	default:
		return
	}

	record := FrameRecord{
		Time:    t.clock.Now(),
		Kind:    kind,
		FrameID: frame.ID,
		Src:     int(frame.Src),
		Dst:     int(frame.Dst),
		From:    int(frame.From),
		To:      int(frame.To),
		FlowID:  -1,
		Seq:     -1,
		Size:    frame.Size,
	}

	if pkt, ok := frame.Payload.(*traffic.Packet); ok {
		record.FlowID = pkt.FlowID
		record.Seq = int64(pkt.Seq)
	}

	if reason, ok := ctx.Detail.(string); ok {
		record.Reason = reason
	}

	t.writer.Write(record)
}
