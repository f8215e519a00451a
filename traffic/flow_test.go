package traffic

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/adhocsim/sim/hooking"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/substrate"
)

type packetLog struct {
	packets []*Packet
	delays  []timing.VTimeInSec
}

func (l *packetLog) Func(ctx hooking.HookCtx) {
	l.packets = append(l.packets, ctx.Item.(*Packet))

	if ctx.Pos == HookPosPacketReceived {
		l.delays = append(l.delays, ctx.Detail.(timing.VTimeInSec))
	}
}

var _ = Describe("Flow", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *timing.SerialEngine
		sender   *MockSender
		builder  Builder
		spec     FlowSpec
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = timing.NewSerialEngine()
		sender = NewMockSender(mockCtrl)
		builder = MakeBuilder().
			WithEngine(engine).
			WithSender(sender).
			WithNumNodes(100)
		spec = FlowSpec{
			ID:          1,
			Src:         1,
			Dst:         91,
			PacketSize:  1000,
			PacketCount: 1,
			Interval:    1.0,
			Start:       3.0,
		}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should send a single packet at the start time", func() {
		flow, err := builder.Build(spec)
		Expect(err).NotTo(HaveOccurred())

		sender.EXPECT().
			Send(substrate.NodeID(1), substrate.NodeID(91), gomock.Any(), 1000).
			Do(func(_, _ substrate.NodeID, payload any, _ int) {
				pkt := payload.(*Packet)
				Expect(pkt.SentAt).To(Equal(3.0))
				Expect(pkt.Seq).To(Equal(uint64(0)))
				Expect(engine.Now()).To(Equal(3.0))
			})

		flow.Start()
		Expect(flow.State()).To(Equal(StatePending))

		Expect(engine.Run()).To(Succeed())

		Expect(flow.State()).To(Equal(StateClosed))
		Expect(flow.Sent()).To(Equal(1))
		Expect(engine.Now()).To(Equal(3.0))
	})

	It("should send its budget at the interval with increasing sequence numbers", func() {
		spec.PacketCount = 4
		spec.Interval = 0.5
		flow, err := builder.Build(spec)
		Expect(err).NotTo(HaveOccurred())

		var times []timing.VTimeInSec
		var seqs []uint64
		sender.EXPECT().
			Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Do(func(_, _ substrate.NodeID, payload any, _ int) {
				pkt := payload.(*Packet)
				times = append(times, pkt.SentAt)
				seqs = append(seqs, pkt.Seq)
			}).
			Times(4)

		flow.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(times).To(Equal([]timing.VTimeInSec{3, 3.5, 4, 4.5}))
		Expect(seqs).To(Equal([]uint64{0, 1, 2, 3}))
		Expect(flow.Remaining()).To(Equal(0))
		Expect(engine.Pending()).To(Equal(0))
	})

	It("should be active between packets", func() {
		spec.PacketCount = 2
		flow, err := builder.Build(spec)
		Expect(err).NotTo(HaveOccurred())

		sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(2)

		var midState State
		engine.Schedule(timing.NewFuncEvent(3.5, func(timing.VTimeInSec) {
			midState = flow.State()
		}))

		flow.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(midState).To(Equal(StateActive))
		Expect(flow.State()).To(Equal(StateClosed))
	})

	It("should close without sending when the budget is zero", func() {
		spec.PacketCount = 0
		flow, err := builder.Build(spec)
		Expect(err).NotTo(HaveOccurred())

		flow.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(flow.State()).To(Equal(StateClosed))
		Expect(flow.Sent()).To(Equal(0))
	})

	It("should stop sending when stopped", func() {
		spec.PacketCount = 5
		flow, err := builder.Build(spec)
		Expect(err).NotTo(HaveOccurred())

		sender.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(2)
		engine.Schedule(timing.NewFuncEvent(4.5, func(timing.VTimeInSec) {
			flow.Stop()
		}))

		flow.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(flow.State()).To(Equal(StateClosed))
		Expect(flow.Sent()).To(Equal(2))
	})

	It("should fire the sent hook before handing the packet over", func() {
		flow, err := builder.Build(spec)
		Expect(err).NotTo(HaveOccurred())

		sent := &packetLog{}
		flow.AcceptHook(sent)

		sender.EXPECT().
			Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Do(func(_, _ substrate.NodeID, payload any, _ int) {
				Expect(sent.packets).To(ConsistOf(payload))
			})

		flow.Start()
		Expect(engine.Run()).To(Succeed())
	})

	It("should keep flows independent", func() {
		other := spec
		other.ID = 2
		other.Src = 2
		other.Dst = 92
		other.Start = 3.0

		a, err := builder.Build(spec)
		Expect(err).NotTo(HaveOccurred())
		b, err := builder.Build(other)
		Expect(err).NotTo(HaveOccurred())

		var order []substrate.NodeID
		sender.EXPECT().
			Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Do(func(src, _ substrate.NodeID, _ any, _ int) {
				order = append(order, src)
			}).
			Times(2)

		a.Start()
		b.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(order).To(Equal([]substrate.NodeID{1, 2}))
	})

	It("should reject invalid specs", func() {
		bad := spec
		bad.Dst = 100
		_, err := builder.Build(bad)
		Expect(err).To(HaveOccurred())

		bad = spec
		bad.Interval = -1
		_, err = builder.Build(bad)
		Expect(err).To(HaveOccurred())

		bad = spec
		bad.PacketCount = -1
		_, err = builder.Build(bad)
		Expect(err).To(HaveOccurred())

		_, err = MakeBuilder().WithNumNodes(100).Build(spec)
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("should reject times that cannot be ordered",
		func(mutate func(s *FlowSpec)) {
			bad := spec
			mutate(&bad)

			_, err := builder.Build(bad)
			Expect(err).To(HaveOccurred())
		},
		Entry("NaN interval", func(s *FlowSpec) { s.Interval = math.NaN() }),
		Entry("infinite interval", func(s *FlowSpec) { s.Interval = math.Inf(1) }),
		Entry("NaN start", func(s *FlowSpec) { s.Start = math.NaN() }),
		Entry("infinite start", func(s *FlowSpec) { s.Start = math.Inf(1) }),
	)

	It("should reject flows sharing an ID", func() {
		other := spec
		other.Src = 2
		other.Dst = 92

		_, err := builder.BuildAll([]FlowSpec{spec, other})
		Expect(err).To(MatchError(ContainSubstring("flow1")))
	})

	It("should let other goroutines read its progress while running", func() {
		spec.PacketCount = 2000
		spec.Interval = 0.001
		flow, err := builder.Build(spec)
		Expect(err).NotTo(HaveOccurred())

		sender.EXPECT().
			Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Times(2000)

		flow.Start()

		done := make(chan error)
		go func() {
			done <- engine.Run()
		}()

		lastSent := 0
		for running := true; running; {
			select {
			case err := <-done:
				Expect(err).NotTo(HaveOccurred())
				running = false
			default:
				_ = flow.State()
				sent := flow.Sent()
				Expect(sent).To(BeNumerically(">=", lastSent))
				lastSent = sent
			}
		}

		Expect(flow.State()).To(Equal(StateClosed))
		Expect(flow.Remaining()).To(Equal(0))
	})
})

var _ = Describe("Sink", func() {
	var (
		engine *timing.SerialEngine
		sink   *Sink
		log    *packetLog
	)

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		sink = NewSink(91, engine)
		log = &packetLog{}
		sink.AcceptHook(log)
	})

	It("should measure the delay of packets that end at its node", func() {
		pkt := &Packet{FlowID: 1, Dst: 91, SentAt: 3.0}

		engine.ScheduleAfter(3.25, func(timing.VTimeInSec) {
			sink.OnReceive(substrate.Frame{Dst: 91, To: 91, Payload: pkt})
		})
		Expect(engine.Run()).To(Succeed())

		Expect(sink.Received()).To(Equal(uint64(1)))
		Expect(log.packets).To(ConsistOf(pkt))
		Expect(log.delays).To(ConsistOf(BeNumerically("~", 0.25, 1e-12)))
	})

	It("should ignore relayed frames and foreign payloads", func() {
		sink.OnReceive(substrate.Frame{Dst: 95, To: 91, Payload: &Packet{}})
		sink.OnReceive(substrate.Frame{Dst: 91, To: 91, Payload: "beacon"})

		Expect(sink.Received()).To(Equal(uint64(0)))
		Expect(log.packets).To(BeEmpty())
	})
})

var _ = Describe("Staggered", func() {
	It("should lay out the ten flows of the distance experiment", func() {
		specs := Staggered(100, 10, StaggeredStarts, FlowSpec{
			PacketSize:  1000,
			PacketCount: 1,
			Interval:    1,
		})

		Expect(specs).To(HaveLen(10))
		for i, s := range specs {
			Expect(s.ID).To(Equal(i))
			Expect(s.Src).To(Equal(substrate.NodeID(i)))
			Expect(s.Dst).To(Equal(substrate.NodeID(90 + i)))
			Expect(s.Start).To(Equal(StaggeredStarts[i]))
			Expect(s.PacketSize).To(Equal(1000))
		}
	})

	It("should not lay out more flows than grid columns", func() {
		specs := Staggered(16, 4, StaggeredStarts, FlowSpec{})

		Expect(specs).To(HaveLen(4))
		Expect(specs[3].Dst).To(Equal(substrate.NodeID(15)))
	})
})
