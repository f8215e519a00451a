package simulation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/adhocsim/energy"
	"github.com/sarchlab/adhocsim/metrics"
	"github.com/sarchlab/adhocsim/sim/timing"
	"github.com/sarchlab/adhocsim/substrate"
	"github.com/sarchlab/adhocsim/traffic"
)

type transmitTimes struct {
	clock timing.TimeTeller
	times []timing.VTimeInSec
}

func (t *transmitTimes) OnTransmit(substrate.Frame) {
	t.times = append(t.times, t.clock.Now())
}

// smallConfig is a 2 by 2 grid where node 0 reaches node 3 through node 1.
func smallConfig(dir string) Config {
	c := DefaultConfig()
	c.Network.NumNodes = 4
	c.Network.GridWidth = 2
	c.Network.Distance = 10
	c.Traffic.Flows = []traffic.FlowSpec{{
		ID:          0,
		Src:         0,
		Dst:         3,
		PacketSize:  1000,
		PacketCount: 1,
		Interval:    1,
		Start:       3,
	}}
	c.Output.Prefix = filepath.Join(dir, "data")
	c.Output.EnergyFile = filepath.Join(dir, "energy.txt")
	c.Run.RunID = "run-test"

	return c
}

var _ = Describe("Simulation", func() {
	var (
		dir string
		c   Config
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		c = smallConfig(dir)
	})

	It("should send a single packet at its start time", func() {
		s, err := MakeBuilder().WithConfig(c).Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		tx := &transmitTimes{clock: s.Engine()}
		s.Network().RegisterTransmitHandler(0, tx)

		Expect(s.Run()).To(Succeed())

		Expect(tx.times).To(Equal([]timing.VTimeInSec{3.0}))
		Expect(s.Flows()[0].Sent()).To(Equal(1))
		Expect(s.Flows()[0].State()).To(Equal(traffic.StateClosed))
		Expect(s.Engine().Now()).To(Equal(timing.VTimeInSec(33)))

		sink, ok := s.Sink(3)
		Expect(ok).To(BeTrue())
		Expect(sink.Received()).To(Equal(uint64(1)))
	})

	It("should fill the metrics of every flow", func() {
		s, err := MakeBuilder().WithConfig(c).Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		Expect(s.Run()).To(Succeed())

		r := s.Registry()
		count := func(name, ctx string) uint64 {
			a, ok := r.Lookup(metrics.Key{Name: name, Context: ctx})
			Expect(ok).To(BeTrue(), name+" "+ctx)

			return a.Snapshot().Count
		}

		Expect(count(MetricTxFrames, "node[0]")).To(Equal(uint64(1)))
		Expect(count(MetricRxFrames, "node[3]")).To(Equal(uint64(1)))
		Expect(count(MetricTxPackets, "node[0]")).To(Equal(uint64(1)))
		Expect(count(MetricRxPackets, "node[3]")).To(Equal(uint64(1)))

		size, _ := r.Lookup(metrics.Key{Name: MetricTxPktSize, Context: "node[0]"})
		Expect(size.Snapshot().Sum).To(Equal(1000.0))

		delay, _ := r.Lookup(metrics.Key{Name: "delay0", Context: "."})
		Expect(delay.Snapshot().Mean).To(BeNumerically("~", 0.0164, 1e-9))
	})

	It("should write the report and the energy summary", func() {
		s, err := MakeBuilder().WithConfig(c).Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		Expect(s.Run()).To(Succeed())

		sca, err := os.ReadFile(filepath.Join(dir, "data.sca"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(sca)).To(HavePrefix("run run-test\n"))
		Expect(string(sca)).To(ContainSubstring("scalar node[0] wifi-tx-frames 1\n"))
		Expect(string(sca)).To(ContainSubstring("attr measurement \"10\"\n"))

		summary, err := os.ReadFile(filepath.Join(dir, "energy.txt"))
		Expect(err).NotTo(HaveOccurred())
		lines := strings.Split(strings.TrimSpace(string(summary)), "\n")
		Expect(lines).To(HaveLen(4))
		Expect(lines[2]).To(Equal("0"))

		tx := c.CostModel().TransmitCost(0.008)
		Expect(s.Ledger().Consumed(0)).To(BeNumerically("~", tx, 1e-12))
		Expect(s.Ledger().Consumed(1)).To(BeNumerically("~", tx, 1e-12))
		Expect(s.Ledger().Consumed(3)).To(Equal(0.0))
	})

	It("should refuse to run twice", func() {
		s, err := MakeBuilder().WithConfig(c).Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		Expect(s.Run()).To(Succeed())
		Expect(s.Run()).To(HaveOccurred())
	})

	It("should produce identical reports for identical configurations", func() {
		c.Traffic.Flows[0].PacketCount = 5
		c.Network.LossRate = 0.3

		run := func(sub string) *Simulation {
			cc := c
			cc.Output.Prefix = filepath.Join(dir, sub)
			cc.Output.EnergyFile = ""

			s, err := MakeBuilder().WithConfig(cc).Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Run()).To(Succeed())
			Expect(s.Terminate()).To(Succeed())

			return s
		}

		a := run("a")
		b := run("b")

		Expect(a.Report().Entries).To(Equal(b.Report().Entries))
		Expect(a.Report().Energy).To(Equal(b.Report().Energy))
	})

	It("should abort on an unknown output format", func() {
		c.Output.Format = "xml"

		s, err := MakeBuilder().WithConfig(c).Build()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("xml"))
		Expect(s).To(BeNil())

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("should fail without a report when a battery runs out", func() {
		c.Energy.InitialJoules = 1e-6

		s, err := MakeBuilder().WithConfig(c).Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		err = s.Run()

		var underflow *energy.UnderflowError
		Expect(errors.As(err, &underflow)).To(BeTrue())
		Expect(underflow.Node).To(Equal(substrate.NodeID(0)))
		Expect(s.Report()).To(BeNil())
		Expect(filepath.Join(dir, "data.sca")).NotTo(BeAnExistingFile())
		Expect(filepath.Join(dir, "energy.txt")).NotTo(BeAnExistingFile())
	})

	It("should not resume after a battery runs out", func() {
		c.Energy.InitialJoules = 1e-6

		s, err := MakeBuilder().WithConfig(c).Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		Expect(s.Run()).NotTo(Succeed())
		events := s.Events()
		now := s.Engine().Now()

		err = s.Run()

		Expect(err).To(MatchError(ContainSubstring("already run")))
		Expect(s.Events()).To(Equal(events))
		Expect(s.Engine().Now()).To(Equal(now))
		Expect(s.Report()).To(BeNil())
		Expect(filepath.Join(dir, "data.sca")).NotTo(BeAnExistingFile())
	})

	It("should write a frame trace", func() {
		c.Output.Tracing = TraceCSV

		s, err := MakeBuilder().WithConfig(c).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run()).To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		trace, err := os.ReadFile(filepath.Join(dir, "data_trace.csv"))
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(string(trace)), "\n")
		Expect(lines).To(HaveLen(5))
		Expect(lines[1]).To(HavePrefix("3.0000000000, tx, "))
	})

	It("should count the handled events", func() {
		s, err := MakeBuilder().WithConfig(c).Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		Expect(s.Run()).To(Succeed())

		// flow start, two hop arrivals
		Expect(s.Events()).To(Equal(uint64(3)))
	})
})

var _ = Describe("Staggered experiment", func() {
	It("should register metrics family by family in flow order", func() {
		dir := GinkgoT().TempDir()

		c := DefaultConfig()
		c.Network.NumNodes = 9
		c.Network.GridWidth = 3
		c.Traffic.Starts = []timing.VTimeInSec{1, 3, 5}
		c.Output.Prefix = filepath.Join(dir, "data")
		c.Output.EnergyFile = ""

		s, err := MakeBuilder().WithConfig(c).Build()
		Expect(err).NotTo(HaveOccurred())
		defer s.Terminate()

		names := make([]string, 0)
		for _, k := range s.Registry().Keys() {
			names = append(names, k.String())
		}

		Expect(names).To(Equal([]string{
			"node[0]/wifi-tx-frames", "node[1]/wifi-tx-frames", "node[2]/wifi-tx-frames",
			"node[6]/wifi-rx-frames", "node[7]/wifi-rx-frames", "node[8]/wifi-rx-frames",
			"node[0]/sender-tx-packets", "node[1]/sender-tx-packets", "node[2]/sender-tx-packets",
			"node[6]/receiver-rx-packets", "node[7]/receiver-rx-packets", "node[8]/receiver-rx-packets",
			"node[0]/tx-pkt-size", "node[1]/tx-pkt-size", "node[2]/tx-pkt-size",
			"./delay0", "./delay1", "./delay2",
		}))

		Expect(s.ID()).To(HavePrefix("run-"))
	})
})

var _ = Describe("Builder", func() {
	var mockCtrl *gomock.Controller

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should register handlers with the network per node", func() {
		network := NewMockNetwork(mockCtrl)
		network.EXPECT().NumNodes().Return(4).AnyTimes()

		for i := 0; i < 4; i++ {
			network.EXPECT().RegisterEnergyHandler(substrate.NodeID(i), gomock.Any())
		}

		// one sink and one frame counter on the destination
		network.EXPECT().RegisterReceiveHandler(substrate.NodeID(3), gomock.Any()).
			Times(2)
		network.EXPECT().RegisterTransmitHandler(substrate.NodeID(0), gomock.Any())

		dir := GinkgoT().TempDir()

		s, err := MakeBuilder().
			WithConfig(smallConfig(dir)).
			WithNetworkFactory(func(timing.EventScheduler, Config) (substrate.Network, error) {
				return network, nil
			}).
			Build()

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Network()).To(BeIdenticalTo(network))
	})

	It("should reject tracing on networks without hooks", func() {
		network := NewMockNetwork(mockCtrl)
		network.EXPECT().NumNodes().Return(4).AnyTimes()
		network.EXPECT().RegisterEnergyHandler(gomock.Any(), gomock.Any()).AnyTimes()
		network.EXPECT().RegisterReceiveHandler(gomock.Any(), gomock.Any()).AnyTimes()
		network.EXPECT().RegisterTransmitHandler(gomock.Any(), gomock.Any()).AnyTimes()

		c := smallConfig(GinkgoT().TempDir())
		c.Output.Tracing = TraceCSV

		_, err := MakeBuilder().
			WithConfig(c).
			WithNetworkFactory(func(timing.EventScheduler, Config) (substrate.Network, error) {
				return network, nil
			}).
			Build()

		Expect(err).To(HaveOccurred())
	})

	It("should hand the packets of a flow to the network", func() {
		network := NewMockNetwork(mockCtrl)
		network.EXPECT().NumNodes().Return(4).AnyTimes()
		network.EXPECT().RegisterEnergyHandler(gomock.Any(), gomock.Any()).AnyTimes()
		network.EXPECT().RegisterReceiveHandler(gomock.Any(), gomock.Any()).AnyTimes()
		network.EXPECT().RegisterTransmitHandler(gomock.Any(), gomock.Any()).AnyTimes()
		network.EXPECT().
			Send(substrate.NodeID(0), substrate.NodeID(3), gomock.Any(), 1000).
			Times(2)

		c := smallConfig(GinkgoT().TempDir())
		c.Traffic.Flows[0].PacketCount = 2

		s, err := MakeBuilder().
			WithConfig(c).
			WithNetworkFactory(func(timing.EventScheduler, Config) (substrate.Network, error) {
				return network, nil
			}).
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Run()).To(Succeed())
		Expect(s.Report().Entries).To(HaveLen(6))
	})
})
