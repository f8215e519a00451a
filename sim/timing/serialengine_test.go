package timing

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/adhocsim/sim/hooking"
)

type hookRecorder struct {
	positions []*hooking.HookPos
}

func (r *hookRecorder) Func(ctx hooking.HookCtx) {
	r.positions = append(r.positions, ctx.Pos)
}

var _ = Describe("SerialEngine", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should handle events in time order", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := NewEventBase(2, handler)
		evt2 := NewEventBase(1, handler)

		engine.Schedule(evt1)
		engine.Schedule(evt2)

		gomock.InOrder(
			handler.EXPECT().Handle(evt2).Return(nil),
			handler.EXPECT().Handle(evt1).Return(nil),
		)

		Expect(engine.Run()).To(Succeed())
		Expect(engine.Now()).To(Equal(VTimeInSec(2)))
	})

	It("should break ties by submission order", func() {
		var order []int

		for i := 0; i < 50; i++ {
			i := i
			engine.ScheduleAfter(5, func(VTimeInSec) {
				order = append(order, i)
			})
		}

		Expect(engine.Run()).To(Succeed())

		Expect(order).To(HaveLen(50))
		for i := range order {
			Expect(order[i]).To(Equal(i))
		}
	})

	It("should handle secondary events after same-time primary events", func() {
		var order []string

		secondary := NewSecondaryEventBase(1, nil)
		secondaryEvt := &FuncEvent{EventBase: *secondary, fn: func(VTimeInSec) {
			order = append(order, "secondary")
		}}
		secondaryEvt.handler = secondaryEvt

		engine.Schedule(secondaryEvt)
		engine.Schedule(NewFuncEvent(1, func(VTimeInSec) {
			order = append(order, "primary")
		}))

		Expect(engine.Run()).To(Succeed())
		Expect(order).To(Equal([]string{"primary", "secondary"}))
	})

	It("should let callbacks read the clock and schedule more events", func() {
		var times []VTimeInSec

		engine.ScheduleAfter(1, func(now VTimeInSec) {
			times = append(times, engine.Now())
			engine.ScheduleAfter(0, func(now VTimeInSec) {
				times = append(times, now)
			})
			engine.ScheduleAfter(0.5, func(now VTimeInSec) {
				times = append(times, now)
			})
		})

		Expect(engine.Run()).To(Succeed())
		Expect(times).To(Equal([]VTimeInSec{1, 1, 1.5}))
	})

	It("should not fire cancelled events", func() {
		fired := false
		h := engine.ScheduleAfter(1, func(VTimeInSec) { fired = true })

		engine.Cancel(h)

		Expect(engine.Run()).To(Succeed())
		Expect(fired).To(BeFalse())
		Expect(h.Cancelled()).To(BeTrue())
	})

	It("should ignore cancelling an event that already fired", func() {
		h := engine.ScheduleAfter(1, func(VTimeInSec) {})
		Expect(engine.Run()).To(Succeed())

		engine.Cancel(h)

		Expect(h.Fired()).To(BeTrue())
		Expect(h.Cancelled()).To(BeFalse())
	})

	It("should allow a callback to cancel a later event", func() {
		fired := false
		later := engine.ScheduleAfter(2, func(VTimeInSec) { fired = true })
		engine.ScheduleAfter(1, func(VTimeInSec) { later.Cancel() })

		Expect(engine.Run()).To(Succeed())
		Expect(fired).To(BeFalse())
	})

	It("should panic on negative delay", func() {
		Expect(func() {
			engine.ScheduleAfter(-0.1, func(VTimeInSec) {})
		}).To(Panic())
	})

	It("should panic when scheduling in the past", func() {
		engine.ScheduleAfter(2, func(VTimeInSec) {
			engine.Schedule(NewFuncEvent(1, func(VTimeInSec) {}))
		})

		Expect(func() { _ = engine.Run() }).To(Panic())
	})

	Context("when running until a stop time", func() {
		It("should discard events at or after the stop time", func() {
			var fired []VTimeInSec
			record := func(now VTimeInSec) { fired = append(fired, now) }

			engine.ScheduleAfter(1, record)
			engine.ScheduleAfter(3, record)
			atStop := engine.ScheduleAfter(5, record)
			afterStop := engine.ScheduleAfter(7, record)

			Expect(engine.RunUntil(5)).To(Succeed())

			Expect(fired).To(Equal([]VTimeInSec{1, 3}))
			Expect(engine.Now()).To(Equal(VTimeInSec(5)))
			Expect(engine.Pending()).To(Equal(0))
			Expect(atStop.Discarded()).To(BeTrue())
			Expect(afterStop.Discarded()).To(BeTrue())
		})

		It("should move the clock to the stop time when the queue drains", func() {
			engine.ScheduleAfter(1, func(VTimeInSec) {})

			Expect(engine.RunUntil(33)).To(Succeed())
			Expect(engine.Now()).To(Equal(VTimeInSec(33)))
		})

		It("should drop events rescheduled beyond the stop time", func() {
			count := 0

			var tick Callback
			tick = func(VTimeInSec) {
				count++
				engine.ScheduleAfter(1, tick)
			}
			engine.ScheduleAfter(0, tick)

			Expect(engine.RunUntil(10)).To(Succeed())
			Expect(count).To(Equal(10))
		})

		It("should refuse a stop time in the past", func() {
			engine.ScheduleAfter(4, func(VTimeInSec) {})
			Expect(engine.RunUntil(5)).To(Succeed())

			Expect(engine.RunUntil(3)).NotTo(Succeed())
		})
	})

	It("should stop and report handler errors", func() {
		handler := NewMockHandler(mockCtrl)
		failing := NewEventBase(1, handler)
		never := NewEventBase(2, handler)

		engine.Schedule(failing)
		engine.Schedule(never)

		handler.EXPECT().Handle(failing).Return(errors.New("boom"))

		err := engine.Run()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("boom"))
		Expect(engine.Pending()).To(Equal(1))
	})

	It("should invoke hooks around every handled event", func() {
		recorder := &hookRecorder{}
		counter := &EventCounter{}
		engine.AcceptHook(recorder)
		engine.AcceptHook(counter)

		engine.ScheduleAfter(1, func(VTimeInSec) {})
		engine.ScheduleAfter(2, func(VTimeInSec) {})

		Expect(engine.Run()).To(Succeed())

		Expect(recorder.positions).To(Equal([]*hooking.HookPos{
			HookPosBeforeEvent, HookPosAfterEvent,
			HookPosBeforeEvent, HookPosAfterEvent,
		}))
		Expect(counter.Count()).To(Equal(uint64(2)))
	})
})
