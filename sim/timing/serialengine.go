package timing

import (
	"fmt"
	"log"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/adhocsim/sim/hooking"
)

// A SerialEngine is an Engine that always run events one after another.
type SerialEngine struct {
	hooking.HookableBase

	timeLock sync.RWMutex
	time     VTimeInSec
	queue    EventQueue
	nextSeq  uint64

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine
func NewSerialEngine() *SerialEngine {
	e := new(SerialEngine)
	e.queue = NewEventQueue()

	return e
}

// Name returns the name of the engine.
func (e *SerialEngine) Name() string {
	return "SerialEngine"
}

// Schedule register an event to be happen in the future
func (e *SerialEngine) Schedule(evt Event) *EventHandle {
	now := e.readNow()
	if evt.Time() < now {
		log.Panic("scheduling an event earlier than current time")
	}

	h := &EventHandle{
		seq: atomic.AddUint64(&e.nextSeq, 1),
		evt: evt,
	}
	e.queue.Push(h)

	return h
}

// ScheduleAfter schedules fn to be called delay seconds from now. A negative
// delay is a programming error and panics.
func (e *SerialEngine) ScheduleAfter(delay VTimeInSec, fn Callback) *EventHandle {
	if delay < 0 {
		log.Panicf("scheduling an event with negative delay %.10f", delay)
	}

	return e.Schedule(NewFuncEvent(e.readNow()+delay, fn))
}

// Cancel prevents the event behind the handle from firing. Cancelling a fired
// event does nothing.
func (e *SerialEngine) Cancel(h *EventHandle) {
	h.Cancel()
}

// Pending returns the number of events in the queue, including cancelled
// events that have not been removed yet.
func (e *SerialEngine) Pending() int {
	return e.queue.Len()
}

func (e *SerialEngine) readNow() VTimeInSec {
	e.timeLock.RLock()
	t := e.time
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTimeInSec) {
	e.timeLock.Lock()
	e.time = t
	e.timeLock.Unlock()
}

// Run processes all the events scheduled in the SerialEngine
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for e.queue.Len() > 0 {
		if err := e.step(); err != nil {
			return err
		}
	}

	return nil
}

// RunUntil processes the events that fire strictly before stop. When the next
// event is at or beyond stop, or no event is left, the remaining events are
// discarded without being handled and the clock is set to stop.
func (e *SerialEngine) RunUntil(stop VTimeInSec) error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	if stop < e.readNow() {
		return fmt.Errorf("stop time %.10f is earlier than current time %.10f",
			stop, e.readNow())
	}

	for e.queue.Len() > 0 && e.queue.Peek().Time() < stop {
		if err := e.step(); err != nil {
			return err
		}
	}

	for _, h := range e.queue.Clear() {
		if h.state == handlePending {
			h.state = handleDiscarded
		}
	}

	e.writeNow(stop)

	return nil
}

func (e *SerialEngine) step() error {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	h := e.queue.Pop()
	if h.state != handlePending {
		return nil
	}

	evt := h.evt
	now := e.readNow()

	if evt.Time() < now {
		log.Panicf(
			"cannot run event in the past, evt %s @ %.10f, now %.10f",
			reflect.TypeOf(evt), evt.Time(), now,
		)
	}

	e.writeNow(evt.Time())
	h.state = handleFired

	hookCtx := hooking.HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	err := evt.Handler().Handle(evt)

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	if err != nil {
		return fmt.Errorf("handling %s @ %.10f: %w",
			reflect.TypeOf(evt), evt.Time(), err)
	}

	return nil
}

// Pause prevents the SerialEngine to trigger more events.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to trigger more events.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// Now returns the current time at which the engine is at.
// Specifically, the run time of the current event.
func (e *SerialEngine) Now() VTimeInSec {
	return e.readNow()
}
