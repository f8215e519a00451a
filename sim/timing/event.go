package timing

import (
	"github.com/sarchlab/adhocsim/sim/hooking"
)

// VTimeInSec is a point in simulated time, in seconds.
type VTimeInSec = float64

// An Event is a scheduled piece of work.
type Event interface {
	Time() VTimeInSec
	Handler() Handler

	// IsSecondary reports whether the event waits for every primary event of
	// the same time to be handled first.
	IsSecondary() bool
}

// Hook positions invoked by engines around every handled event. The hook item
// is the event.
var (
	HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &hooking.HookPos{Name: "AfterEvent"}
)

// EventBase holds the fields shared by events.
type EventBase struct {
	time      VTimeInSec
	handler   Handler
	secondary bool
}

// NewEventBase creates a primary event for handler at time t.
func NewEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{time: t, handler: handler}
}

// NewSecondaryEventBase creates a secondary event for handler at time t.
func NewSecondaryEventBase(t VTimeInSec, handler Handler) *EventBase {
	return &EventBase{time: t, handler: handler, secondary: true}
}

// Time returns when the event fires.
func (e EventBase) Time() VTimeInSec {
	return e.time
}

// Handler returns the handler the event is delivered to.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary reports whether the event is secondary.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}

// A Handler processes the events scheduled for it.
type Handler interface {
	Handle(e Event) error
}

// Callback is the body of a FuncEvent. It receives the firing time.
type Callback func(now VTimeInSec)

// FuncEvent is an event that handles itself by calling a function.
type FuncEvent struct {
	EventBase
	fn Callback
}

// NewFuncEvent creates an event that calls fn at time t.
func NewFuncEvent(t VTimeInSec, fn Callback) *FuncEvent {
	e := &FuncEvent{fn: fn}
	e.time = t
	e.handler = e

	return e
}

// Handle invokes the callback.
func (e *FuncEvent) Handle(evt Event) error {
	e.fn(evt.Time())

	return nil
}
