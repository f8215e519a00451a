package timing

import (
	"log"
	"reflect"
	"sync/atomic"

	"github.com/sarchlab/adhocsim/sim/hooking"
)

// EventLogger is an hook that prints the event information
type EventLogger struct {
	logger *log.Logger
}

// NewEventLogger returns a new EventLogger which will write in to the logger
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.logger = logger

	return h
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	h.logger.Printf("%.10f, %s -> %s",
		evt.Time(), reflect.TypeOf(evt), reflect.TypeOf(evt.Handler()))
}

// EventCounter counts the events that the engine has handled.
type EventCounter struct {
	count uint64
}

// Func counts one event per AfterEvent position.
func (c *EventCounter) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosAfterEvent {
		return
	}

	atomic.AddUint64(&c.count, 1)
}

// Count returns the number of handled events. It is safe to call from other
// goroutines while the engine runs.
func (c *EventCounter) Count() uint64 {
	return atomic.LoadUint64(&c.count)
}
