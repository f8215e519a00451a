// Package timing provides the simulated clock and the event engine that
// advances it.
package timing

import (
	"github.com/sarchlab/adhocsim/sim/hooking"
)

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	Now() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	TimeTeller

	// Schedule registers an event at its absolute time.
	Schedule(e Event) *EventHandle

	// ScheduleAfter registers a callback that fires delay seconds after the
	// current time. The delay must not be negative.
	ScheduleAfter(delay VTimeInSec, fn Callback) *EventHandle

	// Cancel prevents a scheduled event from firing.
	Cancel(h *EventHandle)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run will process all the events until the simulation finishes
	Run() error

	// RunUntil processes events that fire before stop and discards the rest.
	RunUntil(stop VTimeInSec) error

	// Pause will pause the simulation until continue is called.
	Pause()

	// Continue will continue the paused simulation
	Continue()

	// Pending returns the number of events waiting in the queue.
	Pending() int
}
