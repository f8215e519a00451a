// Package metrics collects counters and statistics keyed by metric name and
// context.
package metrics

import (
	"fmt"
	"log"
	"math"
	"sync"
)

// Key identifies a metric. Two keys are the same metric only if both the name
// and the context match.
type Key struct {
	Name    string
	Context string
}

// String returns "context/name".
func (k Key) String() string {
	return k.Context + "/" + k.Name
}

// Kind tells what an accumulator collects.
type Kind int

// The kinds of accumulators.
const (
	KindCounter Kind = iota
	KindSize
	KindDelay
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindSize:
		return "size"
	case KindDelay:
		return "delay"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Snapshot is a read-only copy of the state of an accumulator. For counters,
// Count holds the counter value and the remaining fields are zero.
type Snapshot struct {
	Key   Key
	Kind  Kind
	Count uint64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// An Accumulator aggregates observations for one metric key.
type Accumulator interface {
	Key() Key
	Kind() Kind

	// Update records one observation.
	Update(v float64)

	// Snapshot returns the current aggregate.
	Snapshot() Snapshot

	// Merge folds the state of another accumulator of the same key and kind
	// into this one.
	Merge(other Accumulator) error
}

func mustMatch(a, b Accumulator) error {
	if a.Key() != b.Key() {
		return fmt.Errorf("cannot merge %s into %s", b.Key(), a.Key())
	}

	if a.Kind() != b.Kind() {
		return fmt.Errorf("cannot merge %s %s into %s %s",
			b.Kind(), b.Key(), a.Kind(), a.Key())
	}

	return nil
}

// Counter counts occurrences.
type Counter struct {
	lock  sync.Mutex
	key   Key
	value uint64
}

// NewCounter creates a counter that starts at zero.
func NewCounter(key Key) *Counter {
	return &Counter{key: key}
}

// Key returns the key of the counter.
func (c *Counter) Key() Key { return c.key }

// Kind returns KindCounter.
func (c *Counter) Kind() Kind { return KindCounter }

// Increment adds one to the counter.
func (c *Counter) Increment() {
	c.Add(1)
}

// Add adds n to the counter.
func (c *Counter) Add(n uint64) {
	c.lock.Lock()
	c.value += n
	c.lock.Unlock()
}

// Update adds v to the counter. v must be a non-negative whole number.
func (c *Counter) Update(v float64) {
	if v < 0 || v != math.Trunc(v) {
		log.Panicf("counter %s cannot be updated with %f", c.key, v)
	}

	c.Add(uint64(v))
}

// Value returns the current count.
func (c *Counter) Value() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.value
}

// Snapshot returns the current count.
func (c *Counter) Snapshot() Snapshot {
	return Snapshot{
		Key:   c.key,
		Kind:  KindCounter,
		Count: c.Value(),
	}
}

// Merge adds the count of other into c.
func (c *Counter) Merge(other Accumulator) error {
	if err := mustMatch(c, other); err != nil {
		return err
	}

	c.Add(other.Snapshot().Count)

	return nil
}

// minMaxAvgTotal keeps the running minimum, maximum, sum and count of a
// series of observations.
type minMaxAvgTotal struct {
	lock  sync.Mutex
	key   Key
	count uint64
	sum   float64
	min   float64
	max   float64
}

func (s *minMaxAvgTotal) update(v float64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.count == 0 || v < s.min {
		s.min = v
	}

	if s.count == 0 || v > s.max {
		s.max = v
	}

	s.count++
	s.sum += v
}

func (s *minMaxAvgTotal) snapshot(kind Kind) Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()

	snap := Snapshot{
		Key:   s.key,
		Kind:  kind,
		Count: s.count,
		Sum:   s.sum,
		Min:   s.min,
		Max:   s.max,
	}

	if s.count > 0 {
		snap.Mean = s.sum / float64(s.count)
	}

	return snap
}

func (s *minMaxAvgTotal) merge(o Snapshot) {
	if o.Count == 0 {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.count == 0 || o.Min < s.min {
		s.min = o.Min
	}

	if s.count == 0 || o.Max > s.max {
		s.max = o.Max
	}

	s.count += o.Count
	s.sum += o.Sum
}

// SizeStats tracks the minimum, maximum, total and average of packet sizes in
// bytes.
type SizeStats struct {
	minMaxAvgTotal
}

// NewSizeStats creates an empty SizeStats.
func NewSizeStats(key Key) *SizeStats {
	s := &SizeStats{}
	s.key = key

	return s
}

// Key returns the key of the statistics.
func (s *SizeStats) Key() Key { return s.key }

// Kind returns KindSize.
func (s *SizeStats) Kind() Kind { return KindSize }

// Update records a size in bytes.
func (s *SizeStats) Update(v float64) {
	if v < 0 {
		log.Panicf("size %s cannot be negative, got %f", s.key, v)
	}

	s.update(v)
}

// UpdateSize records a packet size.
func (s *SizeStats) UpdateSize(bytes int) {
	s.Update(float64(bytes))
}

// Snapshot returns the aggregate sizes.
func (s *SizeStats) Snapshot() Snapshot {
	return s.snapshot(KindSize)
}

// Merge folds other into s.
func (s *SizeStats) Merge(other Accumulator) error {
	if err := mustMatch(s, other); err != nil {
		return err
	}

	s.merge(other.Snapshot())

	return nil
}

// DelayStats tracks the minimum, maximum, total and average of elapsed
// simulated time in seconds.
type DelayStats struct {
	minMaxAvgTotal
}

// NewDelayStats creates an empty DelayStats.
func NewDelayStats(key Key) *DelayStats {
	s := &DelayStats{}
	s.key = key

	return s
}

// Key returns the key of the statistics.
func (s *DelayStats) Key() Key { return s.key }

// Kind returns KindDelay.
func (s *DelayStats) Kind() Kind { return KindDelay }

// Update records a delay in seconds.
func (s *DelayStats) Update(v float64) {
	if v < 0 {
		log.Panicf("delay %s cannot be negative, got %.10f", s.key, v)
	}

	s.update(v)
}

// Observe records the delay between a send timestamp and a receive time.
func (s *DelayStats) Observe(sentAt, receivedAt float64) {
	s.Update(receivedAt - sentAt)
}

// Snapshot returns the aggregate delays.
func (s *DelayStats) Snapshot() Snapshot {
	return s.snapshot(KindDelay)
}

// Merge folds other into s.
func (s *DelayStats) Merge(other Accumulator) error {
	if err := mustMatch(s, other); err != nil {
		return err
	}

	s.merge(other.Snapshot())

	return nil
}
