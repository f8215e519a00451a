package metrics

import (
	"log"
	"sync"
)

// A Registry owns the accumulators of a simulation. Accumulators are created
// on first use and are reported in the order they were created.
type Registry struct {
	lock         sync.Mutex
	order        []Key
	accumulators map[Key]Accumulator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		accumulators: make(map[Key]Accumulator),
	}
}

// GetOrCreate returns the accumulator registered under key, creating one of
// the given kind if the key is new. Asking for an existing key with a
// different kind panics.
func (r *Registry) GetOrCreate(key Key, kind Kind) Accumulator {
	r.lock.Lock()
	defer r.lock.Unlock()

	if acc, found := r.accumulators[key]; found {
		if acc.Kind() != kind {
			log.Panicf("metric %s is a %s, not a %s", key, acc.Kind(), kind)
		}

		return acc
	}

	acc := newAccumulator(key, kind)
	r.accumulators[key] = acc
	r.order = append(r.order, key)

	return acc
}

func newAccumulator(key Key, kind Kind) Accumulator {
	switch kind {
	case KindCounter:
		return NewCounter(key)
	case KindSize:
		return NewSizeStats(key)
	case KindDelay:
		return NewDelayStats(key)
	default:
		log.Panicf("unknown metric kind %s", kind)
	}

	return nil
}

// Counter returns the counter registered under key.
func (r *Registry) Counter(key Key) *Counter {
	return r.GetOrCreate(key, KindCounter).(*Counter)
}

// Size returns the size statistics registered under key.
func (r *Registry) Size(key Key) *SizeStats {
	return r.GetOrCreate(key, KindSize).(*SizeStats)
}

// Delay returns the delay statistics registered under key.
func (r *Registry) Delay(key Key) *DelayStats {
	return r.GetOrCreate(key, KindDelay).(*DelayStats)
}

// Lookup returns the accumulator of key without creating it.
func (r *Registry) Lookup(key Key) (Accumulator, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	acc, found := r.accumulators[key]

	return acc, found
}

// Len returns the number of registered accumulators.
func (r *Registry) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return len(r.order)
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []Key {
	r.lock.Lock()
	defer r.lock.Unlock()

	keys := make([]Key, len(r.order))
	copy(keys, r.order)

	return keys
}

func (r *Registry) ordered() []Accumulator {
	r.lock.Lock()
	defer r.lock.Unlock()

	accs := make([]Accumulator, 0, len(r.order))
	for _, k := range r.order {
		accs = append(accs, r.accumulators[k])
	}

	return accs
}

// SnapshotAll returns the snapshots of all accumulators in registration order.
func (r *Registry) SnapshotAll() []Snapshot {
	accs := r.ordered()

	snapshots := make([]Snapshot, 0, len(accs))
	for _, acc := range accs {
		snapshots = append(snapshots, acc.Snapshot())
	}

	return snapshots
}

// Merge folds the accumulators of the given shards into r. Keys that r does not
// have yet are appended in the order the shards list them.
func (r *Registry) Merge(shards ...*Registry) error {
	for _, shard := range shards {
		for _, acc := range shard.ordered() {
			dst := r.GetOrCreate(acc.Key(), acc.Kind())
			if err := dst.Merge(acc); err != nil {
				return err
			}
		}
	}

	return nil
}
