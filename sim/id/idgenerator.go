// Package id generates identifiers for frames, flows and runs.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs.
type IDGenerator interface {
	Generate() string
}

// NewIDGenerator returns a generator that produces "1", "2", "3", ... Each
// simulation owns its own generator so that runs are reproducible.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewPrefixedIDGenerator returns a sequential generator whose IDs start with
// prefix, for example "frame-1".
func NewPrefixedIDGenerator(prefix string) IDGenerator {
	return &sequentialIDGenerator{prefix: prefix}
}

type sequentialIDGenerator struct {
	prefix string
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)

	return g.prefix + strconv.FormatUint(idNumber, 10)
}

// RunID returns a globally unique run identifier such as
// "run-d2p5m9qv4l1g00a8k1s0".
func RunID() string {
	return "run-" + xid.New().String()
}
