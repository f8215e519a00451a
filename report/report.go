// Package report turns the final state of a simulation into result files.
package report

import (
	"time"

	"github.com/sarchlab/adhocsim/energy"
	"github.com/sarchlab/adhocsim/metrics"
)

// An Annotation is a free-form key/value pair attached to a run.
type Annotation struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// RunInfo describes a run.
type RunInfo struct {
	Experiment  string       `json:"experiment"`
	Strategy    string       `json:"strategy"`
	Input       string       `json:"input"`
	RunID       string       `json:"run"`
	Description string       `json:"description"`
	Annotations []Annotation `json:"annotations"`
	Started     time.Time    `json:"started"`
	Finished    time.Time    `json:"finished"`
}

// A Report is the outcome of a run. It does not change once built.
type Report struct {
	Info    RunInfo
	Entries []metrics.Snapshot
	Energy  []energy.Record
}

// Build snapshots the registry and the ledger into a report. Either may be
// nil.
func Build(
	info RunInfo,
	registry *metrics.Registry,
	ledger *energy.Ledger,
) *Report {
	r := &Report{Info: info}

	if registry != nil {
		r.Entries = registry.SnapshotAll()
	}

	if ledger != nil {
		r.Energy = ledger.Records()
	}

	return r
}

// A Writer serializes reports.
type Writer interface {
	Write(r *Report) error
}
