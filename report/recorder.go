package report

import (
	"github.com/sarchlab/adhocsim/datarecording"
	"github.com/sarchlab/adhocsim/metrics"
)

// Table names used by RecorderWriter.
const (
	ExperimentsTable = "Experiments"
	MetadataTable    = "Metadata"
	SingletonsTable  = "Singletons"
	EnergyTable      = "Energy"
)

// ExperimentRow describes a run.
type ExperimentRow struct {
	Run         string
	Experiment  string
	Strategy    string
	Input       string
	Description string
}

// MetadataRow is an annotation of a run.
type MetadataRow struct {
	Run   string
	Key   string
	Value string
}

// SingletonRow is one value of one metric. Name holds the metric context and
// Variable the metric name, with a suffix for statistics.
type SingletonRow struct {
	Run      string
	Name     string
	Variable string
	Value    float64
}

// EnergyRow is the energy summary of one node.
type EnergyRow struct {
	Run      string
	Node     int
	Initial  float64
	Consumed float64
}

// RecorderWriter writes reports as tables through a DataRecorder.
type RecorderWriter struct {
	open func() (datarecording.DataRecorder, error)
}

// NewRecorderWriter creates a writer that obtains its recorder from open when
// a report is written.
func NewRecorderWriter(
	open func() (datarecording.DataRecorder, error),
) *RecorderWriter {
	return &RecorderWriter{open: open}
}

// Write stores r and the execution information of the program.
func (w *RecorderWriter) Write(r *Report) error {
	rec, err := w.open()
	if err != nil {
		return err
	}

	WriteTables(rec, r)

	if !r.Info.Started.IsZero() {
		datarecording.RecordExecution(rec, r.Info.Started, r.Info.Finished)
	}

	return rec.Close()
}

// WriteTables creates the report tables in rec and fills them.
func WriteTables(rec datarecording.DataRecorder, r *Report) {
	run := r.Info.RunID

	rec.CreateTable(ExperimentsTable, ExperimentRow{})
	rec.CreateTable(MetadataTable, MetadataRow{})
	rec.CreateTable(SingletonsTable, SingletonRow{})
	rec.CreateTable(EnergyTable, EnergyRow{})

	rec.InsertData(ExperimentsTable, ExperimentRow{
		Run:         run,
		Experiment:  r.Info.Experiment,
		Strategy:    r.Info.Strategy,
		Input:       r.Info.Input,
		Description: r.Info.Description,
	})

	for _, a := range r.Info.Annotations {
		rec.InsertData(MetadataTable, MetadataRow{
			Run:   run,
			Key:   a.Key,
			Value: a.Value,
		})
	}

	for _, e := range r.Entries {
		for _, row := range singletonRows(run, e) {
			rec.InsertData(SingletonsTable, row)
		}
	}

	for _, e := range r.Energy {
		rec.InsertData(EnergyTable, EnergyRow{
			Run:      run,
			Node:     int(e.Node),
			Initial:  e.Initial,
			Consumed: e.Consumed(),
		})
	}

	rec.Flush()
}

func singletonRows(run string, e metrics.Snapshot) []SingletonRow {
	row := func(suffix string, v float64) SingletonRow {
		return SingletonRow{
			Run:      run,
			Name:     e.Key.Context,
			Variable: e.Key.Name + suffix,
			Value:    v,
		}
	}

	if e.Kind == metrics.KindCounter {
		return []SingletonRow{row("", float64(e.Count))}
	}

	rows := []SingletonRow{
		row("-count", float64(e.Count)),
		row("-total", e.Sum),
	}

	if e.Count > 0 {
		rows = append(rows,
			row("-average", e.Mean),
			row("-max", e.Max),
			row("-min", e.Min),
		)
	}

	return rows
}
