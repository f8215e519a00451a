package report

import (
	"encoding/json"
	"io"
	"os"

	"github.com/sarchlab/adhocsim/metrics"
)

// JSONWriter writes reports as a single JSON document.
type JSONWriter struct {
	Path string
}

type jsonEntry struct {
	Name    string  `json:"name"`
	Context string  `json:"context"`
	Kind    string  `json:"kind"`
	Count   uint64  `json:"count"`
	Sum     float64 `json:"sum,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Mean    float64 `json:"mean,omitempty"`
}

type jsonEnergy struct {
	Node     int     `json:"node"`
	Initial  float64 `json:"initial"`
	Residual float64 `json:"residual"`
	Consumed float64 `json:"consumed"`
}

type jsonReport struct {
	Run     RunInfo      `json:"run"`
	Metrics []jsonEntry  `json:"metrics"`
	Energy  []jsonEnergy `json:"energy"`
}

// Write creates the JSON file and writes r into it.
func (w *JSONWriter) Write(r *Report) error {
	f, err := os.Create(w.Path)
	if err != nil {
		return err
	}

	if err := WriteJSON(f, r); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// WriteJSON encodes r. Metrics keep the order of the report.
func WriteJSON(w io.Writer, r *Report) error {
	doc := jsonReport{
		Run:     r.Info,
		Metrics: make([]jsonEntry, 0, len(r.Entries)),
		Energy:  make([]jsonEnergy, 0, len(r.Energy)),
	}

	if doc.Run.Annotations == nil {
		doc.Run.Annotations = []Annotation{}
	}

	for _, e := range r.Entries {
		doc.Metrics = append(doc.Metrics, toJSONEntry(e))
	}

	for _, e := range r.Energy {
		doc.Energy = append(doc.Energy, jsonEnergy{
			Node:     int(e.Node),
			Initial:  e.Initial,
			Residual: e.Residual,
			Consumed: e.Consumed(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}

func toJSONEntry(e metrics.Snapshot) jsonEntry {
	return jsonEntry{
		Name:    e.Key.Name,
		Context: e.Key.Context,
		Kind:    e.Kind.String(),
		Count:   e.Count,
		Sum:     e.Sum,
		Min:     e.Min,
		Max:     e.Max,
		Mean:    e.Mean,
	}
}
