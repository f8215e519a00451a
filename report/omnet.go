package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sarchlab/adhocsim/metrics"
)

// OmnetWriter writes reports as OMNeT++ scalar files.
type OmnetWriter struct {
	Path string
}

// Write creates the scalar file and writes r into it.
func (w *OmnetWriter) Write(r *Report) error {
	f, err := os.Create(w.Path)
	if err != nil {
		return err
	}

	if err := WriteOmnet(f, r); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// WriteOmnet writes the run attributes of r followed by one scalar or
// statistic block per entry.
func WriteOmnet(out io.Writer, r *Report) error {
	w := bufio.NewWriter(out)

	fmt.Fprintf(w, "run %s\n", token(r.Info.RunID))
	fmt.Fprintf(w, "attr experiment %q\n", r.Info.Experiment)
	fmt.Fprintf(w, "attr strategy %q\n", r.Info.Strategy)
	fmt.Fprintf(w, "attr measurement %q\n", r.Info.Input)
	fmt.Fprintf(w, "attr description %q\n", r.Info.Description)

	for _, a := range r.Info.Annotations {
		fmt.Fprintf(w, "attr %q %q\n", a.Key, a.Value)
	}

	fmt.Fprintln(w)

	for _, e := range r.Entries {
		writeOmnetEntry(w, e)
	}

	return w.Flush()
}

func writeOmnetEntry(w io.Writer, e metrics.Snapshot) {
	ctx := token(e.Key.Context)
	name := token(e.Key.Name)

	switch e.Kind {
	case metrics.KindCounter:
		fmt.Fprintf(w, "scalar %s %s %d\n", ctx, name, e.Count)
	case metrics.KindSize:
		fmt.Fprintf(w, "statistic %s %s\n", ctx, name)
		fmt.Fprintf(w, "field count %d\n", e.Count)
		fmt.Fprintf(w, "field sum %s\n", num(e.Sum))

		if e.Count > 0 {
			fmt.Fprintf(w, "field mean %s\n", num(e.Mean))
			fmt.Fprintf(w, "field min %s\n", num(e.Min))
			fmt.Fprintf(w, "field max %s\n", num(e.Max))
		}
	case metrics.KindDelay:
		fmt.Fprintf(w, "scalar %s %s-count %d\n", ctx, name, e.Count)
		fmt.Fprintf(w, "scalar %s %s-total %s\n", ctx, name, num(e.Sum))

		if e.Count > 0 {
			fmt.Fprintf(w, "scalar %s %s-average %s\n", ctx, name, num(e.Mean))
			fmt.Fprintf(w, "scalar %s %s-max %s\n", ctx, name, num(e.Max))
			fmt.Fprintf(w, "scalar %s %s-min %s\n", ctx, name, num(e.Min))
		}
	}
}

// token replaces empty fields with "-" so that every line keeps its columns.
func token(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
