package tracing

import (
	"bufio"
	"fmt"
	"os"

	"github.com/tebeka/atexit"
)

// CSVTraceWriter stores frame records into a CSV file.
type CSVTraceWriter struct {
	path string
	file *os.File
	out  *bufio.Writer

	records    []FrameRecord
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the trace csv file. If the file already exists, it will be
// overwritten.
func (t *CSVTraceWriter) Init() error {
	file, err := os.Create(t.path)
	if err != nil {
		return err
	}

	t.file = file
	t.out = bufio.NewWriter(file)

	fmt.Fprintf(t.out,
		"Time, Kind, FrameID, Src, Dst, From, To, FlowID, Seq, Size, Reason\n")

	atexit.Register(func() {
		_ = t.Close()
	})

	return nil
}

// Write buffers a record.
func (t *CSVTraceWriter) Write(r FrameRecord) {
	t.records = append(t.records, r)
	if len(t.records) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered records to the file.
func (t *CSVTraceWriter) Flush() {
	if t.out == nil {
		return
	}

	for _, r := range t.records {
		fmt.Fprintf(t.out, "%.10f, %s, %s, %d, %d, %d, %d, %d, %d, %d, %s\n",
			r.Time,
			r.Kind,
			r.FrameID,
			r.Src,
			r.Dst,
			r.From,
			r.To,
			r.FlowID,
			r.Seq,
			r.Size,
			r.Reason,
		)
	}

	t.records = nil

	if err := t.out.Flush(); err != nil {
		panic(err)
	}
}

// Close flushes and closes the file. Closing twice does nothing.
func (t *CSVTraceWriter) Close() error {
	if t.file == nil {
		return nil
	}

	t.Flush()

	err := t.file.Close()
	t.file = nil
	t.out = nil

	return err
}
