package tracing

import (
	"github.com/sarchlab/adhocsim/datarecording"
)

// FrameTraceTable is the table that DBTraceWriter fills.
const FrameTraceTable = "frame_trace"

// DBTraceWriter stores frame records through a DataRecorder.
type DBTraceWriter struct {
	recorder datarecording.DataRecorder
}

// NewDBTraceWriter creates the frame trace table in recorder.
func NewDBTraceWriter(recorder datarecording.DataRecorder) *DBTraceWriter {
	recorder.CreateTable(FrameTraceTable, FrameRecord{})

	return &DBTraceWriter{recorder: recorder}
}

// Write buffers a record in the recorder.
func (w *DBTraceWriter) Write(r FrameRecord) {
	w.recorder.InsertData(FrameTraceTable, r)
}

// Flush writes the buffered records.
func (w *DBTraceWriter) Flush() {
	w.recorder.Flush()
}

// Close flushes and closes the recorder.
func (w *DBTraceWriter) Close() error {
	return w.recorder.Close()
}
