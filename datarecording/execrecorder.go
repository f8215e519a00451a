package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfoTable is the table that RecordExecution writes.
const ExecInfoTable = "exec_info"

// ExecInfo is a property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

const execTimeLayout = "2006-01-02 15:04:05.000000000"

// ExecutionInfo describes the current program: its command line, working
// directory, and the given wall-clock start and end times.
func ExecutionInfo(start, end time.Time) []ExecInfo {
	entries := []ExecInfo{
		{"Start Time", start.Format(execTimeLayout)},
		{"Command", strings.Join(os.Args, " ")},
	}

	if cwd, err := os.Getwd(); err == nil {
		entries = append(entries, ExecInfo{"Working Directory", cwd})
	}

	entries = append(entries, ExecInfo{"End Time", end.Format(execTimeLayout)})

	return entries
}

// RecordExecution writes ExecutionInfo into the exec_info table of r,
// creating the table if needed.
func RecordExecution(r DataRecorder, start, end time.Time) {
	found := false
	for _, t := range r.ListTables() {
		if t == ExecInfoTable {
			found = true
			break
		}
	}

	if !found {
		r.CreateTable(ExecInfoTable, ExecInfo{})
	}

	for _, entry := range ExecutionInfo(start, end) {
		r.InsertData(ExecInfoTable, entry)
	}

	r.Flush()
}
