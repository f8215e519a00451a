package report

import (
	"fmt"
	"strings"

	"github.com/sarchlab/adhocsim/datarecording"
)

// Format selects a Writer.
type Format int

// The supported output formats.
const (
	FormatOmnet Format = iota
	FormatDB
	FormatClickHouse
	FormatJSON
)

var formatNames = []string{"omnet", "db", "clickhouse", "json"}

func (f Format) String() string {
	if int(f) < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("format(%d)", int(f))
	}

	return formatNames[f]
}

// FormatNames lists the accepted names of ParseFormat.
func FormatNames() []string {
	names := make([]string, len(formatNames))
	copy(names, formatNames)

	return names
}

// ParseFormat converts a format name into a Format. It fails on unknown names
// and on formats that this build cannot write.
func ParseFormat(name string) (Format, error) {
	for i, n := range formatNames {
		if n != name {
			continue
		}

		f := Format(i)
		if f == FormatDB && !sqliteAvailable {
			return 0, fmt.Errorf("format %q needs a build with cgo enabled", name)
		}

		return f, nil
	}

	return 0, fmt.Errorf("unknown output format %q, expecting one of %s",
		name, strings.Join(formatNames, ", "))
}

// Options tells writers where to put their output.
type Options struct {
	// Prefix is the path of output files without extension.
	Prefix string

	// ClickHouse configures the clickhouse format.
	ClickHouse datarecording.ClickHouseOptions
}

// NewWriter creates the writer of a format.
func NewWriter(f Format, opts Options) (Writer, error) {
	if opts.Prefix == "" {
		opts.Prefix = "data"
	}

	switch f {
	case FormatOmnet:
		return &OmnetWriter{Path: opts.Prefix + ".sca"}, nil
	case FormatDB:
		return NewRecorderWriter(func() (datarecording.DataRecorder, error) {
			return datarecording.Open(opts.Prefix)
		}), nil
	case FormatClickHouse:
		return NewRecorderWriter(func() (datarecording.DataRecorder, error) {
			r, err := datarecording.NewClickHouseRecorder(opts.ClickHouse)
			if err != nil {
				return nil, err
			}

			return r, nil
		}), nil
	case FormatJSON:
		return &JSONWriter{Path: opts.Prefix + ".json"}, nil
	default:
		return nil, fmt.Errorf("unknown output format %s", f)
	}
}
