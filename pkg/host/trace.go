package host

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/golang/glog"
)

// ClockFrequencyKey is the key of the cycle counter frequency in a trace
// description. All other keys are event name IDs.
const ClockFrequencyKey = "mcu_clock_frequency"

// the device cycle counter is 32 bits wide
const cycleCounterPeriod = 1 << 32

var (
	// ErrEmptyTrace indicates the trace CSV has no rows.
	ErrEmptyTrace = errors.New("empty trace")
	// ErrClockFrequency indicates a trace description without a valid
	// clock frequency.
	ErrClockFrequency = errors.New("clock frequency must be positive")
)

// TraceDescription maps profiling cycles and name IDs to trace events.
type TraceDescription struct {
	// ClockFrequency is the cycle counter frequency in Hz.
	ClockFrequency float64
	Names          map[uint16]string
}

// ReadTraceDescription parses a JSON object holding ClockFrequencyKey
// and the names keyed by decimal name ID, e.g.
//
//	{"mcu_clock_frequency": 168000000, "1": "estimate", "2": "record"}
func ReadTraceDescription(r io.Reader) (*TraceDescription, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return nil, err
	}
	desc := &TraceDescription{Names: make(map[uint16]string)}
	for key, val := range fields {
		if key == ClockFrequencyKey {
			if err := json.Unmarshal(val, &desc.ClockFrequency); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			continue
		}
		id, err := strconv.ParseUint(key, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid name id %q", key)
		}
		var name string
		if err = json.Unmarshal(val, &name); err != nil {
			return nil, fmt.Errorf("name %s: %w", key, err)
		}
		desc.Names[uint16(id)] = name
	}
	if desc.ClockFrequency <= 0 {
		return nil, ErrClockFrequency
	}
	return desc, nil
}

// TraceEvent is a complete event in the Trace Event Format.
type TraceEvent struct {
	Name      string `json:"name"`
	Phase     string `json:"ph"`
	Timestamp int64  `json:"ts"`
	Duration  int64  `json:"dur"`
	ThreadID  uint32 `json:"tid"`
	ProcessID int    `json:"pid"`
}

// Trace is the JSON document loaded by chrome://tracing or Perfetto.
type Trace struct {
	TraceEvents []TraceEvent `json:"traceEvents"`
}

// traceRow is a profiling event as recorded: start stamp, duration,
// thread ID and name ID.
type traceRow struct {
	start, duration, threadID uint64
	nameID                    uint16
}

func parseTraceRow(fields []string) (row traceRow, err error) {
	if row.start, err = strconv.ParseUint(fields[0], 10, 32); err != nil {
		return
	}
	if row.duration, err = strconv.ParseUint(fields[1], 10, 32); err != nil {
		return
	}
	if row.threadID, err = strconv.ParseUint(fields[2], 10, 32); err != nil {
		return
	}
	id, err := strconv.ParseUint(fields[3], 10, 16)
	row.nameID = uint16(id)
	return
}

// ConvertTrace translates profiling events from CSV into trace events
// with microsecond timestamps. Each row holds start stamp, duration,
// thread ID and name ID in cycles. A non-numeric first row is taken as a
// header, an all zero row ends the trace, and rows with an unknown name
// ID are skipped. A wrap of the cycle counter is detected by an event
// ending before the previous one. With absolute set, a zero length event
// at 0 anchors the timeline.
func ConvertTrace(r io.Reader, desc *TraceDescription, absolute bool) (*Trace, error) {
	if desc.ClockFrequency <= 0 {
		return nil, ErrClockFrequency
	}
	in := csv.NewReader(r)
	in.FieldsPerRecord = 4
	usPerCycle := 1e6 / desc.ClockFrequency

	trace := &Trace{TraceEvents: []TraceEvent{}}
	if absolute {
		trace.TraceEvents = append(trace.TraceEvents, TraceEvent{Name: "start_profiling", Phase: "X"})
	}
	var wraps, prevEnd uint64
	for line := 1; ; line++ {
		fields, err := in.Read()
		if err == io.EOF {
			if line == 1 {
				return nil, ErrEmptyTrace
			}
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := parseTraceRow(fields)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if row == (traceRow{}) {
			break
		}
		end := row.start + row.duration
		if prevEnd > end {
			wraps++
		}
		prevEnd = end
		name, ok := desc.Names[row.nameID]
		if !ok {
			glog.Warningf("line %d: no name for id %d", line, row.nameID)
			continue
		}
		trace.TraceEvents = append(trace.TraceEvents, TraceEvent{
			Name:      name,
			Phase:     "X",
			Timestamp: int64(float64(row.start+wraps*cycleCounterPeriod) * usPerCycle),
			Duration:  int64(float64(row.duration) * usPerCycle),
			ThreadID:  uint32(row.threadID),
		})
	}
	return trace, nil
}

// WriteTrace writes trace as indented JSON.
func WriteTrace(w io.Writer, trace *Trace) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(trace)
}
