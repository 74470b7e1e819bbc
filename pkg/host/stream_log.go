package host

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"
)

// StreamCSV writes stream records as CSV, one row per entry, without a
// header row.
type StreamCSV struct {
	// Points counts the entries written.
	Points int

	out *csv.Writer
	row []string
}

// NewStreamCSV creates a StreamCSV writing to w.
func NewStreamCSV(w io.Writer) *StreamCSV {
	return &StreamCSV{out: csv.NewWriter(w)}
}

// Write writes all entries of rec and flushes.
func (s *StreamCSV) Write(rec *StreamRecord) error {
	for _, entry := range rec.Entries {
		s.row = s.row[:0]
		for _, val := range entry {
			s.row = append(s.row, fmt.Sprint(val))
		}
		if err := s.out.Write(s.row); err != nil {
			return err
		}
		s.Points++
	}
	s.out.Flush()
	return s.out.Error()
}

// SaveStream subscribes to the stream and writes its entries to w as CSV
// until duration elapses. With duration 0 it runs until the stream times
// out. The stream is unsubscribed before it returns. It returns the
// number of entries written.
func (c *Client) SaveStream(w io.Writer, duration time.Duration) (int, error) {
	info, err := c.StartStreaming()
	if err != nil {
		return 0, err
	}
	out := NewStreamCSV(w)
	start := time.Now()
	for duration <= 0 || time.Since(start) < duration {
		rec, err := c.ReadStreamRecord()
		if errors.Is(err, ErrTimeout) {
			glog.Warningf("stream %d timed out after %d points", info.ID, out.Points)
			break
		}
		if err == nil {
			err = out.Write(rec)
		}
		if err != nil {
			if stopErr := c.StopStreaming(); stopErr != nil {
				glog.Errorf("stop streaming: %v", stopErr)
			}
			return out.Points, err
		}
	}
	return out.Points, c.StopStreaming()
}
