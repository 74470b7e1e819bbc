package host

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes buffers column by column: a header row naming each
// buffer by index and type, then one row per element.
func WriteCSV(w io.Writer, buffers []*BufferData) error {
	out := csv.NewWriter(w)
	rows := 0
	header := make([]string, len(buffers))
	for n, buf := range buffers {
		header[n] = fmt.Sprintf("buffer%d:%v", buf.Index, buf.Type)
		if len(buf.Values) > rows {
			rows = len(buf.Values)
		}
	}
	if err := out.Write(header); err != nil {
		return err
	}
	record := make([]string, len(buffers))
	for row := 0; row < rows; row++ {
		for n, buf := range buffers {
			record[n] = ""
			if row < len(buf.Values) {
				record[n] = fmt.Sprint(buf.Values[row])
			}
		}
		if err := out.Write(record); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
