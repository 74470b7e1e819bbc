package host

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dbglink/pkg/dbg/wire"
)

func TestWriteCSV(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, WriteCSV(&out, []*BufferData{
		{Index: 0, Type: wire.F32, Values: []interface{}{float32(1.5), float32(2)}},
		{Index: 2, Type: wire.I16, Values: []interface{}{int16(-3)}},
	}))
	require.Equal(t, "buffer0:f32,buffer2:i16\n1.5,-3\n2,\n", out.String())
}

func TestStreamCSV(t *testing.T) {
	testCases := []struct {
		name    string
		records []*StreamRecord
		csv     string
		points  int
	}{
		{"no records", nil, "", 0},
		{
			name: "entries",
			records: []*StreamRecord{
				{StreamID: 1, Entries: [][]interface{}{{uint32(100), uint16(7)}, {uint32(200), uint16(8)}}},
				{StreamID: 1, Entries: [][]interface{}{{uint32(300), uint16(9)}}},
			},
			csv:    "100,7\n200,8\n300,9\n",
			points: 3,
		},
		{
			name:    "mixed types",
			records: []*StreamRecord{{StreamID: 2, Entries: [][]interface{}{{float32(-1.5), int8(-2), uint8(3)}}}},
			csv:     "-1.5,-2,3\n",
			points:  1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			w := NewStreamCSV(&out)
			for _, rec := range tc.records {
				require.NoError(t, w.Write(rec))
			}
			require.Equal(t, tc.csv, out.String())
			require.Equal(t, tc.points, w.Points)
		})
	}
}
