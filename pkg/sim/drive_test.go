package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dbglink/pkg/dbg/buffer"
	"github.com/robotalks/dbglink/pkg/profiling"
)

func TestSetpoint(t *testing.T) {
	d := NewDrive(nil, 4)
	testCases := []struct {
		elapsed  time.Duration
		setpoint float64
	}{
		{0, 500},
		{499 * time.Millisecond, 500},
		{500 * time.Millisecond, -500},
		{999 * time.Millisecond, -500},
		{time.Second, 500},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.setpoint, d.Setpoint(tc.elapsed), "at %v", tc.elapsed)
	}
}

func TestDriveTick(t *testing.T) {
	var cycles uint32
	tracer := profiling.NewBufferTracer(profiling.CyclesFunc(func() uint32 {
		cycles += 10
		return cycles
	}), 8)
	d := NewDrive(tracer, 4)
	r := buffer.NewRegistry(8, 4)
	d.Register(r)
	require.Equal(t, 2, r.Count())

	now := time.Now()
	for n := 0; n < 3; n++ {
		require.NoError(t, d.Tick(context.Background(), now.Add(time.Duration(n)*100*time.Millisecond)))
	}
	// 2000 mm/s^2 for 100ms per tick
	require.Equal(t, []float32{0, 200, 400}, d.Speed.Values())
	require.Equal(t, []int16{5000, 3000, 1000}, d.Error.Values())
	require.Equal(t, []uint16{NameEstimate, NameRecord, NameEstimate, NameRecord, NameEstimate, NameRecord}, tracer.NameID.Values())
	require.Equal(t, []uint32{10, 10, 10, 10, 10, 10}, tracer.Duration.Values())

	d.Reset()
	require.Equal(t, 0, d.Speed.Len())
	require.Equal(t, 0, d.Error.Len())
}
