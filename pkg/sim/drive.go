// Package sim provides simulated device workloads which produce debug
// data.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/robotalks/dbglink/pkg/dbg/buffer"
	"github.com/robotalks/dbglink/pkg/profiling"
)

// Profiled span names and thread of the Drive workload.
const (
	DriveThreadID uint32 = 1

	NameEstimate uint16 = 1
	NameRecord   uint16 = 2
)

// Tracer profiles spans, it's implemented by profiling.BufferTracer and
// profiling.StreamTracer.
type Tracer interface {
	Begin(*profiling.Event)
	End(*profiling.Event)
}

// Drive simulates an acceleration limited drive following a square wave
// speed setpoint. Each tick records the speed and the tracking error.
type Drive struct {
	MaxSpeed float64       // mm/s
	Accel    float64       // mm/s^2
	Period   time.Duration // of the setpoint

	Tracer Tracer
	Speed  *buffer.Buffer[float32]
	// Error is the setpoint minus speed in 0.1 mm/s.
	Error *buffer.Buffer[int16]

	start time.Time
	last  time.Time
	speed float64
	lock  sync.Mutex
}

// NewDrive creates a Drive with buffers of capacity samples.
func NewDrive(tracer Tracer, capacity int) *Drive {
	return &Drive{
		MaxSpeed: 500,
		Accel:    2000,
		Period:   time.Second,
		Tracer:   tracer,
		Speed:    buffer.New[float32](capacity),
		Error:    buffer.New[int16](capacity),
	}
}

// Register registers the sample buffers.
func (d *Drive) Register(r *buffer.Registry) {
	r.Register(d.Speed)
	r.Register(d.Error)
}

// Reset rewinds the sample buffers.
func (d *Drive) Reset() {
	d.Speed.Reset()
	d.Error.Reset()
}

// Setpoint returns the desired speed at elapsed time since start.
func (d *Drive) Setpoint(elapsed time.Duration) float64 {
	if d.Period <= 0 || (elapsed/(d.Period/2))%2 == 0 {
		return d.MaxSpeed
	}
	return -d.MaxSpeed
}

// Tick implements framework.Task.
func (d *Drive) Tick(ctx context.Context, now time.Time) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.start.IsZero() {
		d.start, d.last = now, now
	}

	ev := profiling.Event{ThreadID: DriveThreadID, NameID: NameEstimate}
	d.begin(&ev)
	setpoint := d.Setpoint(now.Sub(d.start))
	step := d.Accel * now.Sub(d.last).Seconds()
	if diff := setpoint - d.speed; math.Abs(diff) <= step {
		d.speed = setpoint
	} else {
		d.speed += math.Copysign(step, diff)
	}
	d.last = now
	d.end(&ev)

	ev = profiling.Event{ThreadID: DriveThreadID, NameID: NameRecord}
	d.begin(&ev)
	d.Speed.Append(float32(d.speed))
	d.Error.Append(int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, (setpoint-d.speed)*10))))
	d.end(&ev)
	return nil
}

func (d *Drive) begin(ev *profiling.Event) {
	if d.Tracer != nil {
		d.Tracer.Begin(ev)
	}
}

func (d *Drive) end(ev *profiling.Event) {
	if d.Tracer != nil {
		d.Tracer.End(ev)
	}
}
