package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dbglink/pkg/dbg"
	"github.com/robotalks/dbglink/pkg/dbg/protocol"
	env "github.com/robotalks/dbglink/pkg/env/device"
	fx "github.com/robotalks/dbglink/pkg/framework"
	"github.com/robotalks/dbglink/pkg/profiling"
	"github.com/robotalks/dbglink/pkg/sim"
)

// Generic requests served by the simulator.
const (
	GenericReset    = 0
	GenericShutdown = 15
)

var (
	profileMode = "buffer"
	interval    = 10 * time.Millisecond
	coreFreq    = uint64(168000000)
)

func init() {
	env.SetupFlags()
	flag.StringVar(&profileMode, "profile", profileMode, "Profiling mode: buffer, stream or none.")
	flag.DurationVar(&interval, "interval", interval, "Interval of the device loop.")
	flag.Uint64Var(&coreFreq, "core-freq", coreFreq, "Nominal core frequency of the cycle counter.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	runner := fx.NewRunner().HandleSignals()
	ctx, cancel := context.WithCancel(runner.Context)
	runner.Context = ctx

	counter := profiling.NewClockCounter(coreFreq)
	var bufTracer *profiling.BufferTracer
	var streamTracer *profiling.StreamTracer
	var drive *sim.Drive
	switch profileMode {
	case "buffer":
		bufTracer = profiling.NewBufferTracer(counter, conf.BufferCapacity)
		drive = sim.NewDrive(bufTracer, conf.BufferCapacity)
	case "stream":
		streamTracer = profiling.NewStreamTracer(counter, profiling.DefaultStreamEntries)
		drive = sim.NewDrive(streamTracer, conf.BufferCapacity)
	case "none":
		drive = sim.NewDrive(nil, conf.BufferCapacity)
	default:
		log.Fatalf("unknown profiling mode %q", profileMode)
	}

	var sub *dbg.Subsystem
	var hooks protocol.Hooks
	hooks.Generic[GenericReset] = func() {
		glog.Info("reset buffers")
		drive.Reset()
		if bufTracer != nil {
			bufTracer.Reset()
		}
	}
	hooks.Generic[GenericShutdown] = func() {
		glog.Warning("shutdown requested by host")
		sub.Shutdown()
	}
	hooks.Shutdown = cancel

	sub, link, err := conf.NewSubsystem(hooks)
	if err != nil {
		log.Fatalln(err)
	}
	drive.Register(sub.Buffers())
	if bufTracer != nil {
		bufTracer.Register(sub.Buffers())
	}
	if streamTracer != nil {
		if err = streamTracer.Register(sub.Streams()); err != nil {
			log.Fatalln(err)
		}
	}
	glog.Infof("device: %d buffers, profiling %s", sub.Buffers().Count(), profileMode)

	loop := fx.NewLoop()
	loop.Interval = interval
	loop.AddTask(drive).AddRunnable(link)
	runner.Go(fx.NamedRun("device", loop))
	if err = runner.Wait(); err != nil {
		glog.Errorf("device stopped: %v", err)
		glog.Flush()
		log.Fatalln(err)
	}
}
