package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/golang/glog"

	env "github.com/robotalks/dbglink/pkg/env/host"
	fx "github.com/robotalks/dbglink/pkg/framework"
	"github.com/robotalks/dbglink/pkg/host"
	"github.com/robotalks/dbglink/pkg/host/mqtt"
)

var (
	errlogInterval = 10 * time.Second
)

func init() {
	env.SetupFlags()
	env.SetupMQTTFlags()
	flag.DurationVar(&errlogInterval, "errlog-interval", errlogInterval, "Interval of publishing the error log.")
}

type monitor struct {
	client    *host.Client
	publisher *mqtt.Publisher
	genericCh chan int
}

func (m *monitor) publishErrorLog() error {
	errlog, err := m.client.ReadErrorLog()
	if err != nil {
		return err
	}
	_, err = m.publisher.PublishErrorLog(errlog)
	return err
}

func (m *monitor) run() error {
	if err := m.client.Connect(); err != nil {
		return err
	}
	if err := m.publishErrorLog(); err != nil {
		return err
	}
	info, err := m.client.StartStreaming()
	if err == host.ErrNoStream {
		glog.Warning("device has no stream, publishing error log only")
	} else if err != nil {
		return err
	}

	lastErrlog := time.Now()
	for {
		if info != nil {
			rec, err := m.client.ReadStreamRecord()
			switch err {
			case nil:
				if _, err = m.publisher.PublishStreamRecord(info, rec); err != nil {
					return err
				}
			case host.ErrTimeout:
				glog.Warningf("stream %d timeout", info.ID)
				if err = m.client.KeepAlive(); err != nil {
					return err
				}
			default:
				return err
			}
		} else {
			time.Sleep(time.Second)
		}

	generics:
		for {
			select {
			case k := <-m.genericCh:
				if err := m.client.Generic(k); err != nil {
					glog.Warningf("generic %d: %v", k, err)
				}
			default:
				break generics
			}
		}

		if time.Since(lastErrlog) >= errlogInterval {
			if err := m.publishErrorLog(); err != nil {
				return err
			}
			lastErrlog = time.Now()
		}
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	q, err := mqtt.NewQueueFromURL(conf.MQTTURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	client, closer := conf.MustConnect()
	m := &monitor{
		client:    client,
		publisher: mqtt.NewPublisher(q, conf.DeviceName()),
		genericCh: make(chan int, 16),
	}
	m.publisher.HandleGeneric(func(k int) {
		select {
		case m.genericCh <- k:
		default:
			glog.Warningf("generic %d dropped", k)
		}
	})
	glog.Infof("publishing %s to %s", m.publisher.Device, conf.MQTTURL)

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("monitor", fx.RunFunc(func(ctx context.Context) error {
		return fx.RunWithContextCloser(ctx, closer, m.run)
	})))
	if err = runner.Wait(); err != nil {
		glog.Flush()
		log.Fatalln(err)
	}
}
