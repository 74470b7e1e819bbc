package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default iteration interval of a Loop.
const DefaultInterval = 10 * time.Millisecond

// Loop runs tasks periodically, the main loop of a simulated device.
// Runnables added to the loop run in the background for the lifetime of
// the loop.
type Loop struct {
	Interval time.Duration

	tasks    []Task
	runners  []Runnable
	lock     sync.Mutex
	wakeUpCh chan struct{}
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeUpCh: make(chan struct{}, 1)}
}

// AddTask adds tasks in running order.
func (l *Loop) AddTask(tasks ...Task) *Loop {
	l.lock.Lock()
	l.tasks = append(l.tasks, tasks...)
	l.lock.Unlock()
	return l
}

// AddRunnable adds background Runnables.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// TriggerNext schedules the next iteration immediately.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Run implements Runnable. It returns when ctx is done or all background
// Runnables stopped.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var doneCh chan error
	if len(l.runners) > 0 {
		runner := NewRunnerWith(ctx).Go(l.runners...)
		doneCh = make(chan error, 1)
		go func() {
			doneCh <- runner.Wait()
		}()
	}

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if doneCh != nil {
				<-doneCh
			}
			return ctx.Err()
		case err := <-doneCh:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		case now := <-ticker.C:
			l.runIteration(ctx, now)
		case <-l.wakeUpCh:
			l.runIteration(ctx, time.Now())
		}
	}
}

func (l *Loop) runIteration(ctx context.Context, now time.Time) {
	l.lock.Lock()
	tasks := l.tasks
	l.lock.Unlock()
	for _, task := range tasks {
		if err := task.Tick(ctx, now); err != nil {
			glog.Errorf("task error: %v", err)
		}
	}
}
