package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())

	errs.Add(errors.New("e1"))
	require.EqualError(t, errs.Aggregate(), "e1")
	errs.Add(nil, errors.New("e2"))
	require.EqualError(t, errs.Aggregate(), "multiple errors:\n  e1\n  e2")
}

func TestRunnerWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx)
	r.Go(
		NamedRun("fail", RunFunc(func(context.Context) error {
			return errors.New("failed")
		})),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	cancel()
	err := r.Wait()
	require.EqualError(t, err, "failed")
}

func TestRunnerWaitIgnoresCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx)
	r.Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return fmt.Errorf("stopping: %w", ctx.Err())
	}))
	cancel()
	require.NoError(t, r.Wait())
}

type closer struct {
	closed int32
	ch     chan struct{}
}

func (c *closer) Close() error {
	if atomic.AddInt32(&c.closed, 1) == 1 {
		close(c.ch)
	}
	return nil
}

var _ io.Closer = &closer{}

func TestRunWithContextCloser(t *testing.T) {
	c := &closer{ch: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, c, func() error {
		<-c.ch
		return io.EOF
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&c.closed))

	c = &closer{ch: make(chan struct{})}
	err = RunWithContextCloser(context.Background(), c, func() error {
		return io.EOF
	})
	require.Equal(t, io.EOF, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&c.closed))
}

func TestLoop(t *testing.T) {
	var ticks int32
	l := NewLoop()
	l.Interval = time.Millisecond
	l.AddTask(TaskFunc(func(ctx context.Context, now time.Time) error {
		atomic.AddInt32(&ticks, 1)
		return nil
	}))
	var started int32
	l.AddRunnable(RunFunc(func(ctx context.Context) error {
		atomic.StoreInt32(&started, 1)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, l.Run(ctx))
	require.True(t, atomic.LoadInt32(&ticks) > 0)
	require.Equal(t, int32(1), atomic.LoadInt32(&started))
}

func TestLoopTriggerNext(t *testing.T) {
	tickCh := make(chan struct{}, 1)
	l := NewLoop()
	l.Interval = time.Hour
	l.AddTask(TaskFunc(func(ctx context.Context, now time.Time) error {
		select {
		case tickCh <- struct{}{}:
		default:
		}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() { doneCh <- l.Run(ctx) }()
	l.TriggerNext()
	select {
	case <-tickCh:
	case <-time.After(time.Second):
		t.Fatal("iteration not triggered")
	}
	cancel()
	require.Equal(t, context.Canceled, <-doneCh)
}
