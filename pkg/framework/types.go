package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// Task is the work done in one iteration of a Loop.
type Task interface {
	Tick(ctx context.Context, now time.Time) error
}

// TaskFunc is the func form of Task.
type TaskFunc func(context.Context, time.Time) error

// Tick implements Task.
func (f TaskFunc) Tick(ctx context.Context, now time.Time) error {
	return f(ctx, now)
}
