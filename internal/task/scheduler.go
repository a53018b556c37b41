package task

import (
	"context"
	"errors"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// Func is the body of a task. It runs holding the scheduler's turn and must
// give it up regularly through h.
type Func func(ctx context.Context, h *Handle) error

// Scheduler admits one task at a time.
type Scheduler struct {
	token chan struct{}
	group *errgroup.Group
	ctx   context.Context
}

// NewScheduler creates a scheduler whose tasks stop when ctx is done or any
// task returns an error.
func NewScheduler(ctx context.Context) *Scheduler {
	g, gctx := errgroup.WithContext(ctx)
	s := &Scheduler{
		token: make(chan struct{}, 1),
		group: g,
		ctx:   gctx,
	}
	s.token <- struct{}{}
	return s
}

// Go starts fn as a task. fn does not run until it is given the turn.
func (s *Scheduler) Go(name string, fn Func) {
	s.group.Go(func() error {
		h := &Handle{s: s, name: name}
		if err := h.acquire(s.ctx); err != nil {
			return nil
		}
		defer h.release()

		err := fn(s.ctx, h)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// Wait blocks until every task has returned and reports the first task error.
// Cancellation is not an error.
func (s *Scheduler) Wait() error {
	return s.group.Wait()
}

// Handle is a task's view of the scheduler.
type Handle struct {
	s    *Scheduler
	name string
	held bool
}

// Name returns the task name.
func (h *Handle) Name() string {
	return h.name
}

func (h *Handle) acquire(ctx context.Context) error {
	select {
	case <-h.s.token:
		h.held = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handle) release() {
	if !h.held {
		return
	}
	h.held = false
	h.s.token <- struct{}{}
}

// Yield lets every other ready task run before this one continues.
func (h *Handle) Yield(ctx context.Context) error {
	h.release()
	runtime.Gosched()
	return h.acquire(ctx)
}

// Sleep gives up the turn for d. A non-positive d is a Yield.
func (h *Handle) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return h.Yield(ctx)
	}
	h.release()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return h.acquire(ctx)
}
