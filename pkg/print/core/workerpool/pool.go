// Package workerpool runs print tasks on goroutines and exposes their results as futures.
package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

const moduleName = "workerpool"

// ErrPoolClosed is returned by Submit after Close.
var ErrPoolClosed = exception.NewPrintError(moduleName, "worker pool is closed", exception.ErrIllegalState, nil)

// Pool runs submitted tasks concurrently and tracks them until they finish.
// Tasks are never queued behind each other: a job driver, its finalizer and its
// render task must all be able to run at once.
type Pool struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewPool creates a pool whose tasks receive a context cancelled by Close.
func NewPool() *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{ctx: ctx, cancel: cancel}
}

// Context returns the pool context.
func (p *Pool) Context() context.Context {
	return p.ctx
}

func (p *Pool) start(name string, run func(ctx context.Context)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		logger.Debugf("Task '%s' started.", name)
		run(p.ctx)
		logger.Debugf("Task '%s' finished.", name)
	}()
	return nil
}

// Close cancels the pool context and waits for every running task, or for ctx.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool did not drain: %w", ctx.Err())
	}
}

// Future is the pending result of a submitted task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until the result is available or ctx is done.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Resolved returns a completed future, useful when a task could not be submitted.
func Resolved[T any](value T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), value: value, err: err}
	close(f.done)
	return f
}

// Submit runs fn on p. A panic in fn completes the future with an ErrPipelineFailure error.
// When p is closed the returned future is already completed with ErrPoolClosed.
func Submit[T any](p *Pool, name string, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	err := p.start(name, func(ctx context.Context) {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("Task '%s' panicked: %v\n%s", name, r, debug.Stack())
				f.err = exception.PipelineFailure(moduleName, fmt.Sprintf("task '%s' panicked: %v", name, r), nil)
			}
		}()
		f.value, f.err = fn(ctx)
	})
	if err != nil {
		var zero T
		return Resolved(zero, err)
	}
	return f
}

// Go runs fn on p without a result. A panic in fn is logged and recovered.
func Go(p *Pool, name string, fn func(ctx context.Context)) error {
	return p.start(name, func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("Task '%s' panicked: %v\n%s", name, r, debug.Stack())
			}
		}()
		fn(ctx)
	})
}
