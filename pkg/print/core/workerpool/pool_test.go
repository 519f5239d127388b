package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/layercure/pkg/print/core/workerpool"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

func TestSubmit_ReturnsValue(t *testing.T) {
	p := workerpool.NewPool()
	defer p.Close(context.Background())

	f := workerpool.Submit(p, "answer", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	v, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmit_PropagatesError(t *testing.T) {
	p := workerpool.NewPool()
	defer p.Close(context.Background())

	boom := errors.New("boom")
	f := workerpool.Submit(p, "fail", func(ctx context.Context) (string, error) {
		return "", boom
	})
	_, err := f.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSubmit_PanicBecomesPipelineFailure(t *testing.T) {
	p := workerpool.NewPool()
	defer p.Close(context.Background())

	f := workerpool.Submit(p, "panics", func(ctx context.Context) (int, error) {
		panic("slicer exploded")
	})
	_, err := f.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, exception.ErrPipelineFailure)
	assert.Contains(t, err.Error(), "slicer exploded")
}

func TestFuture_GetHonoursContext(t *testing.T) {
	p := workerpool.NewPool()
	release := make(chan struct{})
	f := workerpool.Submit(p, "blocked", func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	v, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	require.NoError(t, p.Close(context.Background()))
}

func TestPool_TasksRunConcurrently(t *testing.T) {
	p := workerpool.NewPool()
	defer p.Close(context.Background())

	// The second task only finishes if the first one is running at the same time.
	started := make(chan struct{})
	first := workerpool.Submit(p, "waiter", func(ctx context.Context) (bool, error) {
		<-started
		return true, nil
	})
	second := workerpool.Submit(p, "signaller", func(ctx context.Context) (bool, error) {
		close(started)
		return true, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := first.Get(ctx)
	require.NoError(t, err)
	_, err = second.Get(ctx)
	require.NoError(t, err)
}

func TestPool_CloseCancelsAndRejects(t *testing.T) {
	p := workerpool.NewPool()
	var observed atomic.Bool
	f := workerpool.Submit(p, "long", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		observed.Store(true)
		return 0, ctx.Err()
	})

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, observed.Load())
	_, err := f.Get(context.Background())
	assert.ErrorIs(t, err, context.Canceled)

	late := workerpool.Submit(p, "late", func(ctx context.Context) (int, error) { return 1, nil })
	_, err = late.Get(context.Background())
	assert.ErrorIs(t, err, exception.ErrIllegalState)
	assert.Error(t, workerpool.Go(p, "late-go", func(ctx context.Context) {}))
}

func TestResolved(t *testing.T) {
	f := workerpool.Resolved("done", nil)
	select {
	case <-f.Done():
	default:
		t.Fatal("resolved future must be done")
	}
	v, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}
