package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/metrics"
)

type countingRecorder struct {
	metrics.NoOpMetricRecorder
	mu     sync.Mutex
	counts map[string]int
	names  []string
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: map[string]int{}}
}

func (r *countingRecorder) inc(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key]++
}

func (r *countingRecorder) RecordJobStart(ctx context.Context, job *model.PrintJob) { r.inc("start") }
func (r *countingRecorder) RecordJobEnd(ctx context.Context, job *model.PrintJob)   { r.inc("end") }
func (r *countingRecorder) RecordLayerRendered(ctx context.Context, printerName string, d time.Duration) {
	r.inc("render:" + printerName)
}
func (r *countingRecorder) RecordLayerExposed(ctx context.Context, printerName string, d time.Duration) {
	r.inc("expose:" + printerName)
}
func (r *countingRecorder) RecordPreview(ctx context.Context, cacheHit bool) {
	if cacheHit {
		r.inc("preview:hit")
		return
	}
	r.inc("preview:miss")
}
func (r *countingRecorder) RecordDuration(ctx context.Context, name string, d time.Duration, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func TestAsyncMetricRecorder_DrainsOnClose(t *testing.T) {
	rec := newCountingRecorder()
	r := NewAsyncMetricRecorder(32, rec)
	ctx := context.Background()
	job := model.NewPrintJob("box.stl")

	r.RecordJobStart(ctx, job)
	for i := 0; i < 5; i++ {
		r.RecordLayerRendered(ctx, "alpha", time.Millisecond)
		r.RecordLayerExposed(ctx, "alpha", time.Millisecond)
	}
	r.RecordPreview(ctx, true)
	r.RecordPreview(ctx, false)
	r.RecordDuration(ctx, "render_wait", time.Millisecond, nil)
	r.RecordJobEnd(ctx, job)
	r.Close()

	assert.Equal(t, 1, rec.counts["start"])
	assert.Equal(t, 1, rec.counts["end"])
	assert.Equal(t, 5, rec.counts["render:alpha"])
	assert.Equal(t, 5, rec.counts["expose:alpha"])
	assert.Equal(t, 1, rec.counts["preview:hit"])
	assert.Equal(t, 1, rec.counts["preview:miss"])
	assert.Equal(t, []string{"render_wait"}, rec.names)
}

func TestAsyncMetricRecorder_DiscardsAfterClose(t *testing.T) {
	rec := newCountingRecorder()
	r := NewAsyncMetricRecorder(0, rec)
	r.Close()
	r.Close()

	r.RecordJobStart(context.Background(), model.NewPrintJob("box.stl"))
	assert.Zero(t, rec.counts["start"])
}
