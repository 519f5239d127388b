package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/layercure/pkg/print/adapter/printer/simulated"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
)

func TestPrometheusRecorder_Jobs(t *testing.T) {
	r := NewPrometheusRecorder()
	job := model.NewPrintJob("cube.stl")
	job.SetPrinter(simulated.New("alpha", model.SlicingProfile{}))

	r.RecordJobStart(context.Background(), job)
	job.SetStatus(model.JobStatusCompleted)
	job.RecordElapsedTime()
	r.RecordJobEnd(context.Background(), job)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobStatusCounter.WithLabelValues("alpha", "PRINTING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.jobStatusCounter.WithLabelValues("alpha", "COMPLETED")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.jobDurationSeconds))
}

func TestPrometheusRecorder_LayersAndPreviews(t *testing.T) {
	r := NewPrometheusRecorder()
	ctx := context.Background()

	r.RecordLayerRendered(ctx, "alpha", 20*time.Millisecond)
	r.RecordLayerExposed(ctx, "alpha", time.Second)
	r.RecordPreview(ctx, true)
	r.RecordPreview(ctx, false)
	r.RecordPreview(ctx, false)
	r.RecordDuration(ctx, "render_wait", time.Millisecond, map[string]string{"printer": "alpha"})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.previewCounter.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.previewCounter.WithLabelValues("miss")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.layerRenderSeconds))
	assert.Equal(t, 1, testutil.CollectAndCount(r.layerExposeSeconds))
	assert.Equal(t, 1, testutil.CollectAndCount(r.durationSeconds))

	families, err := r.GetRegistry().Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
