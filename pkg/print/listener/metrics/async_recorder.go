// Package metrics moves metric recording off the print pipeline.
package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"

	config "github.com/tigerroll/layercure/pkg/print/core/config"
	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/metrics"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// MetricEvent represents a metric event to be recorded asynchronously.
type MetricEvent struct {
	Type        string
	Job         *model.PrintJob
	PrinterName string
	Name        string
	CacheHit    bool
	Duration    time.Duration
	Tags        map[string]string
}

// Metric event type constants
const (
	MetricEventTypeJobStart       = "job_start"
	MetricEventTypeJobEnd         = "job_end"
	MetricEventTypeLayerRendered  = "layer_rendered"
	MetricEventTypeLayerExposed   = "layer_exposed"
	MetricEventTypePreview        = "preview"
	MetricEventTypeRecordDuration = "record_duration"
)

const defaultBufferSize = 100

// AsyncMetricRecorder queues metric events and records them on its own goroutine,
// so a slow backend never delays a layer. Events are dropped when the queue is full.
type AsyncMetricRecorder struct {
	eventQueue   chan MetricEvent
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	syncRecorder metrics.MetricRecorder
}

// NewAsyncMetricRecorder creates an AsyncMetricRecorder in front of syncRec.
// A bufferSize of 0 or less selects the default.
func NewAsyncMetricRecorder(bufferSize int, syncRec metrics.MetricRecorder) *AsyncMetricRecorder {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	r := &AsyncMetricRecorder{
		eventQueue:   make(chan MetricEvent, bufferSize),
		stopCh:       make(chan struct{}),
		syncRecorder: syncRec,
	}
	r.wg.Add(1)
	go r.run()
	logger.Debugf("AsyncMetricRecorder: Worker goroutine started (buffer size: %d).", bufferSize)
	return r
}

func (r *AsyncMetricRecorder) run() {
	defer r.wg.Done()
	for {
		select {
		case event := <-r.eventQueue:
			r.processEvent(event)
		case <-r.stopCh:
			remaining := 0
			for {
				select {
				case event := <-r.eventQueue:
					r.processEvent(event)
					remaining++
				default:
					logger.Debugf("AsyncMetricRecorder: Worker goroutine stopped. Processed %d remaining events.", remaining)
					return
				}
			}
		}
	}
}

func (r *AsyncMetricRecorder) processEvent(event MetricEvent) {
	ctx := context.Background()
	switch event.Type {
	case MetricEventTypeJobStart:
		r.syncRecorder.RecordJobStart(ctx, event.Job)
	case MetricEventTypeJobEnd:
		r.syncRecorder.RecordJobEnd(ctx, event.Job)
	case MetricEventTypeLayerRendered:
		r.syncRecorder.RecordLayerRendered(ctx, event.PrinterName, event.Duration)
	case MetricEventTypeLayerExposed:
		r.syncRecorder.RecordLayerExposed(ctx, event.PrinterName, event.Duration)
	case MetricEventTypePreview:
		r.syncRecorder.RecordPreview(ctx, event.CacheHit)
	case MetricEventTypeRecordDuration:
		r.syncRecorder.RecordDuration(ctx, event.Name, event.Duration, event.Tags)
	default:
		logger.Warnf("AsyncMetricRecorder: Unknown metric event type: %s", event.Type)
	}
}

// Close stops the worker after recording every queued event. It is safe to call more than once.
func (r *AsyncMetricRecorder) Close() {
	r.stopOnce.Do(func() {
		logger.Debugf("AsyncMetricRecorder: Sending shutdown signal...")
		close(r.stopCh)
	})
	r.wg.Wait()
}

func (r *AsyncMetricRecorder) sendEvent(event MetricEvent) {
	select {
	case <-r.stopCh:
		logger.Debugf("AsyncMetricRecorder: Recorder is closed. Event %s discarded.", event.Type)
		return
	default:
	}
	select {
	case r.eventQueue <- event:
	default:
		logger.Warnf("AsyncMetricRecorder: Event queue is full (type: %s). Event discarded.", event.Type)
	}
}

func (r *AsyncMetricRecorder) RecordJobStart(ctx context.Context, job *model.PrintJob) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeJobStart, Job: job})
}

func (r *AsyncMetricRecorder) RecordJobEnd(ctx context.Context, job *model.PrintJob) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeJobEnd, Job: job})
}

func (r *AsyncMetricRecorder) RecordLayerRendered(ctx context.Context, printerName string, duration time.Duration) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeLayerRendered, PrinterName: printerName, Duration: duration})
}

func (r *AsyncMetricRecorder) RecordLayerExposed(ctx context.Context, printerName string, duration time.Duration) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeLayerExposed, PrinterName: printerName, Duration: duration})
}

func (r *AsyncMetricRecorder) RecordPreview(ctx context.Context, cacheHit bool) {
	r.sendEvent(MetricEvent{Type: MetricEventTypePreview, CacheHit: cacheHit})
}

func (r *AsyncMetricRecorder) RecordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	r.sendEvent(MetricEvent{Type: MetricEventTypeRecordDuration, Name: name, Duration: duration, Tags: tags})
}

var _ metrics.MetricRecorder = (*AsyncMetricRecorder)(nil)

// NewAsyncMetricRecorderWrapper is a helper for fx.Decorate. It closes the
// AsyncMetricRecorder when the application stops.
func NewAsyncMetricRecorderWrapper(lc fx.Lifecycle, cfg *config.Config, syncRecorder metrics.MetricRecorder) metrics.MetricRecorder {
	asyncRecorder := NewAsyncMetricRecorder(cfg.Host.Print.MetricsAsyncBufferSize, syncRecorder)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			asyncRecorder.Close()
			return nil
		},
	})
	logger.Debugf("MetricRecorder decorated with asynchronous wrapper.")
	return asyncRecorder
}
