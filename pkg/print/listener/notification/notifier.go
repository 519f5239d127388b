// Package notification delivers job and layer events to the outside world.
package notification

import (
	"context"
	"sync"

	"go.uber.org/fx"

	port "github.com/tigerroll/layercure/pkg/print/core/application/port"
	config "github.com/tigerroll/layercure/pkg/print/core/config"
	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	logger "github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// LoggingNotifier writes every notification to the log.
type LoggingNotifier struct{}

// NewLoggingNotifier creates a LoggingNotifier.
func NewLoggingNotifier() *LoggingNotifier {
	logger.Infof("Notification: Initializing logging notifier.")
	return &LoggingNotifier{}
}

// JobChanged implements port.Notifier.
func (n *LoggingNotifier) JobChanged(printer model.Printer, job *model.PrintJob) {
	name := "-"
	if printer != nil {
		name = printer.Name()
	}
	if job.Status() == model.JobStatusCompleted {
		logger.Infof("Job Notification: job %s on '%s' finished with status %s after %s.",
			job.ID(), name, job.Status(), job.ElapsedTime())
		return
	}
	logger.Warnf("Job Notification: job %s on '%s' finished with status %s after %s (%d/%d slices).",
		job.ID(), name, job.Status(), job.ElapsedTime(), job.CurrentSlice(), job.TotalSlices())
}

// SliceExposed implements port.Notifier.
func (n *LoggingNotifier) SliceExposed(printer model.Printer, job *model.PrintJob) {
	logger.Debugf("Slice Notification: job %s exposed slice %d/%d.", job.ID(), job.CurrentSlice(), job.TotalSlices())
}

var _ port.Notifier = (*LoggingNotifier)(nil)

type notification struct {
	jobChanged bool
	printer    model.Printer
	job        *model.PrintJob
}

// AsyncNotifier hands notifications to another Notifier on a background goroutine.
// Slice notifications are dropped when the queue is full. Job notifications always wait
// for room, since each is sent exactly once.
type AsyncNotifier struct {
	next   port.Notifier
	queue  chan notification
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewAsyncNotifier starts an AsyncNotifier in front of next.
func NewAsyncNotifier(bufferSize int, next port.Notifier) *AsyncNotifier {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	n := &AsyncNotifier{
		next:   next,
		queue:  make(chan notification, bufferSize),
		stopCh: make(chan struct{}),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *AsyncNotifier) run() {
	defer n.wg.Done()
	for {
		select {
		case e := <-n.queue:
			n.deliver(e)
		case <-n.stopCh:
			for {
				select {
				case e := <-n.queue:
					n.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (n *AsyncNotifier) deliver(e notification) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Notification: notifier panicked for job %s: %v", e.job.ID(), r)
		}
	}()
	if e.jobChanged {
		n.next.JobChanged(e.printer, e.job)
		return
	}
	n.next.SliceExposed(e.printer, e.job)
}

// JobChanged implements port.Notifier. After Close it delivers synchronously.
func (n *AsyncNotifier) JobChanged(printer model.Printer, job *model.PrintJob) {
	e := notification{jobChanged: true, printer: printer, job: job}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.deliver(e)
		return
	}
	n.queue <- e
}

// SliceExposed implements port.Notifier.
func (n *AsyncNotifier) SliceExposed(printer model.Printer, job *model.PrintJob) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}
	select {
	case n.queue <- notification{printer: printer, job: job}:
	default:
		logger.Debugf("Notification: queue is full, slice notification for job %s discarded.", job.ID())
	}
}

// Close delivers the queued notifications and stops the worker.
func (n *AsyncNotifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.stopCh)
	}
	n.mu.Unlock()
	n.wg.Wait()
}

var _ port.Notifier = (*AsyncNotifier)(nil)

// NewAsyncNotifierWrapper is a helper for fx.Decorate. It closes the AsyncNotifier when
// the application stops.
func NewAsyncNotifierWrapper(lc fx.Lifecycle, cfg *config.Config, next port.Notifier) port.Notifier {
	async := NewAsyncNotifier(cfg.Host.Print.NotificationBufferSize, next)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			async.Close()
			return nil
		},
	})
	return async
}
