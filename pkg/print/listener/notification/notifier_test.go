package notification_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/layercure/pkg/print/adapter/printer/simulated"
	model "github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/listener/notification"
)

type captureNotifier struct {
	mu     sync.Mutex
	jobs   []*model.PrintJob
	slices int
	panics bool
}

func (c *captureNotifier) JobChanged(printer model.Printer, job *model.PrintJob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
}

func (c *captureNotifier) SliceExposed(printer model.Printer, job *model.PrintJob) {
	c.mu.Lock()
	c.slices++
	c.mu.Unlock()
	if c.panics {
		panic("display disconnected")
	}
}

func TestAsyncNotifier_DeliversInOrder(t *testing.T) {
	next := &captureNotifier{}
	n := notification.NewAsyncNotifier(8, next)
	p := simulated.New("alpha", model.SlicingProfile{})
	first, second := model.NewPrintJob("a.stl"), model.NewPrintJob("b.stl")

	n.SliceExposed(p, first)
	n.JobChanged(p, first)
	n.JobChanged(p, second)
	n.Close()

	assert.Equal(t, []*model.PrintJob{first, second}, next.jobs)
	assert.Equal(t, 1, next.slices)
}

func TestAsyncNotifier_JobChangedAfterClose(t *testing.T) {
	next := &captureNotifier{}
	n := notification.NewAsyncNotifier(1, next)
	n.Close()

	job := model.NewPrintJob("a.stl")
	n.JobChanged(nil, job)
	n.SliceExposed(nil, job)

	assert.Equal(t, []*model.PrintJob{job}, next.jobs)
	assert.Zero(t, next.slices)
}

func TestAsyncNotifier_SurvivesPanickingNotifier(t *testing.T) {
	next := &captureNotifier{panics: true}
	n := notification.NewAsyncNotifier(4, next)
	job := model.NewPrintJob("a.stl")

	n.SliceExposed(nil, job)
	n.JobChanged(nil, job)
	n.Close()

	assert.Len(t, next.jobs, 1)
}

func TestLoggingNotifier(t *testing.T) {
	n := notification.NewLoggingNotifier()
	job := model.NewPrintJob("a.stl")
	job.SetStatus(model.JobStatusCompleted)

	assert.NotPanics(t, func() {
		n.JobChanged(nil, job)
		n.SliceExposed(nil, job)
	})
}
