// Package simulated provides an in-memory printer that records what it is asked to show.
package simulated

import (
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// Printer is a model.Printer without hardware.
type Printer struct {
	name    string
	profile model.SlicingProfile

	mu        sync.Mutex
	status    model.JobStatus
	started   bool
	pause     int64
	shown     int
	blanks    int
	last      *image.Gray
	showDelay time.Duration
	showErr   error
	history   []model.JobStatus
}

// Option configures a Printer.
type Option func(*Printer)

// WithShowDelay makes every ShowImage call block for d, standing in for display I/O.
func WithShowDelay(d time.Duration) Option {
	return func(p *Printer) { p.showDelay = d }
}

// WithShowError makes every ShowImage call fail with err.
func WithShowError(err error) Option {
	return func(p *Printer) { p.showErr = err }
}

// Stopped creates the printer in the not-started state.
func Stopped() Option {
	return func(p *Printer) { p.started = false }
}

// New creates a started, Ready printer.
func New(name string, profile model.SlicingProfile, opts ...Option) *Printer {
	p := &Printer{
		name:    name,
		profile: profile,
		status:  model.JobStatusReady,
		started: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Printer) Name() string { return p.name }

func (p *Printer) SlicingProfile() model.SlicingProfile { return p.profile }

// ShowImage keeps a copy of img.
func (p *Printer) ShowImage(img image.Image) error {
	p.mu.Lock()
	delay, showErr := p.showDelay, p.showErr
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if showErr != nil {
		return showErr
	}

	cp := image.NewGray(img.Bounds())
	draw.Draw(cp, cp.Bounds(), img, img.Bounds().Min, draw.Src)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown++
	p.last = cp
	return nil
}

func (p *Printer) ShowBlankImage() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blanks++
	p.last = nil
	return nil
}

// SetStatus changes the status. Every change is kept for inspection by StatusHistory.
func (p *Printer) SetStatus(status model.JobStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != status {
		logger.Debugf("Printer '%s' status %s -> %s", p.name, p.status, status)
	}
	p.status = status
	p.history = append(p.history, status)
}

func (p *Printer) Status() model.JobStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Printer) IsPrintActive() bool {
	return p.Status().IsPrintActive()
}

func (p *Printer) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}

// SetStarted starts or stops the printer.
func (p *Printer) SetStarted(started bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started = started
}

func (p *Printer) SetCurrentSlicePauseTime(millis int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pause = millis
}

func (p *Printer) CurrentSlicePauseTime() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pause
}

// ShownCount returns the number of images shown.
func (p *Printer) ShownCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shown
}

// BlankCount returns the number of blank frames shown.
func (p *Printer) BlankCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blanks
}

// LastImage returns a copy of the last image shown, or nil after a blank frame.
func (p *Printer) LastImage() *image.Gray {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// StatusHistory returns every status set so far.
func (p *Printer) StatusHistory() []model.JobStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.JobStatus(nil), p.history...)
}

var _ model.Printer = (*Printer)(nil)
