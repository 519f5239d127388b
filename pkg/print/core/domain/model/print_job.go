package model

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PrintJob is the lifecycle record of one print.
// Counters and status are written by the job's own driver and finalizer; reads may come from anywhere.
type PrintJob struct {
	id      uuid.UUID
	jobFile string

	mu           sync.RWMutex
	printer      Printer
	customizer   *Customizer
	processor    PrintFileProcessor
	status       JobStatus
	failure      error
	currentSlice int
	totalSlices  int
	startTime    time.Time
	elapsed      time.Duration
	elapsedSet   bool
	finalized    bool
	meshErrors   map[MeshError]struct{}

	done     chan struct{}
	doneOnce sync.Once
}

// NewPrintJob creates a job for jobFile with a fresh id. The start time is the creation
// time until MarkStarted is called.
func NewPrintJob(jobFile string) *PrintJob {
	return &PrintJob{
		id:         uuid.New(),
		jobFile:    jobFile,
		status:     JobStatusReady,
		startTime:  time.Now(),
		meshErrors: make(map[MeshError]struct{}),
		done:       make(chan struct{}),
	}
}

// ID returns the immutable job id.
func (j *PrintJob) ID() uuid.UUID { return j.id }

// JobFile returns the path of the print file.
func (j *PrintJob) JobFile() string { return j.jobFile }

// FileName returns the base name of the print file.
func (j *PrintJob) FileName() string { return filepath.Base(j.jobFile) }

func (j *PrintJob) Printer() Printer {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.printer
}

func (j *PrintJob) SetPrinter(p Printer) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.printer = p
}

func (j *PrintJob) Customizer() *Customizer {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.customizer
}

func (j *PrintJob) SetCustomizer(c *Customizer) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.customizer = c
}

// PrintFileProcessor returns the processor handle; after finalization it is an inert stand-in.
func (j *PrintJob) PrintFileProcessor() PrintFileProcessor {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.processor
}

func (j *PrintJob) SetPrintFileProcessor(p PrintFileProcessor) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.processor = p
}

func (j *PrintJob) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// PrinterStatus reports the bound printer's status, which returns to Ready once the job is
// finalized. A job without a printer reports its own status.
func (j *PrintJob) PrinterStatus() JobStatus {
	if p := j.Printer(); p != nil {
		return p.Status()
	}
	return j.Status()
}

func (j *PrintJob) SetStatus(s JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = s
}

// Fail marks the job Failed and records the cause.
func (j *PrintJob) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = JobStatusFailed
	if j.failure == nil {
		j.failure = err
	}
}

// Failure returns the error that failed the job, if any.
func (j *PrintJob) Failure() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.failure
}

// ResetSliceCounters zeroes the current and total slice counts.
func (j *PrintJob) ResetSliceCounters() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.currentSlice = 0
	j.totalSlices = 0
}

func (j *PrintJob) CurrentSlice() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.currentSlice
}

// IncrementCurrentSlice advances the slice counter and returns the new value.
func (j *PrintJob) IncrementCurrentSlice() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.currentSlice++
	return j.currentSlice
}

func (j *PrintJob) TotalSlices() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.totalSlices
}

// SetTotalSlices records the slice count computed when the mesh is loaded.
func (j *PrintJob) SetTotalSlices(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.totalSlices = n
}

// MarkStarted sets the start time to now.
func (j *PrintJob) MarkStarted() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.startTime = time.Now()
}

func (j *PrintJob) StartTime() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.startTime
}

// RecordElapsedTime computes the elapsed time from the start time. Only the first call has effect.
func (j *PrintJob) RecordElapsedTime() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.elapsedSet {
		j.elapsed = time.Since(j.startTime)
		j.elapsedSet = true
	}
	return j.elapsed
}

func (j *PrintJob) ElapsedTime() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.elapsed
}

// MarkFinalized returns true exactly once, for the first caller.
func (j *PrintJob) MarkFinalized() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.finalized {
		return false
	}
	j.finalized = true
	return true
}

// IsFinalized reports whether the finalizer has run.
func (j *PrintJob) IsFinalized() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.finalized
}

// MarkDone closes the channel returned by Done. Later calls do nothing.
func (j *PrintJob) MarkDone() {
	j.doneOnce.Do(func() { close(j.done) })
}

// Done is closed once the finalizer has finished with the job.
func (j *PrintJob) Done() <-chan struct{} {
	return j.done
}

// AddMeshErrors merges errs into the job's error set.
func (j *PrintJob) AddMeshErrors(errs []MeshError) {
	if len(errs) == 0 {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range errs {
		j.meshErrors[e] = struct{}{}
	}
}

// MeshErrors returns the job's mesh errors in a stable order.
func (j *PrintJob) MeshErrors() []MeshError {
	j.mu.RLock()
	out := make([]MeshError, 0, len(j.meshErrors))
	for e := range j.meshErrors {
		out = append(out, e)
	}
	j.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool {
		if out[a].Kind != out[b].Kind {
			return out[a].Kind < out[b].Kind
		}
		return out[a].Detail < out[b].Detail
	})
	return out
}

// String returns a short description for logs.
func (j *PrintJob) String() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	printerName := "<unassigned>"
	if j.printer != nil {
		printerName = j.printer.Name()
	}
	return fmt.Sprintf("PrintJob{ID:%s File:%s Printer:%s Status:%s Slice:%d/%d}",
		j.id, filepath.Base(j.jobFile), printerName, j.status, j.currentSlice, j.totalSlices)
}
