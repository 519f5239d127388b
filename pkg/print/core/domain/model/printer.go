package model

import (
	"context"
	"image"
	"iter"
)

// Printer is the display/exposure device a job prints on.
// Implementations must be safe for concurrent use.
type Printer interface {
	Name() string
	// ShowImage projects img until the next call.
	ShowImage(img image.Image) error
	ShowBlankImage() error
	SetStatus(status JobStatus)
	Status() JobStatus
	IsPrintActive() bool
	IsStarted() bool
	// SetCurrentSlicePauseTime sets the pause accumulated during the current slice, in milliseconds.
	SetCurrentSlicePauseTime(millis int64)
	CurrentSlicePauseTime() int64
	SlicingProfile() SlicingProfile
}

// PrintFileProcessor turns a print file into exposed layers.
type PrintFileProcessor interface {
	FileExtensions() []string
	AcceptsFile(path string) bool
	FriendlyName() string
	// ProcessFile runs the job to a terminal status. It blocks until the print ends.
	ProcessFile(ctx context.Context, job *PrintJob) (JobStatus, error)
	// CurrentImage returns a copy of the layer currently exposed for job, or nil.
	CurrentImage(job *PrintJob) image.Image
	// BuildAreaMM returns the cured area of the current layer in square millimetres.
	BuildAreaMM(job *PrintJob) (float64, bool)
	// Geometry returns a forward-only sequence over the job's mesh while it is being processed.
	Geometry(job *PrintJob) (iter.Seq[*Triangle], bool)
	// Errors returns the mesh errors found so far, or nil when the job is not being processed.
	Errors(job *PrintJob) []MeshError
}
