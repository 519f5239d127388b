// Package port defines the collaborator interfaces (ports) of the print engine.
// Device drivers, mesh slicing, customizer storage and notification delivery live
// behind these interfaces so the engine can be exercised in isolation.
package port

import (
	"context"
	"image"
	"image/draw"
	"io"

	"github.com/google/uuid"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
)

// PrinterAssignment binds printers to jobs exclusively.
type PrinterAssignment interface {
	// Assign binds printer to job.
	//
	// Returns:
	//   error: an error wrapping exception.ErrAlreadyAssigned if printer is bound to another job.
	Assign(job *model.PrintJob, printer model.Printer) error
	// Release drops the binding held by job. Releasing an unbound job is a no-op.
	Release(job *model.PrintJob)
	// AssignedJob returns the id of the job bound to the named printer.
	AssignedJob(printerName string) (uuid.UUID, bool)
}

// SlicerParams are the construction parameters of a Slicer.
type SlicerParams struct {
	// PixelsPerMMX and PixelsPerMMY are the device pixel density.
	PixelsPerMMX float64
	PixelsPerMMY float64
	// LayerHeight is the slice thickness in millimetres.
	LayerHeight float64
	// HalfLayerOffset shifts the cutting plane into the middle of the layer.
	HalfLayerOffset float64
	// Watertight enables repair of open contours.
	Watertight bool
	// OverrideNormals recomputes facet normals with the right-hand rule.
	OverrideNormals bool
	// Mend names the strategy used to close open contours (e.g., "close-off").
	Mend string
}

// Slicer is a cursor over the cross-sections of a mesh.
// A Slicer is used by one goroutine at a time.
type Slicer interface {
	// LoadFile reads a mesh and centres it on an xRes x yRes pixel canvas.
	LoadFile(r io.Reader, xRes, yRes float64) error
	// SetIndex positions the cursor on layer i.
	SetIndex(i int)
	Index() int
	MinIndex() int
	MaxIndex() int
	// FirstTriangle returns the head of the mesh's triangle chain.
	FirstTriangle() *model.Triangle
	// Errors returns the mesh errors found so far.
	Errors() []model.MeshError
	// Rasterize draws the cross-section at the current index into dst, which it clears first.
	//
	// Returns:
	//   float64: the number of lit pixels.
	//   error: a geometry error when the layer cannot be rasterized.
	Rasterize(dst draw.Image) (float64, error)
}

// SlicerFactory constructs Slicers.
type SlicerFactory interface {
	NewSlicer(params SlicerParams) (Slicer, error)
}

// CustomizerResolver looks up the customizer authored for a file.
type CustomizerResolver interface {
	// Lookup returns the customizer for fileName, or nil when none exists.
	Lookup(fileName string) *model.Customizer
}

// PrinterLocator finds printers for jobs and previews.
type PrinterLocator interface {
	// Printer returns the printer with the given name.
	Printer(name string) (model.Printer, error)
	// FirstAvailable returns a started printer that is not printing.
	//
	// Returns:
	//   error: an error wrapping exception.ErrNoPrinterAvailable if none exists.
	FirstAvailable() (model.Printer, error)
	// Printers lists every known printer.
	Printers() []model.Printer
}

// Notifier delivers job events. Calls are best-effort and must not block the pipeline.
type Notifier interface {
	// JobChanged is sent once per terminal transition of job.
	JobChanged(printer model.Printer, job *model.PrintJob)
	// SliceExposed is sent after every exposed layer.
	SliceExposed(printer model.Printer, job *model.PrintJob)
}

// JobListener observes the start and end of every print job.
type JobListener interface {
	// BeforeJob is called on the job's worker before the file is processed.
	BeforeJob(ctx context.Context, job *model.PrintJob)
	// AfterJob is called by the finalizer once the job's terminal status is known.
	AfterJob(ctx context.Context, job *model.PrintJob) error
}

// JobEnv is the per-job environment prepared before processing a file.
type JobEnv struct {
	Job        *model.PrintJob
	Printer    model.Printer
	Profile    model.SlicingProfile
	Customizer *model.Customizer
	// XResolution and YResolution are the canvas size in pixels.
	XResolution int
	YResolution int
	// XPixelsPerMM and YPixelsPerMM are the device pixel density.
	XPixelsPerMM float64
	YPixelsPerMM float64
	// SliceHeight is the layer height in millimetres.
	SliceHeight float64
}

// PrintLifecycle performs the duties common to every print file around each layer.
type PrintLifecycle interface {
	// Header runs once before the first layer is exposed.
	Header(ctx context.Context, env *JobEnv) error
	// PreSlice runs at the top of every layer iteration.
	//
	// Parameters:
	//   meshErrors: the slicer's errors so far, merged into the job.
	//
	// Returns:
	//   model.JobStatus: the terminal status to return when stop is true.
	//   bool: stop, true when the print must end now.
	//   error: a failure that ends the print as Failed.
	PreSlice(ctx context.Context, env *JobEnv, meshErrors []model.MeshError) (model.JobStatus, bool, error)
	// PostSlice shows img on the printer and performs per-layer accounting.
	PostSlice(ctx context.Context, env *JobEnv, img image.Image) (model.JobStatus, bool, error)
	// Footer runs after the last layer and returns the terminal status.
	Footer(ctx context.Context, env *JobEnv) (model.JobStatus, error)
}

// ProcessorFactory creates the PrintFileProcessor for a job file.
type ProcessorFactory interface {
	ProcessorFor(path string) (model.PrintFileProcessor, error)
	// Inert returns a stand-in for p that keeps its metadata and answers every job query as absent.
	Inert(p model.PrintFileProcessor) model.PrintFileProcessor
}

// JobListenerGroup is the fx value group collecting every JobListener.
const JobListenerGroup = `group:"job_listeners"`
