package processor

import (
	"context"
	"image"
	"iter"

	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

// StubProcessor replaces the processor of a finished job. It keeps the file metadata of
// the processor it wraps and answers every per-job query with nothing.
type StubProcessor struct {
	wrapped model.PrintFileProcessor
}

// NewStubProcessor wraps p, which may be nil.
func NewStubProcessor(p model.PrintFileProcessor) *StubProcessor {
	if stub, ok := p.(*StubProcessor); ok {
		return stub
	}
	return &StubProcessor{wrapped: p}
}

func (s *StubProcessor) FileExtensions() []string {
	if s.wrapped == nil {
		return nil
	}
	return s.wrapped.FileExtensions()
}

func (s *StubProcessor) AcceptsFile(path string) bool {
	return s.wrapped != nil && s.wrapped.AcceptsFile(path)
}

func (s *StubProcessor) FriendlyName() string {
	if s.wrapped == nil {
		return ""
	}
	return s.wrapped.FriendlyName()
}

// ProcessFile always fails; a finished job cannot be processed again.
func (s *StubProcessor) ProcessFile(ctx context.Context, job *model.PrintJob) (model.JobStatus, error) {
	return model.JobStatusFailed, exception.IllegalStateError(moduleName, "job has already been processed")
}

func (s *StubProcessor) CurrentImage(job *model.PrintJob) image.Image { return nil }

func (s *StubProcessor) BuildAreaMM(job *model.PrintJob) (float64, bool) { return 0, false }

func (s *StubProcessor) Geometry(job *model.PrintJob) (iter.Seq[*model.Triangle], bool) {
	return nil, false
}

func (s *StubProcessor) Errors(job *model.PrintJob) []model.MeshError { return nil }

var _ model.PrintFileProcessor = (*StubProcessor)(nil)
