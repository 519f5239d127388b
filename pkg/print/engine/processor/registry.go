package processor

import (
	"fmt"
	"path/filepath"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

// Registry picks the processor for a file among the registered ones, in registration order.
type Registry struct {
	processors []model.PrintFileProcessor
}

// NewRegistry creates a Registry.
func NewRegistry(processors ...model.PrintFileProcessor) *Registry {
	return &Registry{processors: processors}
}

// ProcessorFor returns the first processor accepting path.
func (r *Registry) ProcessorFor(path string) (model.PrintFileProcessor, error) {
	for _, p := range r.processors {
		if p.AcceptsFile(path) {
			return p, nil
		}
	}
	return nil, exception.JobCreationError(moduleName,
		fmt.Sprintf("no processor accepts '%s'", filepath.Base(path)), nil)
}

// Inert wraps p in a StubProcessor.
func (r *Registry) Inert(p model.PrintFileProcessor) model.PrintFileProcessor {
	return NewStubProcessor(p)
}

var _ port.ProcessorFactory = (*Registry)(nil)
