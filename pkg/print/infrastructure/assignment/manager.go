// Package assignment binds printers to print jobs.
package assignment

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

const moduleName = "assignment"

// Manager keeps at most one job per printer and one printer per job.
type Manager struct {
	mu        sync.Mutex
	byPrinter map[string]uuid.UUID
	byJob     map[uuid.UUID]string
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		byPrinter: make(map[string]uuid.UUID),
		byJob:     make(map[uuid.UUID]string),
	}
}

// Assign binds printer to job and records it on the job.
func (m *Manager) Assign(job *model.PrintJob, printer model.Printer) error {
	if job == nil || printer == nil {
		return exception.IllegalStateError(moduleName, "job and printer are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if holder, ok := m.byPrinter[printer.Name()]; ok {
		if holder == job.ID() {
			return nil
		}
		return exception.NewPrintError(moduleName,
			fmt.Sprintf("printer '%s' is already assigned to job %s", printer.Name(), holder),
			exception.ErrAlreadyAssigned, nil)
	}
	if current, ok := m.byJob[job.ID()]; ok {
		return exception.NewPrintError(moduleName,
			fmt.Sprintf("job %s is already assigned to printer '%s'", job.ID(), current),
			exception.ErrAlreadyAssigned, nil)
	}

	m.byPrinter[printer.Name()] = job.ID()
	m.byJob[job.ID()] = printer.Name()
	job.SetPrinter(printer)
	return nil
}

// Release drops the binding held by job.
func (m *Manager) Release(job *model.PrintJob) {
	if job == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	name, ok := m.byJob[job.ID()]
	if !ok {
		return
	}
	delete(m.byJob, job.ID())
	if m.byPrinter[name] == job.ID() {
		delete(m.byPrinter, name)
	}
}

func (m *Manager) AssignedJob(printerName string) (uuid.UUID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPrinter[printerName]
	return id, ok
}

var _ port.PrinterAssignment = (*Manager)(nil)
