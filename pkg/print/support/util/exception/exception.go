// Package exception provides the error types shared by the print host.
// Every error raised by job setup, rendering or preview is a *PrintError whose chain
// carries one of the category sentinels below, so callers classify failures with errors.Is.
package exception

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

// Category sentinels.
var (
	// ErrJobCreation covers a missing or non-regular job file and a duplicate job registration.
	ErrJobCreation = errors.New("JobCreationError")
	// ErrPrinterBusy is returned when the printer is already bound to another job.
	ErrPrinterBusy = errors.New("PrinterBusyError")
	// ErrAlreadyAssigned is raised by the printer assignment collaborator.
	ErrAlreadyAssigned = errors.New("AlreadyAssignedError")
	// ErrNoPrinterAvailable is returned by preview when no usable printer exists.
	ErrNoPrinterAvailable = errors.New("NoPrinterAvailableError")
	// ErrGeometry marks malformed mesh data or missing calibration.
	ErrGeometry = errors.New("GeometryError")
	// ErrSliceHandling wraps every geometry failure before it reaches a preview or processing caller.
	ErrSliceHandling = errors.New("SliceHandlingError")
	// ErrIllegalState is returned when an operation conflicts with an active print.
	ErrIllegalState = errors.New("IllegalStateError")
	// ErrPipelineFailure marks an uncaught failure inside the render/print loop.
	ErrPipelineFailure = errors.New("PipelineFailure")
)

// errorRegistry maps configuration-facing names to sentinel errors.
var errorRegistry = make(map[string]error)

var registryMutex sync.RWMutex

// RegisterErrorType registers a sentinel under a name so IsErrorOfType can resolve it.
// It panics if name is empty or prototype is nil.
func RegisterErrorType(name string, prototype error) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if name == "" {
		panic("Error type name cannot be empty")
	}
	if prototype == nil {
		panic(fmt.Sprintf("Cannot register nil prototype for name: %s", name))
	}
	errorRegistry[name] = prototype
}

// IsErrorTypeRegistered reports whether name is present in the registry.
func IsErrorTypeRegistered(name string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := errorRegistry[name]
	return ok
}

// PrintError is the error type raised by the print host.
// It records the module where the error occurred, a short message and the wrapped cause.
type PrintError struct {
	// Module is the component that raised the error (e.g. "job_manager", "stl_processor").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped cause. Category sentinels are joined into it.
	OriginalErr error
	// StackTrace is captured at construction for diagnostics.
	StackTrace string
}

// NewPrintError creates a PrintError. category may be nil; when set it is joined with
// originalErr so both are reachable through errors.Is.
func NewPrintError(module, message string, category, originalErr error) *PrintError {
	return &PrintError{
		Module:      module,
		Message:     message,
		OriginalErr: join(category, originalErr),
		StackTrace:  captureStack(),
	}
}

// NewPrintErrorf creates a PrintError with a formatted message.
// If the last argument is an error it becomes the wrapped cause and is not used for formatting.
func NewPrintErrorf(module string, category error, format string, a ...interface{}) *PrintError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return &PrintError{
		Module:      module,
		Message:     fmt.Sprintf(format, args...),
		OriginalErr: join(category, originalErr),
		StackTrace:  captureStack(),
	}
}

func join(category, cause error) error {
	switch {
	case category == nil:
		return cause
	case cause == nil:
		return category
	default:
		return errors.Join(category, cause)
	}
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Error implements the error interface.
func (e *PrintError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, flatten(e.OriginalErr))
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// flatten renders errors.Join output on a single line.
func flatten(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", ": ")
}

// Unwrap returns the wrapped cause for errors.Is / errors.As.
func (e *PrintError) Unwrap() error {
	return e.OriginalErr
}

// JobCreationError builds an ErrJobCreation error.
func JobCreationError(module, message string, cause error) *PrintError {
	return NewPrintError(module, message, ErrJobCreation, cause)
}

// PrinterBusyError builds an ErrPrinterBusy error.
func PrinterBusyError(module, printerName string, cause error) *PrintError {
	return NewPrintErrorf(module, ErrPrinterBusy, "printer '%s' is already assigned to another job", printerName, cause)
}

// NoPrinterAvailableError builds an ErrNoPrinterAvailable error.
func NoPrinterAvailableError(module, message string, cause error) *PrintError {
	return NewPrintError(module, message, ErrNoPrinterAvailable, cause)
}

// GeometryError builds an ErrGeometry error.
func GeometryError(module, message string, cause error) *PrintError {
	return NewPrintError(module, message, ErrGeometry, cause)
}

// SliceHandlingError wraps cause into the ErrSliceHandling category, keeping cause in the chain.
// An error that is already a slice handling error is returned unchanged.
func SliceHandlingError(module string, cause error) error {
	if cause == nil || errors.Is(cause, ErrSliceHandling) {
		return cause
	}
	return NewPrintError(module, "slice handling failed", ErrSliceHandling, cause)
}

// IllegalStateError builds an ErrIllegalState error.
func IllegalStateError(module, message string) *PrintError {
	return NewPrintError(module, message, ErrIllegalState, nil)
}

// PipelineFailure builds an ErrPipelineFailure error.
func PipelineFailure(module, message string, cause error) *PrintError {
	return NewPrintError(module, message, ErrPipelineFailure, cause)
}

// IsPrintError reports whether err is a *PrintError.
func IsPrintError(err error) bool {
	var pe *PrintError
	return errors.As(err, &pe)
}

// IsErrorOfType checks whether err matches a registered name, a substring of a message
// in its chain, or a type name in its chain.
func IsErrorOfType(err error, errorTypeName string) bool {
	if err == nil {
		return false
	}

	registryMutex.RLock()
	target, ok := errorRegistry[errorTypeName]
	registryMutex.RUnlock()
	if ok && errors.Is(err, target) {
		return true
	}

	current := err
	for current != nil {
		if strings.Contains(current.Error(), errorTypeName) {
			return true
		}
		errType := reflect.TypeOf(current)
		if errType.String() == errorTypeName || (errType.Kind() == reflect.Ptr && errType.Elem().String() == errorTypeName) {
			return true
		}
		current = errors.Unwrap(current)
	}
	return false
}

// ExtractErrorMessage returns the Message of a PrintError, otherwise err.Error().
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *PrintError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}

func init() {
	RegisterErrorType("JobCreationError", ErrJobCreation)
	RegisterErrorType("PrinterBusyError", ErrPrinterBusy)
	RegisterErrorType("AlreadyAssignedError", ErrAlreadyAssigned)
	RegisterErrorType("NoPrinterAvailableError", ErrNoPrinterAvailable)
	RegisterErrorType("GeometryError", ErrGeometry)
	RegisterErrorType("SliceHandlingError", ErrSliceHandling)
	RegisterErrorType("IllegalStateError", ErrIllegalState)
	RegisterErrorType("PipelineFailure", ErrPipelineFailure)

	RegisterErrorType("context.DeadlineExceeded", context.DeadlineExceeded)
	RegisterErrorType("context.Canceled", context.Canceled)
	RegisterErrorType("fs.ErrNotExist", fs.ErrNotExist)
}
