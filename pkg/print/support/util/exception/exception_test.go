package exception_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
)

type meshFault struct {
	Index int
}

func (e *meshFault) Error() string {
	return fmt.Sprintf("mesh fault at %d", e.Index)
}

func TestNewPrintError(t *testing.T) {
	cause := errors.New("file gone")
	pe := exception.NewPrintError("job_manager", "cannot create job", exception.ErrJobCreation, cause)

	assert.Equal(t, "job_manager", pe.Module)
	assert.Equal(t, "cannot create job", pe.Message)
	assert.ErrorIs(t, pe, exception.ErrJobCreation)
	assert.ErrorIs(t, pe, cause)
	assert.Contains(t, pe.Error(), "[job_manager] cannot create job")
	assert.NotContains(t, pe.Error(), "\n")
	assert.NotEmpty(t, pe.StackTrace)
}

func TestNewPrintErrorf_TrailingErrorIsCause(t *testing.T) {
	cause := &meshFault{Index: 5}
	pe := exception.NewPrintErrorf("stl_processor", exception.ErrGeometry, "layer %d failed", 5, cause)

	assert.Equal(t, "layer 5 failed", pe.Message)
	var mf *meshFault
	require.ErrorAs(t, pe, &mf)
	assert.Equal(t, 5, mf.Index)
	assert.ErrorIs(t, pe, exception.ErrGeometry)
}

func TestSliceHandlingError_PreservesGeometryCause(t *testing.T) {
	geometry := exception.GeometryError("slicer", "impossible buffer size", errors.New("negative size"))
	wrapped := exception.SliceHandlingError("stl_processor", geometry)

	assert.ErrorIs(t, wrapped, exception.ErrSliceHandling)
	assert.ErrorIs(t, wrapped, exception.ErrGeometry)

	// Wrapping twice does not nest another category layer.
	again := exception.SliceHandlingError("stl_processor", wrapped)
	assert.Same(t, wrapped, again)

	assert.Nil(t, exception.SliceHandlingError("stl_processor", nil))
}

func TestIsErrorOfType(t *testing.T) {
	busy := exception.PrinterBusyError("job_manager", "alpha", exception.ErrAlreadyAssigned)

	assert.True(t, exception.IsErrorOfType(busy, "PrinterBusyError"))
	assert.True(t, exception.IsErrorOfType(busy, "AlreadyAssignedError"))
	assert.True(t, exception.IsErrorOfType(busy, "exception.PrintError"))
	assert.True(t, exception.IsErrorOfType(busy, "alpha"))
	assert.False(t, exception.IsErrorOfType(busy, "GeometryError"))
	assert.False(t, exception.IsErrorOfType(nil, "PrinterBusyError"))

	notExist := exception.JobCreationError("job_manager", "missing", fs.ErrNotExist)
	assert.True(t, exception.IsErrorOfType(notExist, "fs.ErrNotExist"))
}

func TestRegisterErrorType_Panics(t *testing.T) {
	assert.Panics(t, func() { exception.RegisterErrorType("", errors.New("x")) })
	assert.Panics(t, func() { exception.RegisterErrorType("x", nil) })

	exception.RegisterErrorType("customFault", errors.New("custom"))
	assert.True(t, exception.IsErrorTypeRegistered("customFault"))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.Equal(t, "plain", exception.ExtractErrorMessage(errors.New("plain")))

	pe := exception.IllegalStateError("job_manager", "job is printing")
	wrapped := fmt.Errorf("outer: %w", pe)
	assert.Equal(t, "job is printing", exception.ExtractErrorMessage(wrapped))
	assert.True(t, exception.IsPrintError(wrapped))
}
