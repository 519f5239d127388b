package processor

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/geometry"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

// PreviewSlice renders the first layer of file with the customizer's transform.
// The untransformed layer is cached on the customizer the first time it is rendered
// with an identity transform; later previews of the same file only remap the cache.
// project shows the result on the printer, otherwise the printer shows a blank frame.
func (s *STLFileProcessor) PreviewSlice(ctx context.Context, customizer *model.Customizer, file string, project bool) (image.Image, error) {
	if customizer == nil {
		return nil, exception.IllegalStateError(moduleName, "slice preview needs a customizer")
	}
	printer, err := s.previewPrinter(customizer)
	if err != nil {
		return nil, err
	}

	job := model.NewPrintJob(file)
	job.SetPrinter(printer)
	job.SetCustomizer(customizer)

	env, err := s.prepareEnv(job)
	if err != nil {
		return nil, exception.SliceHandlingError(moduleName, err)
	}
	key, err := previewCacheKey(file, env.Profile)
	if err != nil {
		return nil, exception.SliceHandlingError(moduleName, exception.GeometryError(moduleName, "cannot stat print file", err))
	}

	var img *image.Gray
	if orig, ok := customizer.OriginalSlice(key); ok {
		img = geometry.Apply(orig, customizer.ActiveTransform(), s.p.Correction)
		s.p.Recorder.RecordPreview(ctx, true)
	} else {
		customizer.InvalidateOriginalSlice()
		if img, err = s.renderFirstLayer(env); err != nil {
			return nil, err
		}
		if customizer.ActiveTransform().IsIdentity() {
			customizer.SetOriginalSlice(key, geometry.ToGray(img))
		}
		s.p.Recorder.RecordPreview(ctx, false)
	}

	if project {
		err = printer.ShowImage(img)
	} else {
		err = printer.ShowBlankImage()
	}
	if err != nil {
		logger.Warnf("Preview of '%s' could not be shown on '%s': %v", filepath.Base(file), printer.Name(), err)
	}
	return img, nil
}

func (s *STLFileProcessor) previewPrinter(customizer *model.Customizer) (model.Printer, error) {
	if customizer.PrinterName == "" {
		p, err := s.p.Printers.FirstAvailable()
		if err != nil {
			return nil, exception.NoPrinterAvailableError(moduleName,
				"no printers found for slice preview; start a printer or name one in the customizer", err)
		}
		return p, nil
	}
	p, err := s.p.Printers.Printer(customizer.PrinterName)
	if err != nil {
		logger.Warnf("Could not locate printer '%s': %v", customizer.PrinterName, err)
		return nil, exception.NoPrinterAvailableError(moduleName,
			fmt.Sprintf("printer '%s' named by customizer '%s' is not available", customizer.PrinterName, customizer.Name), err)
	}
	return p, nil
}

// renderFirstLayer rasterizes the lowest layer synchronously on a transient session.
func (s *STLFileProcessor) renderFirstLayer(env *port.JobEnv) (*image.Gray, error) {
	rs, err := s.newSession(env, nil)
	if err != nil {
		return nil, exception.SliceHandlingError(moduleName, err)
	}
	defer rs.Close()

	env.Job.SetTotalSlices(rs.TotalSlices())
	layer, err := rs.RenderNow(rs.Slicer().MinIndex())
	if err != nil {
		return nil, err
	}
	return geometry.ToGray(layer.Image), nil
}

// previewCacheKey identifies the file content and the slicing parameters a cached layer was rendered with.
func previewCacheKey(file string, p model.SlicingProfile) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|%d|%d|%g|%g|%g|%dx%d|%t", abs, info.Size(), info.ModTime().UnixNano(),
		p.DotsPerMMX, p.DotsPerMMY, p.LayerHeightMM, p.XResolution, p.YResolution, p.OverrideModelNormals), nil
}
