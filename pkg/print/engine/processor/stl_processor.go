// Package processor turns STL files into exposed layers.
package processor

import (
	"context"
	"fmt"
	"image"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/layercure/pkg/print/core/application/port"
	"github.com/tigerroll/layercure/pkg/print/core/domain/model"
	"github.com/tigerroll/layercure/pkg/print/core/geometry"
	"github.com/tigerroll/layercure/pkg/print/core/metrics"
	"github.com/tigerroll/layercure/pkg/print/core/render"
	"github.com/tigerroll/layercure/pkg/print/core/workerpool"
	"github.com/tigerroll/layercure/pkg/print/support/util/exception"
	"github.com/tigerroll/layercure/pkg/print/support/util/logger"
)

const (
	moduleName = "stl_processor"
	mendMode   = "close-off"
)

// Params are the collaborators of an STLFileProcessor.
type Params struct {
	SlicerFactory port.SlicerFactory
	Lifecycle     port.PrintLifecycle
	Printers      port.PrinterLocator
	Pool          *workerpool.Pool
	Recorder      metrics.MetricRecorder
	Tracer        metrics.Tracer
	Correction    geometry.CorrectionMode
}

// STLFileProcessor drives the render/print loop for STL files. Each job being processed
// owns one RenderingSession, registered for as long as ProcessFile runs.
type STLFileProcessor struct {
	p Params

	mu       sync.RWMutex
	sessions map[uuid.UUID]*render.RenderingSession
}

// NewSTLFileProcessor creates an STLFileProcessor. Nil Recorder and Tracer fall back to no-ops.
func NewSTLFileProcessor(p Params) *STLFileProcessor {
	if p.Recorder == nil {
		p.Recorder = metrics.NewNoOpMetricRecorder()
	}
	if p.Tracer == nil {
		p.Tracer = metrics.NewNoOpTracer()
	}
	return &STLFileProcessor{p: p, sessions: make(map[uuid.UUID]*render.RenderingSession)}
}

func (s *STLFileProcessor) FileExtensions() []string {
	return []string{"stl"}
}

func (s *STLFileProcessor) AcceptsFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(filepath.Base(path)), "stl")
}

func (s *STLFileProcessor) FriendlyName() string {
	return "STL 3D Model"
}

func (s *STLFileProcessor) session(job *model.PrintJob) (*render.RenderingSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rs, ok := s.sessions[job.ID()]
	return rs, ok
}

func (s *STLFileProcessor) register(job *model.PrintJob, rs *render.RenderingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[job.ID()] = rs
}

func (s *STLFileProcessor) deregister(job *model.PrintJob) {
	s.mu.Lock()
	rs, ok := s.sessions[job.ID()]
	delete(s.sessions, job.ID())
	s.mu.Unlock()
	if ok {
		rs.Close()
	}
}

// ProcessFile prints job. The layer after the one being exposed is always rendering, so
// rasterization of layer N+1 overlaps the exposure of layer N.
func (s *STLFileProcessor) ProcessFile(ctx context.Context, job *model.PrintJob) (model.JobStatus, error) {
	env, err := s.prepareEnv(job)
	if err != nil {
		return model.JobStatusFailed, exception.SliceHandlingError(moduleName, err)
	}
	rs, err := s.newSession(env, s.p.Pool)
	if err != nil {
		return model.JobStatusFailed, exception.SliceHandlingError(moduleName, err)
	}
	s.register(job, rs)
	defer s.deregister(job)

	job.SetTotalSlices(rs.TotalSlices())
	order := rs.ScanOrder()
	if len(order) > 0 {
		if _, err := rs.Launch(order[0]); err != nil {
			return model.JobStatusFailed, err
		}
	}

	if err := s.p.Lifecycle.Header(ctx, env); err != nil {
		return model.JobStatusFailed, err
	}

	for i, index := range order {
		if !env.Printer.IsPrintActive() {
			break
		}
		status, stop, err := s.p.Lifecycle.PreSlice(ctx, env, rs.Errors())
		if err != nil {
			return model.JobStatusFailed, err
		}
		if stop {
			return status, nil
		}

		status, stop, err = s.exposeLayer(ctx, env, rs, order, i, index)
		if err != nil {
			return model.JobStatusFailed, err
		}
		if stop {
			return status, nil
		}
	}

	return s.p.Lifecycle.Footer(ctx, env)
}

func (s *STLFileProcessor) exposeLayer(ctx context.Context, env *port.JobEnv, rs *render.RenderingSession, order []int, i, index int) (model.JobStatus, bool, error) {
	layerCtx, end := s.p.Tracer.StartLayerSpan(ctx, env.Job, index)
	defer end()

	waitStart := time.Now()
	layer, err := rs.Await(ctx)
	if err != nil {
		s.p.Tracer.RecordError(layerCtx, moduleName, err)
		return model.JobStatusFailed, true, err
	}
	wait := time.Since(waitStart)
	logger.Debugf("Job %s: layer %d rendered in %s, waited %s.", env.Job.ID(), index, layer.Duration, wait)
	s.p.Recorder.RecordLayerRendered(layerCtx, env.Printer.Name(), layer.Duration)
	s.p.Recorder.RecordDuration(layerCtx, "render_wait", wait, map[string]string{"printer": env.Printer.Name()})

	rs.Present(layer)
	if i+1 < len(order) {
		if _, err := rs.Launch(order[i+1]); err != nil {
			return model.JobStatusFailed, true, err
		}
	}

	status, stop, err := s.p.Lifecycle.PostSlice(layerCtx, env, layer.Image)
	if err != nil {
		s.p.Tracer.RecordError(layerCtx, moduleName, err)
	}
	return status, stop, err
}

func (s *STLFileProcessor) prepareEnv(job *model.PrintJob) (*port.JobEnv, error) {
	printer := job.Printer()
	if printer == nil {
		return nil, exception.IllegalStateError(moduleName, fmt.Sprintf("job %s has no printer", job.ID()))
	}
	profile := printer.SlicingProfile()
	if profile.DotsPerMMX <= 0 || profile.DotsPerMMY <= 0 {
		return nil, exception.GeometryError(moduleName,
			fmt.Sprintf("printer '%s' has no dots-per-mm calibration", printer.Name()), nil)
	}
	return &port.JobEnv{
		Job:          job,
		Printer:      printer,
		Profile:      profile,
		Customizer:   job.Customizer(),
		XResolution:  profile.XResolution,
		YResolution:  profile.YResolution,
		XPixelsPerMM: profile.DotsPerMMX,
		YPixelsPerMM: profile.DotsPerMMY,
		SliceHeight:  profile.LayerHeightMM,
	}, nil
}

func (s *STLFileProcessor) newSession(env *port.JobEnv, pool *workerpool.Pool) (*render.RenderingSession, error) {
	slicer, err := s.p.SlicerFactory.NewSlicer(port.SlicerParams{
		PixelsPerMMX:    env.XPixelsPerMM,
		PixelsPerMMY:    env.YPixelsPerMM,
		LayerHeight:     env.SliceHeight,
		HalfLayerOffset: env.SliceHeight / 2,
		Watertight:      true,
		OverrideNormals: env.Profile.OverrideModelNormals,
		Mend:            mendMode,
	})
	if err != nil {
		return nil, err
	}

	f, err := os.Open(env.Job.JobFile())
	if err != nil {
		return nil, exception.GeometryError(moduleName, "cannot open print file", err)
	}
	defer f.Close()
	if err := slicer.LoadFile(f, float64(env.XResolution), float64(env.YResolution)); err != nil {
		return nil, err
	}

	return render.NewRenderingSession(render.SessionParams{
		Slicer:     slicer,
		Width:      env.XResolution,
		Height:     env.YResolution,
		Transform:  env.Customizer.ActiveTransform(),
		Correction: s.p.Correction,
		Direction:  env.Profile.Direction,
		Pool:       pool,
	})
}

// CurrentImage returns a copy of the layer currently shown for job, or nil.
func (s *STLFileProcessor) CurrentImage(job *model.PrintJob) image.Image {
	rs, ok := s.session(job)
	if !ok {
		return nil
	}
	if img := rs.Buffer().Snapshot(); img != nil {
		return img
	}
	return nil
}

// BuildAreaMM converts the lit pixel count of the current layer to square millimetres.
func (s *STLFileProcessor) BuildAreaMM(job *model.PrintJob) (float64, bool) {
	rs, ok := s.session(job)
	if !ok {
		return 0, false
	}
	printer := job.Printer()
	if printer == nil {
		return 0, false
	}
	profile := printer.SlicingProfile()
	return rs.CurrentArea() / (profile.DotsPerMMX * profile.DotsPerMMY), true
}

// Geometry returns the mesh triangles of job. The sequence can be ranged over once and
// becomes invalid when processing ends.
func (s *STLFileProcessor) Geometry(job *model.PrintJob) (iter.Seq[*model.Triangle], bool) {
	rs, ok := s.session(job)
	if !ok {
		return nil, false
	}
	next := rs.Slicer().FirstTriangle()
	var mu sync.Mutex
	return func(yield func(*model.Triangle) bool) {
		mu.Lock()
		defer mu.Unlock()
		for next != nil {
			t := next
			next = t.Next()
			if !yield(t) {
				return
			}
		}
	}, true
}

// Errors returns the mesh errors of job, or nil when it is not being processed.
func (s *STLFileProcessor) Errors(job *model.PrintJob) []model.MeshError {
	rs, ok := s.session(job)
	if !ok {
		return nil
	}
	return rs.Errors()
}

var _ model.PrintFileProcessor = (*STLFileProcessor)(nil)
