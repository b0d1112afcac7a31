// Package webtools optimizes uploaded images for the web. It decodes an
// image, fits it inside the configured box and re-encodes it, reporting the
// size savings alongside the bytes.
package webtools

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Skryldev/webtools/adapters/decoder"
	"github.com/Skryldev/webtools/adapters/encoder"
	"github.com/Skryldev/webtools/adapters/resample"
	"github.com/Skryldev/webtools/config"
	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
	"github.com/Skryldev/webtools/hooks"
	"github.com/Skryldev/webtools/pipeline"
)

// Re-export Format constants for convenience.
const (
	Auto = core.FormatAuto
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
	WebP = core.FormatWebP
	AVIF = core.FormatAVIF
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Optimizer is the primary entry point. It is safe for concurrent use; each
// Optimize call is independent and shares no mutable state with others.
type Optimizer struct {
	cfg    config.Config
	reg    *core.DefaultRegistry
	policy core.SizePolicy

	mu      sync.RWMutex
	hooks   []core.Hook
	logger  core.Logger
	metrics core.MetricsCollector

	processed int64
	failed    int64
}

// New creates an Optimizer with the pure-Go codecs registered: JPEG, PNG,
// GIF, WebP, BMP and TIFF in; JPEG and PNG out. Register a libvips backend on
// Registry() to add WebP and AVIF output.
func New(cfg config.Config) *Optimizer {
	reg := core.NewRegistry()
	decoder.Register(reg)
	encoder.Register(reg, cfg.Optimize.DefaultQuality)
	reg.SetResizer(resample.NewLanczos())

	return &Optimizer{
		cfg: cfg,
		reg: reg,
		policy: core.SizePolicy{
			ThumbnailMax: cfg.Optimize.ThumbnailMax,
			MaxWidth:     cfg.Optimize.MaxWidth,
			MaxHeight:    cfg.Optimize.MaxHeight,
		},
	}
}

// Registry returns the codec registry so callers can swap in other backends.
func (o *Optimizer) Registry() *core.DefaultRegistry { return o.reg }

// Config returns the configuration the optimizer was built with.
func (o *Optimizer) Config() config.Config { return o.cfg }

// SetLogger attaches a structured logger and a step-level logging hook.
func (o *Optimizer) SetLogger(l core.Logger) {
	o.mu.Lock()
	o.logger = l
	o.hooks = append(o.hooks, hooks.NewLoggingHook(l))
	o.mu.Unlock()
}

// SetMetrics attaches a metrics collector and the hook that feeds it.
func (o *Optimizer) SetMetrics(m core.MetricsCollector) {
	o.mu.Lock()
	o.metrics = m
	o.hooks = append(o.hooks, hooks.NewMetricsHook(m))
	o.mu.Unlock()
}

// AddHook registers an observer for pipeline step events.
func (o *Optimizer) AddHook(h core.Hook) {
	o.mu.Lock()
	o.hooks = append(o.hooks, h)
	o.mu.Unlock()
}

// Formats lists the output formats the registered encoders can produce.
func (o *Optimizer) Formats() []core.Format { return o.reg.EncodableFormats() }

// Stats returns lightweight processing statistics.
func (o *Optimizer) Stats() (processed, failed int64) {
	return atomic.LoadInt64(&o.processed), atomic.LoadInt64(&o.failed)
}

// Optimize validates req, then decodes, fits and encodes it. Either the full
// encoded image is returned or an error; there is no partial output.
func (o *Optimizer) Optimize(ctx context.Context, req core.OptimizationRequest) (*core.OptimizationResult, error) {
	if limit := o.cfg.Limits.MaxUploadBytes; limit > 0 && int64(len(req.Data)) > limit {
		return nil, apperrors.New(apperrors.CategoryInput, "optimize", apperrors.ErrPayloadTooLarge)
	}
	if !core.IsImageContentType(req.ContentType) {
		return nil, apperrors.New(apperrors.CategoryInput, "optimize",
			fmt.Errorf("%w: %q", apperrors.ErrInvalidFileType, req.ContentType))
	}

	format := core.ResolveFormat(string(req.TargetFormat))
	quality := req.Quality
	if quality <= 0 {
		quality = o.cfg.Optimize.DefaultQuality
	}
	quality = core.ClampQuality(quality)

	if timeout := o.cfg.Server.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	o.mu.RLock()
	stepHooks := append([]core.Hook(nil), o.hooks...)
	logger, metrics := o.logger, o.metrics
	o.mu.RUnlock()

	p := pipeline.New().AddHook(stepHooks...).Use(
		&pipeline.DecodeStep{Registry: o.reg},
		&pipeline.FitStep{Registry: o.reg, Policy: o.policy},
		&pipeline.EncodeStep{Registry: o.reg, Format: format, Quality: quality},
	)

	start := time.Now()
	out, timings, err := p.Run(ctx, &core.ImageData{
		Data:         req.Data,
		ContentType:  req.ContentType,
		OriginalSize: int64(len(req.Data)),
	})
	if metrics != nil {
		metrics.RecordThroughput("in", int64(len(req.Data)))
	}
	if err != nil {
		atomic.AddInt64(&o.failed, 1)
		if metrics != nil {
			metrics.RecordResult(format, "error")
		}
		return nil, err
	}
	atomic.AddInt64(&o.processed, 1)

	originalSize := int64(len(req.Data))
	optimizedSize := int64(len(out.Data))
	result := &core.OptimizationResult{
		Data:             out.Data,
		MimeType:         format.MimeType(),
		Format:           format,
		OriginalFormat:   core.OriginalFormat(req.ContentType),
		OriginalSize:     originalSize,
		OptimizedSize:    optimizedSize,
		ReductionPercent: core.ReductionPercent(originalSize, optimizedSize),
		CompressionRatio: core.CompressionRatio(originalSize, optimizedSize),
		Filename:         core.OutputFilename(req.Filename, format),
		Width:            out.Meta.Width,
		Height:           out.Meta.Height,
		ProcessingTime:   time.Since(start),
		StepTimings:      timings,
	}

	if metrics != nil {
		metrics.RecordThroughput("out", optimizedSize)
		metrics.RecordResult(format, "ok")
	}
	if logger != nil {
		logger.Debug("optimize.done",
			"format", format,
			"original_size", originalSize,
			"optimized_size", optimizedSize,
			"reduction", result.ReductionPercent,
			"duration_ms", result.ProcessingTime.Milliseconds(),
		)
	}
	return result, nil
}

// Batch optimizes several requests concurrently, at most
// Optimize.BatchConcurrency at a time. Results and errors are index-aligned
// with reqs; one failure does not stop the others.
func (o *Optimizer) Batch(ctx context.Context, reqs []core.OptimizationRequest) ([]*core.OptimizationResult, []error) {
	results := make([]*core.OptimizationResult, len(reqs))
	errs := make([]error, len(reqs))

	limit := o.cfg.Optimize.BatchConcurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			results[i], errs[i] = o.Optimize(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}
