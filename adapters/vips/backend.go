package vips

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality int
	MaxCacheSize   int
	MaxWorkers     int
	ReportLeaks    bool
	// Logger receives libvips log output at warning level and above.
	// Nil silences libvips.
	Logger core.Logger
}

// Backend is a unified libvips-powered Decoder, Resizer and Encoder.
// Safe for concurrent use across goroutines.
type Backend struct {
	cfg BackendConfig
}

var startOnce sync.Once

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.DefaultQuality <= 0 {
		cfg.DefaultQuality = core.DefaultQuality
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	startOnce.Do(func() {
		govips.LoggingSettings(logHandler(cfg.Logger), govips.LogLevelWarning)
		govips.Startup(&govips.Config{
			ConcurrencyLevel: cfg.MaxWorkers,
			MaxCacheSize:     cfg.MaxCacheSize,
			ReportLeaks:      cfg.ReportLeaks,
		})
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

func logHandler(l core.Logger) govips.LoggingHandlerFunction {
	return func(domain string, level govips.LogLevel, msg string) {
		if l == nil {
			return
		}
		switch level {
		case govips.LogLevelError, govips.LogLevelCritical:
			l.Error("libvips", "domain", domain, "message", msg)
		case govips.LogLevelWarning:
			l.Warn("libvips", "domain", domain, "message", msg)
		default:
			l.Debug("libvips", "domain", domain, "message", msg)
		}
	}
}

// ─── Decoder ──────────────────────────────────────────────────────────────────

// CanDecode accepts everything; libvips sniffs the buffer itself.
func (b *Backend) CanDecode(core.Format) bool { return true }

func (b *Backend) Decode(ctx context.Context, data []byte) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "vips.decode", err)
	}
	if len(data) == 0 {
		return nil, apperrors.Corrupt("vips.decode", apperrors.ErrEmptyInput)
	}

	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return nil, classifyLoadError("vips.decode", err)
	}
	runtime.SetFinalizer(ref, func(r *govips.ImageRef) { r.Close() })

	format := vipsFormatToCore(ref.Format())
	return &core.ImageData{
		Format: format,
		Image:  &VipsImage{ref: ref},
		Meta: core.Metadata{
			Width:      ref.Width(),
			Height:     ref.Height(),
			Format:     format,
			ColorSpace: vipsInterpretationToColorSpace(ref.Interpretation()),
			Channels:   ref.Bands(),
			HasAlpha:   ref.HasAlpha(),
		},
	}, nil
}

// unsupportedMarkers are the libvips messages emitted when no loader claims
// the buffer. Everything else a loader reports means it recognised the
// format and failed part way through.
var unsupportedMarkers = []string{
	"not in a known format",
	"unsupported image format",
	"is not a known",
	"no loader",
}

// classifyLoadError is the only place that looks at libvips message text; it
// turns it into the closed decode categories.
func classifyLoadError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	for _, m := range unsupportedMarkers {
		if strings.Contains(msg, m) {
			return apperrors.Unsupported(op, err)
		}
	}
	return apperrors.Corrupt(op, err)
}

// ─── Resizer ──────────────────────────────────────────────────────────────────

// Resize scales to exactly width x height with a Lanczos-3 kernel. It never
// enlarges.
func (b *Backend) Resize(ctx context.Context, img *core.ImageData, width, height int) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "vips.resize", err)
	}
	vi, ok := img.Image.(*VipsImage)
	if !ok || vi == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, "vips.resize",
			fmt.Errorf("expected *VipsImage; use vips backend for decode"))
	}
	if width <= 0 || height <= 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, "vips.resize", apperrors.ErrInvalidDimensions)
	}
	srcW, srcH := vi.ref.Width(), vi.ref.Height()
	if width >= srcW && height >= srcH {
		return img, nil
	}

	hScale := float64(width) / float64(srcW)
	vScale := float64(height) / float64(srcH)
	if err := vi.ref.ResizeWithVScale(hScale, vScale, govips.KernelLanczos3); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "vips.resize", err)
	}
	out := *img
	out.Meta.Width = vi.ref.Width()
	out.Meta.Height = vi.ref.Height()
	return &out, nil
}

// ─── Encoder ──────────────────────────────────────────────────────────────────

func (b *Backend) CanEncode(f core.Format) bool {
	switch f {
	case core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatAVIF:
		return true
	}
	return false
}

func (b *Backend) Encode(ctx context.Context, img *core.ImageData, params core.EncodeParams) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode", err)
	}

	vi, ok := img.Image.(*VipsImage)
	if !ok || vi == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, "vips.encode",
			fmt.Errorf("image must be decoded with the vips backend first"))
	}
	if params.Quality <= 0 {
		params.Quality = b.cfg.DefaultQuality
	}

	var (
		buf []byte
		err error
	)
	switch params.Format {
	case core.FormatWebP:
		buf, _, err = vi.ref.ExportWebp(webpParams(params))
	case core.FormatAVIF:
		buf, _, err = vi.ref.ExportAvif(avifParams(params))
	case core.FormatJPEG:
		buf, _, err = vi.ref.ExportJpeg(jpegParams(params))
	case core.FormatPNG:
		buf, _, err = vi.ref.ExportPng(pngParams(params))
	default:
		return nil, apperrors.New(apperrors.CategoryEncode, "vips.encode",
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, params.Format))
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "vips.encode."+string(params.Format), err)
	}
	return buf, nil
}

// webpParams maps the optimizer settings onto libvips webpsave.
// TODO: set smart_subsample once govips exposes it on WebpExportParams.
func webpParams(p core.EncodeParams) *govips.WebpExportParams {
	ep := govips.NewWebpExportParams()
	ep.Quality = p.Quality
	ep.ReductionEffort = p.Effort
	ep.StripMetadata = p.StripMetadata
	return ep
}

// avifParams maps onto heifsave. libvips picks 4:2:0 chroma for lossy AVIF
// below quality 90 and govips has no override.
func avifParams(p core.EncodeParams) *govips.AvifExportParams {
	ep := govips.NewAvifExportParams()
	ep.Quality = p.Quality
	ep.Effort = p.Effort
	ep.StripMetadata = p.StripMetadata
	return ep
}

func jpegParams(p core.EncodeParams) *govips.JpegExportParams {
	ep := govips.NewJpegExportParams()
	ep.Quality = p.Quality
	ep.Interlace = p.Progressive
	ep.OptimizeCoding = p.OptimizeCoding
	ep.OptimizeScans = p.OptimizeScans
	ep.QuantTable = p.QuantTable
	ep.StripMetadata = p.StripMetadata
	return ep
}

func pngParams(p core.EncodeParams) *govips.PngExportParams {
	ep := govips.NewPngExportParams()
	ep.Quality = p.Quality
	ep.Compression = p.CompressionLevel
	ep.Palette = p.Palette
	if p.AdaptiveFiltering {
		ep.Filter = govips.PngFilterAll
	} else {
		ep.Filter = govips.PngFilterNone
	}
	ep.StripMetadata = p.StripMetadata
	return ep
}

// ─── VipsImage ────────────────────────────────────────────────────────────────

// VipsImage wraps a *govips.ImageRef for storage in core.ImageData.Image.
type VipsImage struct {
	ref *govips.ImageRef
}

func (v *VipsImage) Width() int            { return v.ref.Width() }
func (v *VipsImage) Height() int           { return v.ref.Height() }
func (v *VipsImage) Ref() *govips.ImageRef { return v.ref }
func (v *VipsImage) Close()                { v.ref.Close() }

// ─── Register ─────────────────────────────────────────────────────────────────

// Register makes b the decoder for every format (including unknown ones),
// the resizer and the encoder for every output format.
func Register(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{
		core.FormatJPEG, core.FormatPNG, core.FormatWebP, core.FormatAVIF,
		core.FormatGIF, core.FormatBMP, core.FormatTIFF, core.FormatUnknown,
	} {
		reg.RegisterDecoder(f, b)
	}
	for _, f := range []core.Format{core.FormatWebP, core.FormatAVIF, core.FormatJPEG, core.FormatPNG} {
		reg.RegisterEncoder(f, b)
	}
	reg.SetResizer(b)
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func vipsFormatToCore(f govips.ImageType) core.Format {
	switch f {
	case govips.ImageTypeJPEG:
		return core.FormatJPEG
	case govips.ImageTypePNG:
		return core.FormatPNG
	case govips.ImageTypeWEBP:
		return core.FormatWebP
	case govips.ImageTypeAVIF:
		return core.FormatAVIF
	case govips.ImageTypeGIF:
		return core.FormatGIF
	case govips.ImageTypeBMP:
		return core.FormatBMP
	case govips.ImageTypeTIFF:
		return core.FormatTIFF
	default:
		return core.FormatUnknown
	}
}

func vipsInterpretationToColorSpace(i govips.Interpretation) core.ColorSpace {
	switch i {
	case govips.InterpretationSRGB, govips.InterpretationRGB16:
		return core.ColorSpaceRGB
	case govips.InterpretationBW:
		return core.ColorSpaceGray
	case govips.InterpretationCMYK:
		return core.ColorSpaceCMYK
	default:
		return core.ColorSpaceRGB
	}
}

// compile-time interface checks
var _ core.Decoder = (*Backend)(nil)
var _ core.Encoder = (*Backend)(nil)
var _ core.Resizer = (*Backend)(nil)
