package core

import (
	"context"
	"time"
)

// Format identifies an image codec.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatAVIF    Format = "avif"
	FormatGIF     Format = "gif"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatUnknown Format = "unknown"
)

// Extension returns the file extension used for downloads of this format.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// MimeType returns the Content-Type served for this format.
func (f Format) MimeType() string { return "image/" + string(f) }

// ColorSpace represents the image colour model.
type ColorSpace string

const (
	ColorSpaceRGB  ColorSpace = "rgb"
	ColorSpaceRGBA ColorSpace = "rgba"
	ColorSpaceCMYK ColorSpace = "cmyk"
	ColorSpaceGray ColorSpace = "gray"
)

// Metadata holds probed image information.
type Metadata struct {
	Width      int
	Height     int
	Format     Format
	ColorSpace ColorSpace
	Channels   int // bands in the decoded image, 4 for RGBA
	HasAlpha   bool
	SizeBytes  int64
}

// Dimensions is a target width and height in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// ImageData is the in-memory representation passed through a pipeline.
type ImageData struct {
	// Encoded bytes. Raw input until EncodeStep replaces them.
	Data   []byte
	Format Format

	// Decoded pixel buffer. The concrete type depends on the backend:
	// image.Image for the pure-Go codecs, *vips.VipsImage for libvips.
	Image interface{}

	Meta Metadata

	// Declared MIME type of the upload; used as a decode hint when sniffing
	// fails.
	ContentType string

	OriginalSize int64
}

// EncodeParams carries every encoder knob the optimizer sets. Backends
// ignore fields that do not apply to the target format.
type EncodeParams struct {
	Format  Format
	Quality int // 1-100

	// webp / avif
	Effort            int
	SmartSubsample    bool
	ChromaSubsampling string // e.g. "4:2:0"

	// jpeg
	Progressive    bool
	OptimizeCoding bool
	OptimizeScans  bool
	QuantTable     int

	// png
	CompressionLevel  int // 0-9
	AdaptiveFiltering bool
	Palette           bool

	StripMetadata bool
}

// OptimizationRequest is one upload to optimize.
type OptimizationRequest struct {
	Data         []byte
	ContentType  string
	Filename     string
	TargetFormat Format
	Quality      int
}

// OptimizationResult describes the transcoded image returned to the caller.
type OptimizationResult struct {
	Data             []byte
	MimeType         string
	Format           Format
	OriginalFormat   string
	OriginalSize     int64
	OptimizedSize    int64
	ReductionPercent int
	CompressionRatio string
	Filename         string
	Width            int
	Height           int
	ProcessingTime   time.Duration
	StepTimings      map[string]time.Duration
}

// Step is the fundamental pipeline building block.  Each Step transforms an
// *ImageData value and must be safe for concurrent use across goroutines.
type Step interface {
	Name() string
	Execute(ctx context.Context, img *ImageData) (*ImageData, error)
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *ImageData)
	AfterStep(ctx context.Context, stepName string, img *ImageData, d time.Duration, err error)
}

// StorageKey uniquely identifies a stored file.
type StorageKey struct {
	Bucket string
	Path   string
}
