package decoder

import (
	"bytes"
	"context"
	"image"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/Skryldev/webtools/core"
)

// WebP decodes WebP images using golang.org/x/image/webp.
// NOTE: animated WebP is not supported; only the still image is read.
type WebP struct{}

func NewWebP() *WebP { return &WebP{} }

func (w *WebP) CanDecode(format core.Format) bool { return format == core.FormatWebP }

func (w *WebP) Decode(ctx context.Context, data []byte) (*core.ImageData, error) {
	return run(ctx, "webp.decode", core.FormatWebP, data,
		func(r *bytes.Reader) (image.Image, error) { return webp.Decode(r) },
		nil)
}

// BMP decodes Windows bitmaps using golang.org/x/image/bmp.
type BMP struct{}

func NewBMP() *BMP { return &BMP{} }

func (b *BMP) CanDecode(format core.Format) bool { return format == core.FormatBMP }

func (b *BMP) Decode(ctx context.Context, data []byte) (*core.ImageData, error) {
	return run(ctx, "bmp.decode", core.FormatBMP, data,
		func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
		nil)
}

// TIFF decodes TIFF images using golang.org/x/image/tiff.
type TIFF struct{}

func NewTIFF() *TIFF { return &TIFF{} }

func (t *TIFF) CanDecode(format core.Format) bool { return format == core.FormatTIFF }

func (t *TIFF) Decode(ctx context.Context, data []byte) (*core.ImageData, error) {
	return run(ctx, "tiff.decode", core.FormatTIFF, data,
		func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
		nil)
}
