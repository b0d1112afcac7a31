// Package resample resizes decoded pure-Go images.
package resample

import (
	"context"
	"image"

	"github.com/disintegration/imaging"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

// Lanczos resizes image.Image values with a Lanczos-3 kernel.
type Lanczos struct {
	Filter imaging.ResampleFilter
}

// NewLanczos returns a resizer using imaging.Lanczos.
func NewLanczos() *Lanczos { return &Lanczos{Filter: imaging.Lanczos} }

func (l *Lanczos) Resize(ctx context.Context, img *core.ImageData, width, height int) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, "lanczos.resize", err)
	}
	src, ok := img.Image.(image.Image)
	if !ok || src == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, "lanczos.resize", apperrors.ErrEmptyInput)
	}
	if width <= 0 || height <= 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, "lanczos.resize", apperrors.ErrInvalidDimensions)
	}

	b := src.Bounds()
	if width >= b.Dx() && height >= b.Dy() {
		return img, nil // never enlarge
	}

	// imaging always returns *image.NRGBA, so alpha survives the resize.
	dst := imaging.Resize(src, width, height, l.Filter)

	out := *img
	out.Image = dst
	out.Meta.Width = width
	out.Meta.Height = height
	return &out, nil
}

var _ core.Resizer = (*Lanczos)(nil)
