// Package decoder provides pure-Go image decoders.
package decoder

import (
	"bytes"
	"context"
	"image"
	"image/color"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

// decodeFunc is the signature shared by the standard library and
// golang.org/x/image decoders.
type decodeFunc func(r *bytes.Reader) (image.Image, error)

// run decodes data with fn and wraps the result. classify turns a decoder
// error into one of the closed decode categories.
func run(ctx context.Context, op string, format core.Format, data []byte, fn decodeFunc, classify func(string, error) error) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, op, err)
	}
	if len(data) == 0 {
		return nil, apperrors.Corrupt(op, apperrors.ErrEmptyInput)
	}

	img, err := fn(bytes.NewReader(data))
	if err != nil {
		if classify == nil {
			return nil, apperrors.Corrupt(op, err)
		}
		return nil, classify(op, err)
	}

	bounds := img.Bounds()
	channels := channelCount(img)
	return &core.ImageData{
		Image:  img,
		Format: format,
		Meta: core.Metadata{
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
			Format:     format,
			ColorSpace: colorSpace(img),
			Channels:   channels,
			HasAlpha:   hasAlpha(img),
		},
	}, nil
}

// colorSpace returns the colour space of an image.Image.
func colorSpace(img image.Image) core.ColorSpace {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return core.ColorSpaceGray
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		if hasAlpha(img) {
			return core.ColorSpaceRGBA
		}
	case *image.CMYK:
		return core.ColorSpaceCMYK
	}
	return core.ColorSpaceRGB
}

// channelCount mirrors the band count libvips would report for the same
// source. The standard decoders return *image.RGBA for opaque truecolour
// input, so that type only counts an alpha band when it is actually used.
func channelCount(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.RGBA:
		if m.Opaque() {
			return 3
		}
		return 4
	case *image.RGBA64:
		if m.Opaque() {
			return 3
		}
		return 4
	case *image.NRGBA, *image.NRGBA64, *image.CMYK, *image.NYCbCrA:
		return 4
	case *image.Paletted:
		if paletteHasAlpha(m.Palette) {
			return 4
		}
	}
	return 3
}

func hasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.RGBA:
		return !m.Opaque()
	case *image.RGBA64:
		return !m.Opaque()
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return true
	case *image.Paletted:
		return paletteHasAlpha(m.Palette)
	}
	return false
}

func paletteHasAlpha(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a != 0xffff {
			return true
		}
	}
	return false
}

// Register adds every pure-Go decoder to reg.
func Register(reg core.Registry) {
	reg.RegisterDecoder(core.FormatJPEG, NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, NewPNG())
	reg.RegisterDecoder(core.FormatGIF, NewGIF())
	reg.RegisterDecoder(core.FormatWebP, NewWebP())
	reg.RegisterDecoder(core.FormatBMP, NewBMP())
	reg.RegisterDecoder(core.FormatTIFF, NewTIFF())
}
