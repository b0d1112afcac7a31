package encoder

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

// PNG encodes images to PNG format.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanEncode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Encode(ctx context.Context, img *core.ImageData, params core.EncodeParams) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}

	src, ok := img.Image.(image.Image)
	if !ok || src == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, "png.encode", apperrors.ErrEmptyInput)
	}

	// The encoder already picks a filter per row, which is what adaptive
	// filtering asks for.
	enc := &png.Encoder{CompressionLevel: compressionLevel(params.CompressionLevel)}

	out := src
	if params.Palette {
		if pal, ok := toPaletted(src); ok {
			out = pal
		}
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, out); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "png.encode", err)
	}
	return buf.Bytes(), nil
}

func compressionLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level >= 9:
		return png.BestCompression
	case level <= 3:
		return png.BestSpeed
	}
	return png.DefaultCompression
}

// toPaletted converts src to an 8-bit palette image when it is opaque and
// uses at most 256 distinct colours. Anything else would need lossy
// quantisation, which this backend does not do.
func toPaletted(src image.Image) (*image.Paletted, bool) {
	b := src.Bounds()
	index := make(map[color.RGBA]uint8, 256)
	palette := make(color.Palette, 0, 256)
	dst := image.NewPaletted(b, nil)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := src.At(x, y).RGBA()
			if a != 0xffff {
				return nil, false
			}
			c := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: 0xff}
			i, seen := index[c]
			if !seen {
				if len(palette) == 256 {
					return nil, false
				}
				i = uint8(len(palette))
				index[c] = i
				palette = append(palette, c)
			}
			dst.SetColorIndex(x, y, i)
		}
	}
	dst.Palette = palette
	return dst, true
}
