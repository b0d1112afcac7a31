package decoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/png"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

// PNG decodes PNG images using the standard library.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanDecode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Decode(ctx context.Context, data []byte) (*core.ImageData, error) {
	out, err := run(ctx, "png.decode", core.FormatPNG, data,
		func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
		classifyPNG)
	if err != nil {
		return nil, err
	}
	if bands, alpha, ok := pngBands(data); ok {
		out.Meta.Channels = bands
		out.Meta.HasAlpha = alpha
		switch {
		case bands <= 2:
			out.Meta.ColorSpace = core.ColorSpaceGray
		case alpha:
			out.Meta.ColorSpace = core.ColorSpaceRGBA
		default:
			out.Meta.ColorSpace = core.ColorSpaceRGB
		}
	}
	return out, nil
}

// PNG colour types from the IHDR chunk.
const (
	pngGray      = 0
	pngTruecolor = 2
	pngGrayAlpha = 4
	pngRGBA      = 6
)

// pngColorTypeOffset is the colour type byte: signature (8), chunk length
// (4), "IHDR" (4), width (4), height (4), bit depth (1).
const pngColorTypeOffset = 25

// pngBands reports the band count libvips assigns from the declared colour
// type. The decoded Go type cannot tell grey+alpha from RGBA. Indexed images
// are left to the palette check in run.
func pngBands(data []byte) (bands int, alpha bool, ok bool) {
	if len(data) <= pngColorTypeOffset || string(data[12:16]) != "IHDR" {
		return 0, false, false
	}
	switch data[pngColorTypeOffset] {
	case pngGray:
		if hasChunk(data, "tRNS") {
			return 2, true, true
		}
		return 1, false, true
	case pngTruecolor:
		if hasChunk(data, "tRNS") {
			return 4, true, true
		}
		return 3, false, true
	case pngGrayAlpha:
		return 2, true, true
	case pngRGBA:
		return 4, true, true
	}
	return 0, false, false
}

// hasChunk walks the chunk list up to the first IDAT looking for name.
func hasChunk(data []byte, name string) bool {
	for off := 8; off+8 <= len(data); {
		n := int(binary.BigEndian.Uint32(data[off:]))
		typ := string(data[off+4 : off+8])
		if typ == name {
			return true
		}
		if typ == "IDAT" || n < 0 {
			return false
		}
		off += 12 + n
	}
	return false
}
