package vips

import (
	"errors"
	"testing"

	govips "github.com/davidbyttow/govips/v2/vips"
	"github.com/stretchr/testify/assert"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

func TestClassifyLoadError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"VipsForeignLoad: buffer is not in a known format", apperrors.ErrUnsupportedFormat},
		{"Input buffer contains unsupported image format", apperrors.ErrUnsupportedFormat},
		{"VipsJpeg: Premature end of JPEG file", apperrors.ErrCorruptImage},
		{"pngload_buffer: libpng read error", apperrors.ErrCorruptImage},
	}
	for _, tc := range tests {
		err := classifyLoadError("vips.decode", errors.New(tc.msg))
		assert.ErrorIs(t, err, tc.want, tc.msg)
		assert.True(t, apperrors.IsCategory(err, apperrors.CategoryDecode))
	}
}

func TestExportParams(t *testing.T) {
	meta := core.Metadata{Channels: 3}

	webp := webpParams(core.EncodeParamsFor(core.FormatWebP, 80, meta))
	assert.Equal(t, 80, webp.Quality)
	assert.Equal(t, 6, webp.ReductionEffort)

	avif := avifParams(core.EncodeParamsFor(core.FormatAVIF, 70, meta))
	assert.Equal(t, 70, avif.Quality)
	assert.Equal(t, 6, avif.Effort)

	jpeg := jpegParams(core.EncodeParamsFor(core.FormatJPEG, 85, meta))
	assert.True(t, jpeg.Interlace)
	assert.True(t, jpeg.OptimizeCoding)
	assert.True(t, jpeg.OptimizeScans)
	assert.Equal(t, 0, jpeg.QuantTable)

	png := pngParams(core.EncodeParamsFor(core.FormatPNG, 85, meta))
	assert.Equal(t, 9, png.Compression)
	assert.Equal(t, govips.PngFilterAll, png.Filter)
	assert.True(t, png.Palette)

	rgba := pngParams(core.EncodeParamsFor(core.FormatPNG, 85, core.Metadata{Channels: 4}))
	assert.False(t, rgba.Palette)
}

func TestVipsFormatToCore(t *testing.T) {
	assert.Equal(t, core.FormatAVIF, vipsFormatToCore(govips.ImageTypeAVIF))
	assert.Equal(t, core.FormatWebP, vipsFormatToCore(govips.ImageTypeWEBP))
	assert.Equal(t, core.FormatUnknown, vipsFormatToCore(govips.ImageTypeSVG))
}
