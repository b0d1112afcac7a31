package decoder

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

func encodeWith(t *testing.T, img image.Image, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, img))
	return buf.Bytes()
}

func TestDecoders(t *testing.T) {
	rgba := image.NewNRGBA(image.Rect(0, 0, 12, 7))
	for i := range rgba.Pix {
		rgba.Pix[i] = 0xff
	}
	rgba.SetNRGBA(0, 0, color.NRGBA{A: 0x80})
	gray := image.NewGray(image.Rect(0, 0, 5, 3))
	opaque := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for i := range opaque.Pix {
		opaque.Pix[i] = 0xff
	}
	pal := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})

	tests := []struct {
		name     string
		dec      core.Decoder
		data     []byte
		format   core.Format
		w, h     int
		channels int
		alpha    bool
	}{
		{"png rgba", NewPNG(), encodeWith(t, rgba, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }),
			core.FormatPNG, 12, 7, 4, true},
		{"png rgb", NewPNG(), encodeWith(t, opaque, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }),
			core.FormatPNG, 6, 4, 3, false},
		{"png gray", NewPNG(), encodeWith(t, gray, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) }),
			core.FormatPNG, 5, 3, 1, false},
		{"jpeg", NewJPEG(), encodeWith(t, gray, func(b *bytes.Buffer, m image.Image) error { return jpeg.Encode(b, m, nil) }),
			core.FormatJPEG, 5, 3, 1, false},
		{"gif", NewGIF(), encodeWith(t, pal, func(b *bytes.Buffer, m image.Image) error { return gif.Encode(b, m, nil) }),
			core.FormatGIF, 4, 4, 3, false},
		{"bmp", NewBMP(), encodeWith(t, opaque, func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) }),
			core.FormatBMP, 6, 4, 3, false},
		{"tiff", NewTIFF(), encodeWith(t, gray, func(b *bytes.Buffer, m image.Image) error { return tiff.Encode(b, m, nil) }),
			core.FormatTIFF, 5, 3, 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.dec.CanDecode(tc.format))
			out, err := tc.dec.Decode(context.Background(), tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.format, out.Format)
			assert.Equal(t, tc.w, out.Meta.Width)
			assert.Equal(t, tc.h, out.Meta.Height)
			assert.Equal(t, tc.channels, out.Meta.Channels)
			assert.Equal(t, tc.alpha, out.Meta.HasAlpha)
			_, ok := out.Image.(image.Image)
			assert.True(t, ok)
		})
	}
}

func TestPNG_OpaqueTruecolorGetsPalette(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	data := encodeWith(t, src, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) })

	out, err := NewPNG().Decode(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Meta.Channels)
	assert.False(t, out.Meta.HasAlpha)
	assert.True(t, core.EncodeParamsFor(core.FormatPNG, 85, out.Meta).Palette)
}

// pngHeader builds a signature, an IHDR with the given colour type and the
// extra chunk names, each with an empty payload.
func pngHeader(colorType byte, chunks ...string) []byte {
	data := []byte("\x89PNG\r\n\x1a\n")
	ihdr := []byte{0, 0, 0, 13, 'I', 'H', 'D', 'R', 0, 0, 0, 1, 0, 0, 0, 1, 8, colorType, 0, 0, 0, 0, 0, 0, 0}
	data = append(data, ihdr...)
	for _, c := range chunks {
		data = append(data, 0, 0, 0, 0)
		data = append(data, c...)
		data = append(data, 0, 0, 0, 0)
	}
	return data
}

func TestPNGBands(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		bands int
		alpha bool
		ok    bool
	}{
		{"gray", pngHeader(0, "IDAT"), 1, false, true},
		{"gray trns", pngHeader(0, "tRNS", "IDAT"), 2, true, true},
		{"rgb", pngHeader(2, "IDAT"), 3, false, true},
		{"rgb trns", pngHeader(2, "tRNS", "IDAT"), 4, true, true},
		{"rgb trns after idat", pngHeader(2, "IDAT", "tRNS"), 3, false, true},
		{"gray alpha", pngHeader(4, "IDAT"), 2, true, true},
		{"rgba", pngHeader(6, "IDAT"), 4, true, true},
		{"indexed", pngHeader(3, "PLTE", "IDAT"), 0, false, false},
		{"short", []byte("\x89PNG"), 0, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bands, alpha, ok := pngBands(tc.data)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.bands, bands)
			assert.Equal(t, tc.alpha, alpha)
		})
	}
}

func TestDecoders_Failures(t *testing.T) {
	pngData := encodeWith(t, image.NewGray(image.Rect(0, 0, 8, 8)),
		func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) })

	for _, dec := range []core.Decoder{NewJPEG(), NewPNG(), NewGIF(), NewWebP(), NewBMP(), NewTIFF()} {
		_, err := dec.Decode(context.Background(), []byte("garbage bytes here"))
		assert.ErrorIs(t, err, apperrors.ErrCorruptImage)
		assert.True(t, apperrors.IsCategory(err, apperrors.CategoryDecode))

		_, err = dec.Decode(context.Background(), nil)
		assert.ErrorIs(t, err, apperrors.ErrCorruptImage)
	}

	_, err := NewPNG().Decode(context.Background(), pngData[:len(pngData)-20])
	assert.ErrorIs(t, err, apperrors.ErrCorruptImage)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewPNG().Decode(ctx, pngData)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifiers(t *testing.T) {
	err := classifyJPEG("jpeg.decode", jpeg.UnsupportedError("arithmetic coding"))
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
	err = classifyJPEG("jpeg.decode", jpeg.FormatError("missing SOI marker"))
	assert.ErrorIs(t, err, apperrors.ErrCorruptImage)

	err = classifyPNG("png.decode", png.UnsupportedError("interlace method"))
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
	err = classifyPNG("png.decode", png.FormatError("bad checksum"))
	assert.ErrorIs(t, err, apperrors.ErrCorruptImage)
}

func TestRegister(t *testing.T) {
	reg := core.NewRegistry()
	Register(reg)
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG, core.FormatGIF, core.FormatWebP, core.FormatBMP, core.FormatTIFF} {
		_, ok := reg.DecoderFor(f)
		assert.True(t, ok, f)
	}
	_, ok := reg.DecoderFor(core.FormatAVIF)
	assert.False(t, ok)
}
