package resample

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

func newImage(w, h int) *core.ImageData {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 0x90})
		}
	}
	return &core.ImageData{
		Image:  img,
		Format: core.FormatPNG,
		Meta:   core.Metadata{Width: w, Height: h, Channels: 4, HasAlpha: true},
	}
}

func TestLanczos_Resize(t *testing.T) {
	src := newImage(200, 100)
	out, err := NewLanczos().Resize(context.Background(), src, 96, 48)
	require.NoError(t, err)

	dst, ok := out.Image.(image.Image)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 96, 48), dst.Bounds())
	assert.Equal(t, 96, out.Meta.Width)
	assert.Equal(t, 48, out.Meta.Height)
	assert.True(t, out.Meta.HasAlpha)
	assert.Equal(t, core.FormatPNG, out.Format)

	// The input is left untouched.
	assert.Equal(t, 200, src.Meta.Width)
	assert.Equal(t, 200, src.Image.(image.Image).Bounds().Dx())

	_, _, _, a := dst.At(10, 10).RGBA()
	assert.Equal(t, uint32(0x90), a>>8)
}

func TestLanczos_NeverEnlarges(t *testing.T) {
	src := newImage(40, 30)
	out, err := NewLanczos().Resize(context.Background(), src, 80, 60)
	require.NoError(t, err)
	assert.Same(t, src, out)
}

func TestLanczos_Errors(t *testing.T) {
	r := NewLanczos()

	_, err := r.Resize(context.Background(), newImage(10, 10), 0, 5)
	assert.ErrorIs(t, err, apperrors.ErrInvalidDimensions)

	_, err = r.Resize(context.Background(), &core.ImageData{}, 5, 5)
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Resize(ctx, newImage(10, 10), 5, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, apperrors.CategoryPipeline, apperrors.CategoryOf(err))
}
