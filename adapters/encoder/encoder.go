// Package encoder provides pure-Go image encoders.
package encoder

import (
	"image"
	"image/color"

	"github.com/Skryldev/webtools/core"
)

// Register adds the pure-Go encoders to reg. Only JPEG and PNG are available
// without cgo; WebP and AVIF requests fail with ErrUnsupportedFormat unless a
// libvips backend is registered as well.
func Register(reg core.Registry, defaultQuality int) {
	reg.RegisterEncoder(core.FormatJPEG, NewJPEG(defaultQuality))
	reg.RegisterEncoder(core.FormatPNG, NewPNG())
}

// flatten drops the alpha band the same way libvips does when saving to a
// format without transparency: colour values are kept un-premultiplied.
func flatten(src image.Image) image.Image {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}
