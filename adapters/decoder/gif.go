package decoder

import (
	"bytes"
	"context"
	"image"
	"image/gif"

	"github.com/Skryldev/webtools/core"
)

// GIF decodes the first frame of a GIF.
type GIF struct{}

func NewGIF() *GIF { return &GIF{} }

func (g *GIF) CanDecode(format core.Format) bool { return format == core.FormatGIF }

func (g *GIF) Decode(ctx context.Context, data []byte) (*core.ImageData, error) {
	return run(ctx, "gif.decode", core.FormatGIF, data,
		func(r *bytes.Reader) (image.Image, error) { return gif.Decode(r) },
		nil)
}
