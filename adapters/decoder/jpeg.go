package decoder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

// JPEG decodes JPEG images using the standard library.
type JPEG struct{}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool { return format == core.FormatJPEG }

func (j *JPEG) Decode(ctx context.Context, data []byte) (*core.ImageData, error) {
	return run(ctx, "jpeg.decode", core.FormatJPEG, data,
		func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) },
		classifyJPEG)
}

// classifyJPEG separates valid-but-unsupported JPEG features (arithmetic
// coding, 12-bit samples) from malformed streams.
func classifyJPEG(op string, err error) error {
	var unsupported jpeg.UnsupportedError
	if errors.As(err, &unsupported) {
		return apperrors.Unsupported(op, err)
	}
	return apperrors.Corrupt(op, err)
}
