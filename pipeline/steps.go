package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
	"github.com/Skryldev/webtools/utils"
)

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep decodes raw bytes in img.Data using the registry. The format is
// sniffed from magic bytes first and taken from the declared content type
// only when sniffing fails.
type DecodeStep struct {
	Registry core.Registry
}

func (s *DecodeStep) Name() string { return "decode" }

func (s *DecodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if img.Image != nil {
		return img, nil // already decoded
	}
	if len(img.Data) == 0 {
		return nil, apperrors.Corrupt(s.Name(), apperrors.ErrEmptyInput)
	}

	format := core.Format(utils.DetectFormat(img.Data))
	hinted := false
	if format == core.FormatUnknown {
		format = core.FormatFromContentType(img.ContentType)
		hinted = format != core.FormatUnknown
	}

	dec, ok := s.Registry.DecoderFor(format)
	if !ok {
		// A catch-all decoder (libvips) registers under FormatUnknown.
		dec, ok = s.Registry.DecoderFor(core.FormatUnknown)
	}
	if !ok {
		return nil, apperrors.Unsupported(s.Name(), fmt.Errorf("no decoder for %s", format))
	}

	decoded, err := dec.Decode(ctx, img.Data)
	if err != nil {
		// The client declared a format we know but the bytes carry no valid
		// signature for it: the file is damaged, not exotic.
		if hinted && errors.Is(err, apperrors.ErrUnsupportedFormat) {
			return nil, apperrors.Corrupt(s.Name(), err)
		}
		return nil, classifyDecodeError(s.Name(), format, err)
	}

	decoded.Data = img.Data
	decoded.ContentType = img.ContentType
	decoded.OriginalSize = int64(len(img.Data))
	decoded.Meta.SizeBytes = int64(len(img.Data))
	return decoded, nil
}

// classifyDecodeError makes sure every decode failure lands in one of the two
// closed categories. Decoders normally classify themselves; anything left
// over is corrupt when the format was recognised, unsupported otherwise.
func classifyDecodeError(op string, format core.Format, err error) error {
	if errors.Is(err, apperrors.ErrUnsupportedFormat) || errors.Is(err, apperrors.ErrCorruptImage) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CategoryPipeline, op, err)
	}
	if format == core.FormatUnknown {
		return apperrors.Unsupported(op, err)
	}
	return apperrors.Corrupt(op, err)
}

// ── Fit ───────────────────────────────────────────────────────────────────────

// FitStep scales the decoded image down to the box chosen by Policy. It never
// enlarges and leaves images that already fit untouched.
type FitStep struct {
	Registry core.Registry
	Policy   core.SizePolicy
}

func (s *FitStep) Name() string { return "fit" }

func (s *FitStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if img.Image == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}

	target := s.Policy.Fit(img.Meta.Width, img.Meta.Height)
	if target.Width <= 0 || target.Height <= 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrInvalidDimensions)
	}
	if target.Width >= img.Meta.Width && target.Height >= img.Meta.Height {
		return img, nil // nothing to do
	}

	rs, ok := s.Registry.Resizer()
	if !ok {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), errors.New("no resizer registered"))
	}
	return rs.Resize(ctx, img, target.Width, target.Height)
}

// ── Encode ────────────────────────────────────────────────────────────────────

// EncodeStep serialises the decoded image into Format at Quality.
type EncodeStep struct {
	Registry core.Registry
	Format   core.Format
	Quality  int
}

func (s *EncodeStep) Name() string { return "encode" }

func (s *EncodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	enc, ok := s.Registry.EncoderFor(s.Format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryEncode, s.Name(),
			fmt.Errorf("%w: no encoder for %s", apperrors.ErrUnsupportedFormat, s.Format))
	}

	params := core.EncodeParamsFor(s.Format, s.Quality, img.Meta)
	data, err := enc.Encode(ctx, img, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, s.Name(), err)
	}
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.CategoryEncode, s.Name(), apperrors.ErrEmptyInput)
	}

	out := *img
	out.Data = data
	out.Format = s.Format
	out.Meta.Format = s.Format
	out.Meta.SizeBytes = int64(len(data))
	return &out, nil
}
