package core

import (
	"context"
	"io"
	"time"
)

// Decoder turns encoded bytes into an ImageData with Image and Meta set.
// Implementations must report failures as errors.ErrUnsupportedFormat or
// errors.ErrCorruptImage so callers never inspect message text.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*ImageData, error)
	CanDecode(format Format) bool
}

// Resizer scales a decoded image to exactly the given box.
type Resizer interface {
	Resize(ctx context.Context, img *ImageData, width, height int) (*ImageData, error)
}

// Encoder serialises a decoded ImageData to bytes in params.Format.
type Encoder interface {
	Encode(ctx context.Context, img *ImageData, params EncodeParams) ([]byte, error)
	CanEncode(format Format) bool
}

// StorageAdapter persists optimized images and retrieves them later.
type StorageAdapter interface {
	Put(ctx context.Context, key StorageKey, r io.Reader, meta map[string]string) error
	Get(ctx context.Context, key StorageKey) (io.ReadCloser, error)
	Delete(ctx context.Context, key StorageKey) error
	Exists(ctx context.Context, key StorageKey) (bool, error)
}

// MetricsCollector receives performance observations from the pipeline.
type MetricsCollector interface {
	RecordProcessingTime(stepName string, d time.Duration)
	RecordThroughput(direction string, bytes int64)
	RecordError(stepName string, category string)
	RecordResult(format Format, status string)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Registry maps Format values to codec implementations.
type Registry interface {
	DecoderFor(format Format) (Decoder, bool)
	EncoderFor(format Format) (Encoder, bool)
	Resizer() (Resizer, bool)
	RegisterDecoder(format Format, d Decoder)
	RegisterEncoder(format Format, e Encoder)
	SetResizer(r Resizer)
}
