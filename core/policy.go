package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Optimization policy defaults.
const (
	DefaultQuality  = 85
	ThumbnailMax    = 800
	MaxWidth        = 1920
	MaxHeight       = 1080
	DefaultEffort   = 6
	MaxPNGCompress  = 9
	DefaultChroma   = "4:2:0"
	OptimizedSuffix = "-web-optimized"
	DefaultBasename = "optimized"
	UnknownSubtype  = "unknown"
)

// SizePolicy bounds the output dimensions. The zero value is not useful; use
// DefaultSizePolicy.
type SizePolicy struct {
	ThumbnailMax int
	MaxWidth     int
	MaxHeight    int
}

// DefaultSizePolicy returns the 800 / 1920x1080 policy.
func DefaultSizePolicy() SizePolicy {
	return SizePolicy{ThumbnailMax: ThumbnailMax, MaxWidth: MaxWidth, MaxHeight: MaxHeight}
}

// CalculateOptimalSize applies the default policy.
func CalculateOptimalSize(width, height int) Dimensions {
	return DefaultSizePolicy().Fit(width, height)
}

// Fit returns the target box for a width x height source. Images that fit
// the thumbnail bound or the max box are returned unchanged; larger ones are
// scaled down along the capped axis with the other axis derived from the
// aspect ratio and rounded half up.
func (p SizePolicy) Fit(width, height int) Dimensions {
	if width <= 0 || height <= 0 {
		return Dimensions{Width: width, Height: height}
	}
	if width <= p.ThumbnailMax && height <= p.ThumbnailMax {
		return Dimensions{Width: width, Height: height}
	}
	if width <= p.MaxWidth && height <= p.MaxHeight {
		return Dimensions{Width: width, Height: height}
	}

	aspect := float64(width) / float64(height)
	if aspect > 1 {
		w := min(width, p.MaxWidth)
		return Dimensions{Width: w, Height: atLeastOne(roundHalfUp(float64(w) / aspect))}
	}
	h := min(height, p.MaxHeight)
	return Dimensions{Width: atLeastOne(roundHalfUp(float64(h) * aspect)), Height: h}
}

// ResolveFormat maps the requested target onto a concrete encoder format.
// "auto", empty and unrecognised values always resolve to WebP.
func ResolveFormat(requested string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(requested))) {
	case FormatWebP:
		return FormatWebP
	case FormatAVIF:
		return FormatAVIF
	case FormatJPEG, "jpg":
		return FormatJPEG
	case FormatPNG:
		return FormatPNG
	}
	return FormatWebP
}

// ParseQuality reads a quality form value the way a lenient integer parser
// would: leading digits are used, anything that yields no positive number
// falls back to DefaultQuality. The result is clamped to 1..100.
func ParseQuality(raw string) int {
	s := strings.TrimSpace(raw)
	sign := 1
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end >= 0 {
		s = s[:end]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return DefaultQuality
	}
	return ClampQuality(sign * n)
}

// ClampQuality bounds q to the 1..100 range every encoder accepts.
func ClampQuality(q int) int {
	return max(1, min(q, 100))
}

// EncodeParamsFor returns the encoder settings for format at quality. meta
// describes the decoded source and decides PNG palette mode.
func EncodeParamsFor(format Format, quality int, meta Metadata) EncodeParams {
	p := EncodeParams{Format: format, Quality: ClampQuality(quality)}
	switch format {
	case FormatWebP:
		p.Effort = DefaultEffort
		p.SmartSubsample = true
	case FormatAVIF:
		p.Effort = DefaultEffort
		p.ChromaSubsampling = DefaultChroma
	case FormatJPEG:
		p.Progressive = true
		p.OptimizeCoding = true
		p.OptimizeScans = true
		p.QuantTable = 0
	case FormatPNG:
		p.CompressionLevel = MaxPNGCompress
		p.AdaptiveFiltering = true
		p.Palette = meta.Channels != 4
	}
	return p
}

// ReductionPercent is round((orig-opt)/orig*100). It is negative when the
// output grew.
func ReductionPercent(original, optimized int64) int {
	if original <= 0 {
		return 0
	}
	return roundHalfUp(float64(original-optimized) / float64(original) * 100)
}

// CompressionRatio renders original/optimized rounded to one decimal as
// "N:1", dropping a trailing ".0".
func CompressionRatio(original, optimized int64) string {
	if optimized <= 0 {
		return "0:1"
	}
	r := math.Floor(float64(original)/float64(optimized)*10+0.5) / 10
	return strconv.FormatFloat(r, 'f', -1, 64) + ":1"
}

// OutputFilename builds "<basename>-web-optimized.<ext>" where basename is
// everything before the first '.' of the upload name.
func OutputFilename(original string, format Format) string {
	base := original
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if base == "" {
		base = DefaultBasename
	}
	return base + OptimizedSuffix + "." + format.Extension()
}

// OriginalFormat returns the subtype of a declared MIME type ("png" for
// "image/png") or "unknown".
func OriginalFormat(contentType string) string {
	parts := strings.Split(contentType, "/")
	if len(parts) < 2 || parts[1] == "" {
		return UnknownSubtype
	}
	return parts[1]
}

// IsImageContentType reports whether a declared MIME type is an image type.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// FormatFromContentType maps MIME types to Format values.
func FormatFromContentType(ct string) Format {
	switch strings.ToLower(ct) {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return FormatJPEG
	case "image/png":
		return FormatPNG
	case "image/webp":
		return FormatWebP
	case "image/avif":
		return FormatAVIF
	case "image/gif":
		return FormatGIF
	case "image/bmp", "image/x-bmp":
		return FormatBMP
	case "image/tiff":
		return FormatTIFF
	}
	return FormatUnknown
}

func roundHalfUp(v float64) int { return int(math.Floor(v + 0.5)) }

func atLeastOne(v int) int { return max(v, 1) }
