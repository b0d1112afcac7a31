package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Backend selects the codec implementation.
type Backend string

const (
	BackendVips   Backend = "vips"
	BackendNative Backend = "native"
)

// EnvPrefix prefixes every environment override, e.g. WEBTOOLS_SERVER_ADDR.
const EnvPrefix = "WEBTOOLS"

// Config is the top-level configuration struct.  Start from Default() and
// override only what you need.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Optimize  OptimizeConfig  `mapstructure:"optimize"`
	Codec     CodecConfig     `mapstructure:"codec"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Output    OutputConfig    `mapstructure:"output"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"gt=0"` // per optimize call
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// LimitsConfig bounds request sizes.
type LimitsConfig struct {
	MaxUploadBytes    int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`
	ChunkSize         int   `mapstructure:"chunk_size" validate:"gt=0"` // streaming read chunk
	MaxPasswordLength int   `mapstructure:"max_password_length" validate:"gt=0"`
	MaxIDs            int   `mapstructure:"max_ids" validate:"gt=0"`
}

// OptimizeConfig holds the image optimization policy.
type OptimizeConfig struct {
	DefaultQuality   int `mapstructure:"default_quality" validate:"min=1,max=100"`
	ThumbnailMax     int `mapstructure:"thumbnail_max" validate:"gt=0"`
	MaxWidth         int `mapstructure:"max_width" validate:"gt=0"`
	MaxHeight        int `mapstructure:"max_height" validate:"gt=0"`
	BatchConcurrency int `mapstructure:"batch_concurrency" validate:"gte=0"` // 0 = NumCPU
}

// CodecConfig picks and tunes the codec backend.
type CodecConfig struct {
	Backend          Backend `mapstructure:"backend" validate:"oneof=vips native"`
	VipsConcurrency  int     `mapstructure:"vips_concurrency" validate:"gte=0"`
	VipsMaxCacheSize int     `mapstructure:"vips_max_cache_size" validate:"gte=0"`
	VipsReportLeaks  bool    `mapstructure:"vips_report_leaks"`
}

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
	ExpiresIn         time.Duration `mapstructure:"expires_in" validate:"gte=0"`
}

// OutputConfig configures where the CLI writes optimized files.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Permissions uint32 `mapstructure:"permissions"` // default 0644
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     60 * time.Second,
			WriteTimeout:    60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Limits: LimitsConfig{
			MaxUploadBytes:    20 * 1024 * 1024,
			ChunkSize:         32 * 1024,
			MaxPasswordLength: 128,
			MaxIDs:            100,
		},
		Optimize: OptimizeConfig{
			DefaultQuality: 85,
			ThumbnailMax:   800,
			MaxWidth:       1920,
			MaxHeight:      1080,
		},
		Codec: CodecConfig{
			Backend: BackendVips,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 5,
			Burst:             10,
			ExpiresIn:         3 * time.Minute,
		},
		Output: OutputConfig{
			Dir:         "optimized",
			Permissions: 0o644,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid fields: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("config: RateLimit needs positive RequestsPerSecond and Burst when enabled")
	}
	if c.Optimize.ThumbnailMax > c.Optimize.MaxWidth && c.Optimize.ThumbnailMax > c.Optimize.MaxHeight {
		return errors.New("config: Optimize.ThumbnailMax must not exceed both MaxWidth and MaxHeight")
	}
	return nil
}

// Load builds a Config from Default(), an optional file (yaml, toml or json,
// picked by extension) and WEBTOOLS_* environment variables, in increasing
// order of precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that the
// file does not mention.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("limits.max_upload_bytes", d.Limits.MaxUploadBytes)
	v.SetDefault("limits.chunk_size", d.Limits.ChunkSize)
	v.SetDefault("limits.max_password_length", d.Limits.MaxPasswordLength)
	v.SetDefault("limits.max_ids", d.Limits.MaxIDs)

	v.SetDefault("optimize.default_quality", d.Optimize.DefaultQuality)
	v.SetDefault("optimize.thumbnail_max", d.Optimize.ThumbnailMax)
	v.SetDefault("optimize.max_width", d.Optimize.MaxWidth)
	v.SetDefault("optimize.max_height", d.Optimize.MaxHeight)
	v.SetDefault("optimize.batch_concurrency", d.Optimize.BatchConcurrency)

	v.SetDefault("codec.backend", string(d.Codec.Backend))
	v.SetDefault("codec.vips_concurrency", d.Codec.VipsConcurrency)
	v.SetDefault("codec.vips_max_cache_size", d.Codec.VipsMaxCacheSize)
	v.SetDefault("codec.vips_report_leaks", d.Codec.VipsReportLeaks)

	v.SetDefault("ratelimit.enabled", d.RateLimit.Enabled)
	v.SetDefault("ratelimit.requests_per_second", d.RateLimit.RequestsPerSecond)
	v.SetDefault("ratelimit.burst", d.RateLimit.Burst)
	v.SetDefault("ratelimit.expires_in", d.RateLimit.ExpiresIn)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.permissions", d.Output.Permissions)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
