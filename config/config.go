package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/photozip/database"
	photoziphttp "github.com/sagarc03/photozip/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for photozip.
type Config struct {
	Env     string                  `mapstructure:"env" validate:"required,oneof=dev prod"`
	Server  ServerConfig            `mapstructure:"server"`
	Photos  PhotosConfig            `mapstructure:"photos"`
	Archive ArchiveConfig           `mapstructure:"archive"`
	Index   IndexConfig             `mapstructure:"index"`
	History database.Config         `mapstructure:"history"`
	CORS    photoziphttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig               `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// ShutdownTimeout is in seconds.
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"min=1"`
	// ChunkWriteTimeout is in seconds; 0 lets a stalled client hold the stream.
	ChunkWriteTimeout int `mapstructure:"chunk_write_timeout" validate:"min=0"`
}

// PhotosConfig holds the photos root configuration.
type PhotosConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ArchiveConfig holds archive producer and streaming configuration.
type ArchiveConfig struct {
	// Latency is the delay before each chunk, in seconds.
	Latency   float64 `mapstructure:"latency" validate:"min=0"`
	Producer  string  `mapstructure:"producer" validate:"required,oneof=zip native"`
	ZipBinary string  `mapstructure:"zip_binary" validate:"required"`
	ChunkSize int     `mapstructure:"chunk_size" validate:"min=16"`
}

// Delay returns Latency as a duration.
func (a ArchiveConfig) Delay() time.Duration {
	return time.Duration(a.Latency * float64(time.Second))
}

// IndexConfig holds the index page configuration.
type IndexConfig struct {
	Template string `mapstructure:"template" validate:"required"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"photos_directory":       "photos.path",
	"mimic_download_latency": "archive.latency",
	"enable_logging":         "log.enabled",
	"port":                   "server.port",
	"producer":               "archive.producer",
	"history-type":           "history.type",
	"history-dsn":            "history.dsn",
}

// legacyEnv lists the unprefixed environment variables the service has
// always read. They are consulted after the PHOTOZIP_ names.
var legacyEnv = map[string]string{
	"photos.path":     "PHOTOS_DIRECTORY",
	"archive.latency": "MIMIC_DOWNLOAD_LATENCY",
	"log.enabled":     "ENABLE_LOGGING",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

func bindLegacyEnv(v *viper.Viper) {
	for key, name := range legacyEnv {
		prefixed := "PHOTOZIP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, name)
	}
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10)    // seconds
	v.SetDefault("server.chunk_write_timeout", 60) // seconds

	v.SetDefault("photos.path", "./photos")

	v.SetDefault("archive.latency", 0)
	v.SetDefault("archive.producer", "zip")
	v.SetDefault("archive.zip_binary", "zip")
	v.SetDefault("archive.chunk_size", 64*1024)

	v.SetDefault("index.template", "templates/index.html")

	v.SetDefault("history.type", "")
	v.SetDefault("history.dsn", "")
	v.SetDefault("history.table", "photozip_archive_history")

	v.SetDefault("log.enabled", false)
	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("photozip")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("PHOTOZIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
