package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/photozip/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "./photos", cfg.Photos.Path)
	assert.Equal(t, 0.0, cfg.Archive.Latency)
	assert.Equal(t, time.Duration(0), cfg.Archive.Delay())
	assert.Equal(t, "zip", cfg.Archive.Producer)
	assert.Equal(t, "zip", cfg.Archive.ZipBinary)
	assert.Equal(t, 64*1024, cfg.Archive.ChunkSize)
	assert.Equal(t, "templates/index.html", cfg.Index.Template)
	assert.False(t, cfg.History.Enabled())
	assert.Equal(t, "photozip_archive_history", cfg.History.Table)
	assert.False(t, cfg.Log.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ConfigFile(t *testing.T) {
	configPath := writeConfig(t, "photozip.yaml", `
env: prod
server:
  port: 9000
  chunk_write_timeout: 5
photos:
  path: /srv/photos
archive:
  latency: 0.25
  producer: native
  chunk_size: 4096
index:
  template: /etc/photozip/index.html
history:
  type: sqlite
  dsn: /var/lib/photozip/history.db
  table: history
log:
  enabled: true
  level: debug
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.ChunkWriteTimeout)
	assert.Equal(t, "/srv/photos", cfg.Photos.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Archive.Delay())
	assert.Equal(t, "native", cfg.Archive.Producer)
	assert.Equal(t, 4096, cfg.Archive.ChunkSize)
	assert.Equal(t, "/etc/photozip/index.html", cfg.Index.Template)
	assert.True(t, cfg.History.Enabled())
	assert.Equal(t, "sqlite", cfg.History.Type)
	assert.Equal(t, "/var/lib/photozip/history.db", cfg.History.DSN)
	assert.Equal(t, "history", cfg.History.Table)
	assert.True(t, cfg.Log.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	basePath := writeConfig(t, "base.yaml", `
server:
  port: 9000
photos:
  path: /srv/photos
`)
	overridePath := writeConfig(t, "override.yaml", `
server:
  port: 9001
`)

	cfg, err := config.Load([]string{basePath, overridePath}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "/srv/photos", cfg.Photos.Path)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "invalid port",
			content: "server:\n  port: 70000\n",
			field:   "Port",
		},
		{
			name:    "unknown producer",
			content: "archive:\n  producer: tar\n",
			field:   "Producer",
		},
		{
			name:    "negative latency",
			content: "archive:\n  latency: -1\n",
			field:   "Latency",
		},
		{
			name:    "unknown history backend",
			content: "history:\n  type: mysql\n  dsn: x\n",
			field:   "Type",
		},
		{
			name:    "history backend without dsn",
			content: "history:\n  type: sqlite\n",
			field:   "DSN",
		},
		{
			name:    "invalid log level",
			content: "log:\n  level: verbose\n",
			field:   "Level",
		},
		{
			name:    "invalid env",
			content: "env: staging\n",
			field:   "Env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, "photozip.yaml", tt.content)

			_, err := config.Load([]string{configPath}, nil)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_WithCORS(t *testing.T) {
	configPath := writeConfig(t, "photozip.yaml", `
cors:
  enabled: true
  allowed_origins:
    - https://gallery.example.com
  allowed_methods:
    - GET
  max_age: 600
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://gallery.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("PHOTOZIP_SERVER_PORT", "9090")
	t.Setenv("PHOTOZIP_ARCHIVE_PRODUCER", "native")
	t.Setenv("PHOTOZIP_LOG_LEVEL", "warn")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "native", cfg.Archive.Producer)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_LegacyEnvironmentVariables(t *testing.T) {
	t.Setenv("PHOTOS_DIRECTORY", "/legacy/photos")
	t.Setenv("MIMIC_DOWNLOAD_LATENCY", "0.5")
	t.Setenv("ENABLE_LOGGING", "true")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "/legacy/photos", cfg.Photos.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Archive.Delay())
	assert.True(t, cfg.Log.Enabled)
}

func TestLoad_PrefixedEnvironmentWinsOverLegacy(t *testing.T) {
	t.Setenv("PHOTOS_DIRECTORY", "/legacy/photos")
	t.Setenv("PHOTOZIP_PHOTOS_PATH", "/new/photos")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "/new/photos", cfg.Photos.Path)
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("photos_directory", "", "")
	flags.Float64("mimic_download_latency", 0, "")
	flags.Bool("enable_logging", false, "")
	flags.Int("port", 0, "")
	flags.String("producer", "", "")
	return flags
}

func TestLoad_Flags(t *testing.T) {
	t.Setenv("PHOTOS_DIRECTORY", "/from/env")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{
		"--photos_directory", "/from/flag",
		"--mimic_download_latency", "1.5",
		"--enable_logging",
		"--port", "8181",
		"--producer", "native",
	}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, "/from/flag", cfg.Photos.Path)
	assert.Equal(t, 1500*time.Millisecond, cfg.Archive.Delay())
	assert.True(t, cfg.Log.Enabled)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "native", cfg.Archive.Producer)
}

func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	t.Setenv("PHOTOZIP_SERVER_PORT", "9090")

	flags := newFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "zip", cfg.Archive.Producer)
}

func TestContext(t *testing.T) {
	_, err := config.FromContext(context.Background())
	assert.Error(t, err)

	cfg := &config.Config{Env: "dev"}
	ctx := config.WithContext(context.Background(), cfg)

	got, err := config.FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
