package clientcli_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/photozip/clientcli"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := (&clientcli.Config{}).WithDefaults()

	assert.Equal(t, clientcli.DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, clientcli.DefaultTimeout, cfg.Timeout)
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("valid config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.yaml")
		require.NoError(t, os.WriteFile(path, []byte("endpoint: http://photos.local:9000\ntimeout: 5s\n"), 0o600))

		cfg, err := clientcli.LoadConfigFile(path)
		require.NoError(t, err)
		assert.Equal(t, "http://photos.local:9000", cfg.Endpoint)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := clientcli.LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.yaml")
		require.NoError(t, os.WriteFile(path, []byte("endpoint: [unclosed"), 0o600))

		_, err := clientcli.LoadConfigFile(path)
		assert.ErrorContains(t, err, "parse config file")
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PHOTOZIP_SERVER", "http://env.local:8080")
	t.Setenv("PHOTOZIP_CLIENT_TIMEOUT", "45s")

	cfg := clientcli.ConfigFromEnv()

	assert.Equal(t, "http://env.local:8080", cfg.Endpoint)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}

func TestMergeConfig(t *testing.T) {
	merged := clientcli.MergeConfig(
		&clientcli.Config{Endpoint: "http://file.local", Timeout: time.Second},
		nil,
		&clientcli.Config{Endpoint: "http://flag.local"},
	)

	assert.Equal(t, "http://flag.local", merged.Endpoint)
	assert.Equal(t, time.Second, merged.Timeout)
}
