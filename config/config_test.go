package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bumper/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".bumper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	t.Run("should target the public index and the standard files", func(t *testing.T) {
		t.Parallel()

		// when
		cfg := config.Default()

		// then
		assert.Equal(t, "https://pypi.org/pypi", cfg.Index.URL)
		assert.Equal(t, []string{"requirements.txt", "pinned.txt"}, cfg.Targets)
		assert.Equal(t, 15*time.Second, cfg.Index.Timeout())
	})
}

func TestLoad(t *testing.T) {
	t.Run("should load a full config file", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, `
index:
  url: https://mirror.example.com/pypi
  timeout_seconds: 30
targets:
  - deploy/pinned.txt
`)

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://mirror.example.com/pypi", cfg.Index.URL)
		assert.Equal(t, 30*time.Second, cfg.Index.Timeout())
		assert.Equal(t, []string{"deploy/pinned.txt"}, cfg.Targets)
	})

	t.Run("should fall back to defaults for missing fields", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "index:\n  timeout_seconds: 5\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "https://pypi.org/pypi", cfg.Index.URL)
		assert.Equal(t, []string{"requirements.txt", "pinned.txt"}, cfg.Targets)
		assert.Equal(t, 5*time.Second, cfg.Index.Timeout())
	})

	t.Run("should expand environment variables in the token", func(t *testing.T) {
		// given
		t.Setenv("BUMPER_TEST_TOKEN", "secret-token")
		path := writeConfig(t, "index:\n  github_token: ${BUMPER_TEST_TOKEN}\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "secret-token", cfg.Index.GitHubToken)
	})

	t.Run("should read the token from a file path", func(t *testing.T) {
		t.Parallel()

		// given
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("file-token\n"), 0o600))
		path := writeConfig(t, "index:\n  github_token: "+tokenFile+"\n")

		// when
		cfg, err := config.Load(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "file-token", cfg.Index.GitHubToken)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// then
		assert.Error(t, err)
	})

	t.Run("should fail on malformed yaml", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeConfig(t, "index: [not a map\n")

		// when
		_, err := config.Load(path)

		// then
		assert.Error(t, err)
	})
}
