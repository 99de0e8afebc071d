package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFindAndLoadConfig_Defaults(t *testing.T) {
	cfg, err := FindAndLoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
	assert.Equal(t, 30*time.Second, cfg.TimeoutDuration())
	assert.True(t, cfg.GetParseJSON())
	assert.True(t, cfg.GetFollowRedirects())
	assert.False(t, cfg.GetRequestID())
}

func TestFindAndLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".jsonpost.yaml", `
timeout: 1500
mode: stream
engine: resty
parse_json: false
headers:
  X-Api-Key: secret
`)

	cfg, err := FindAndLoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.TimeoutDuration())
	assert.Equal(t, "stream", cfg.Mode)
	assert.Equal(t, "resty", cfg.Engine)
	assert.False(t, cfg.GetParseJSON())
	// viper lower-cases map keys; header names are case-insensitive anyway
	assert.Equal(t, map[string]string{"x-api-key": "secret"}, cfg.Headers)
	assert.Equal(t, "console", cfg.Output)
}

func TestLoadConfig_JSONPath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.json", `{"output": "yaml", "request_id": true}`)

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "yaml", cfg.Output)
	assert.True(t, cfg.GetRequestID())
	assert.Equal(t, 30000, cfg.Timeout)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", "timeout: 1500\n")
	t.Setenv("JSONPOST_TIMEOUT", "2500")
	t.Setenv("JSONPOST_NO_COLOR", "true")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 2500, cfg.Timeout)
	assert.True(t, cfg.GetNoColor())
}

func TestLoadConfig_ZeroMaxRedirects(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "max_redirects: 0\n")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 0, cfg.MaxRedirects)
	assert.True(t, cfg.GetFollowRedirects())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"bad mode", "mode: tee\n", "invalid mode"},
		{"bad engine", "engine: curl\n", "invalid engine"},
		{"bad output", "output: xml\n", "invalid output"},
		{"negative timeout", "timeout: -1\n", "invalid timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.yaml", tt.content)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_Merge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1", "B": "1"}

	merged := base.Merge(&Config{
		Timeout:   500,
		Engine:    "resty",
		ParseJSON: BoolPtr(false),
		Headers:   map[string]string{"B": "2"},
	})

	assert.Equal(t, 500, merged.Timeout)
	assert.Equal(t, "resty", merged.Engine)
	assert.Equal(t, "buffer", merged.Mode)
	assert.False(t, merged.GetParseJSON())
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)

	// base is untouched
	assert.Equal(t, map[string]string{"A": "1", "B": "1"}, base.Headers)
	assert.Nil(t, base.ParseJSON)
	assert.Same(t, base, base.Merge(nil))
}

func TestConfig_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig().Merge(&Config{Mode: "stream", NoColor: BoolPtr(true)})

	for _, name := range []string{"saved.yaml", "saved.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, cfg.SaveConfig(path))

			loaded, err := LoadConfig(path)
			require.NoError(t, err)
			assert.Equal(t, "stream", loaded.Mode)
			assert.True(t, loaded.GetNoColor())
		})
	}
}
