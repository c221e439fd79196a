package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/saavn/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	filename := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o600))

	return filename
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	filename := writeConfig(t, "log:\n  format: json\n")

	conf, err := config.Load(filename)
	require.NoError(t, err)

	assert.Equal(t, "info", conf.Log.Level)
	assert.Equal(t, "json", conf.Log.Format)
	assert.Equal(t, "https://www.jiosaavn.com/api.php", conf.Saavn.BaseURL)
	assert.Equal(t, "web6dot0", conf.Saavn.Context)
	assert.Equal(t, 4, conf.Saavn.Concurrency)
	assert.Equal(t, 10*time.Second, conf.Saavn.Timeouts.APIDuration())
	assert.Equal(t, 2, conf.Saavn.Retries.MaxRetries())
	assert.Equal(t, 500*time.Millisecond, conf.Saavn.Retries.BaseDelay.Duration)
	assert.True(t, conf.Saavn.Cache.IsEnabled())
	assert.Equal(t, 10*time.Minute, conf.Saavn.Cache.TTL.Duration)
	assert.Equal(t, "320kbps", conf.Downloads.Bitrate)
	assert.Equal(t, "./downloads", conf.Downloads.Dir)
}

func TestLoadKeepsExplicitZeroes(t *testing.T) {
	t.Parallel()

	filename := writeConfig(t, `
saavn:
  concurrency: 1
  retries:
    max: 0
    base_delay: 2s
  cache:
    enabled: false
`)

	conf, err := config.Load(filename)
	require.NoError(t, err)

	assert.Equal(t, 1, conf.Saavn.Concurrency)
	assert.Equal(t, 0, conf.Saavn.Retries.MaxRetries())
	assert.Equal(t, 2*time.Second, conf.Saavn.Retries.BaseDelay.Duration)
	assert.False(t, conf.Saavn.Cache.IsEnabled())
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "invalid log level",
			content: "log:\n  level: loud\n",
			errMsg:  "level must be one of",
		},
		{
			name:    "invalid log format",
			content: "log:\n  format: xml\n",
			errMsg:  "format must be 'json' or 'pretty'",
		},
		{
			name:    "base url without scheme",
			content: "saavn:\n  base_url: www.jiosaavn.com/api.php\n",
			errMsg:  "base_url scheme must be http or https",
		},
		{
			name:    "negative concurrency",
			content: "saavn:\n  concurrency: -1\n",
			errMsg:  "concurrency must be greater than 0",
		},
		{
			name:    "unknown bitrate",
			content: "downloads:\n  bitrate: 256kbps\n",
			errMsg:  "bitrate must be one of",
		},
		{
			name:    "invalid duration",
			content: "saavn:\n  cache:\n    ttl: soon\n",
			errMsg:  "failed to parse duration",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(writeConfig(t, test.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.errMsg)
		})
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SAAVN_LOG_LEVEL", "debug")
	t.Setenv("SAAVN_DOWNLOADS_DIR", dir)

	conf, err := config.Load(writeConfig(t, "log:\n  level: error\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", conf.Log.Level)
	assert.Equal(t, dir, conf.Downloads.Dir)
}
