package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, 30, cfg.HTTP.TimeoutSeconds)
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
	require.Equal(t, 1, cfg.Crawl.StartPage)
	require.Equal(t, "labor-faq", cfg.Upload.StoreName)
	require.NotEmpty(t, cfg.Sources.MOL.ListURL)
	require.NotEmpty(t, cfg.Sources.OSHA.IndexURL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/laborfaq
http:
  timeout_seconds: 10
  max_retries: 5
sources:
  mol:
    list_url: https://example.gov.tw/faq
metrics:
  enabled: true
  addr: ":9100"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/laborfaq", cfg.DataDir)
	require.Equal(t, 10, cfg.HTTP.TimeoutSeconds)
	require.Equal(t, 5, cfg.HTTP.MaxRetries)
	require.Equal(t, "https://example.gov.tw/faq", cfg.Sources.MOL.ListURL)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, ":9100", cfg.Metrics.Addr)
	require.Equal(t, 2, cfg.HTTP.IntervalSeconds, "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Sources.OSHA.IndexURL = ""
	err = cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "sources.osha.index_url")

	cfg.Sources.OSHA.IndexURL = "https://example.gov.tw"
	cfg.DataDir = ""
	require.Error(t, cfg.Validate())
}

func TestHTTPDurations(t *testing.T) {
	h := HTTPConfig{TimeoutSeconds: 10, IntervalSeconds: 2}
	require.Equal(t, "10s", h.Timeout().String())
	require.Equal(t, "2s", h.Interval().String())
}
