// Package config loads pipeline configuration from file and environment.
// Values are read once at startup and treated as immutable afterwards.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SourceConfig holds one agency's crawl addresses. ListURL serves the
// paginated and tree sources; IndexURL is the discovery root of the
// multi-level source.
type SourceConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	ListURL  string `mapstructure:"list_url"`
	IndexURL string `mapstructure:"index_url"`
}

// HTTPConfig mirrors the fetch client knobs.
type HTTPConfig struct {
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
	MaxRetries      int    `mapstructure:"max_retries"`
	UserAgent       string `mapstructure:"user_agent"`
}

// Timeout returns the request timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Interval returns the politeness delay as a duration.
func (c HTTPConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// LoggingConfig selects logger construction.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig controls the optional scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// CrawlConfig bounds the paginated crawl.
type CrawlConfig struct {
	StartPage int `mapstructure:"start_page"`
	MaxPages  int `mapstructure:"max_pages"`
}

// UploadConfig controls the Gemini upload run.
type UploadConfig struct {
	StoreName    string `mapstructure:"store_name"`
	DelaySeconds int    `mapstructure:"delay_seconds"`
	MaxRetries   int    `mapstructure:"max_retries"`
	ManifestPath string `mapstructure:"manifest_path"`
	MappingPath  string `mapstructure:"mapping_path"`
}

// SourcesConfig groups the three agencies.
type SourcesConfig struct {
	MOL  SourceConfig `mapstructure:"mol"`
	BLI  SourceConfig `mapstructure:"bli"`
	OSHA SourceConfig `mapstructure:"osha"`
}

// Config is the root document.
type Config struct {
	DataDir      string        `mapstructure:"data_dir"`
	PlaintextDir string        `mapstructure:"plaintext_dir"`
	Logging      LoggingConfig `mapstructure:"logging"`
	HTTP         HTTPConfig    `mapstructure:"http"`
	Metrics      MetricsConfig `mapstructure:"metrics"`
	Crawl        CrawlConfig   `mapstructure:"crawl"`
	Upload       UploadConfig  `mapstructure:"upload"`
	Sources      SourcesConfig `mapstructure:"sources"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("plaintext_dir", "data/plaintext/faq_individual")
	v.SetDefault("logging.development", false)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.interval_seconds", 2)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.user_agent", "laborfaq-bot/1.0")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("crawl.start_page", 1)
	v.SetDefault("crawl.max_pages", 0)
	v.SetDefault("upload.store_name", "labor-faq")
	v.SetDefault("upload.delay_seconds", 3)
	v.SetDefault("upload.max_retries", 3)
	v.SetDefault("upload.manifest_path", "data/temp_uploads/faq_upload_manifest.json")
	v.SetDefault("upload.mapping_path", "data/faq_gemini_id_mapping.json")
	v.SetDefault("sources.mol.base_url", "https://www.mol.gov.tw")
	v.SetDefault("sources.mol.list_url", "https://www.mol.gov.tw/1607/28690/faq/")
	v.SetDefault("sources.bli.base_url", "https://www.bli.gov.tw")
	v.SetDefault("sources.bli.list_url", "https://www.bli.gov.tw/0100098.html")
	v.SetDefault("sources.osha.base_url", "https://www.osha.gov.tw")
	v.SetDefault("sources.osha.index_url", "https://www.osha.gov.tw/48110/48461/48463/nodelist")
}

// Load reads configuration from the optional file path plus LABORFAQ_*
// environment variables and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LABORFAQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails fast on missing required addresses. A crawler without its
// URL cannot be constructed, so this is fatal at startup.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	checks := []struct {
		name  string
		value string
	}{
		{"sources.mol.base_url", c.Sources.MOL.BaseURL},
		{"sources.mol.list_url", c.Sources.MOL.ListURL},
		{"sources.bli.base_url", c.Sources.BLI.BaseURL},
		{"sources.bli.list_url", c.Sources.BLI.ListURL},
		{"sources.osha.base_url", c.Sources.OSHA.BaseURL},
		{"sources.osha.index_url", c.Sources.OSHA.IndexURL},
	}
	for _, check := range checks {
		if check.value == "" {
			return fmt.Errorf("%s is required", check.name)
		}
	}
	return nil
}
