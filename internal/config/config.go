package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "CONTENTOPS_CONFIG"
	databasePathEnv = "DATABASE_PATH"
	gasURLEnv       = "GAS_WEB_APP_URL"
	gasAPIKeyEnv    = "GAS_API_KEY"
	vaultPathEnv    = "OBSIDIAN_VAULT_PATH"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Database  DatabaseConfig  `yaml:"database"`
	Collector CollectorConfig `yaml:"collector"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	Script    ScriptConfig    `yaml:"script"`
	Vault     VaultConfig     `yaml:"vault"`
}

// Duration wraps time.Duration so YAML values can be written as "10s".
type Duration time.Duration

// UnmarshalYAML accepts time.ParseDuration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std converts back to the standard library type.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig describes the sqlite file location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CollectorConfig bounds network calls so one slow source cannot stall a
// whole batch, and optionally schedules recurring runs.
type CollectorConfig struct {
	FeedTimeout   Duration `yaml:"feedTimeout"`
	ScrapeTimeout Duration `yaml:"scrapeTimeout"`
	Interval      Duration `yaml:"interval"`
	UserAgent     string   `yaml:"userAgent"`
}

// FeedsConfig carries the direct-collection shortcut endpoints.
type FeedsConfig struct {
	BlogRSS   string `yaml:"blogRss"`
	QiitaTag  string `yaml:"qiitaTag"`
	ZennTopic string `yaml:"zennTopic"`
}

// ScriptConfig wires the remote script (GAS) web app.
type ScriptConfig struct {
	WebAppURL string   `yaml:"webAppUrl"`
	APIKey    string   `yaml:"apiKey"`
	Timeout   Duration `yaml:"timeout"`
}

// VaultConfig describes the optional note-vault integration.
type VaultConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Path         string `yaml:"path"`
	DailyNoteDir string `yaml:"dailyNoteDir"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(gasURLEnv); v != "" {
		c.Script.WebAppURL = v
	}
	if v := os.Getenv(gasAPIKeyEnv); v != "" {
		c.Script.APIKey = v
	}
	if v := os.Getenv(vaultPathEnv); v != "" {
		c.Vault.Path = v
		c.Vault.Enabled = true
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Collector.FeedTimeout != 0 {
		base.Collector.FeedTimeout = override.Collector.FeedTimeout
	}
	if override.Collector.ScrapeTimeout != 0 {
		base.Collector.ScrapeTimeout = override.Collector.ScrapeTimeout
	}
	if override.Collector.Interval != 0 {
		base.Collector.Interval = override.Collector.Interval
	}
	if override.Collector.UserAgent != "" {
		base.Collector.UserAgent = override.Collector.UserAgent
	}

	if override.Feeds.BlogRSS != "" {
		base.Feeds.BlogRSS = override.Feeds.BlogRSS
	}
	if override.Feeds.QiitaTag != "" {
		base.Feeds.QiitaTag = override.Feeds.QiitaTag
	}
	if override.Feeds.ZennTopic != "" {
		base.Feeds.ZennTopic = override.Feeds.ZennTopic
	}

	if override.Script.WebAppURL != "" {
		base.Script.WebAppURL = override.Script.WebAppURL
	}
	if override.Script.APIKey != "" {
		base.Script.APIKey = override.Script.APIKey
	}
	if override.Script.Timeout != 0 {
		base.Script.Timeout = override.Script.Timeout
	}

	if override.Vault.Path != "" {
		base.Vault = override.Vault
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		Database: DatabaseConfig{Path: "data/content.db"},
		Collector: CollectorConfig{
			FeedTimeout:   Duration(10 * time.Second),
			ScrapeTimeout: Duration(10 * time.Second),
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Feeds: FeedsConfig{
			QiitaTag:  "dify",
			ZennTopic: "dify",
		},
		Script: ScriptConfig{Timeout: Duration(30 * time.Second)},
		Vault:  VaultConfig{DailyNoteDir: "DailyNotes"},
	}
}
