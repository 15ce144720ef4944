package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Logging.Level != "info" {
		t.Fatalf("unexpected log level: %s", cfg.Logging.Level)
	}
	if cfg.Database.Path != "data/content.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Collector.FeedTimeout.Std() != 10*time.Second {
		t.Fatalf("unexpected feed timeout: %v", cfg.Collector.FeedTimeout.Std())
	}
	if cfg.Script.Timeout.Std() != 30*time.Second {
		t.Fatalf("unexpected script timeout: %v", cfg.Script.Timeout.Std())
	}
	if cfg.Vault.Enabled {
		t.Fatal("vault must be disabled by default")
	}
	if cfg.Vault.DailyNoteDir != "DailyNotes" {
		t.Fatalf("unexpected daily note dir: %s", cfg.Vault.DailyNoteDir)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
logging:
  level: debug
database:
  path: /tmp/test.db
collector:
  feedTimeout: 5s
  interval: 1h
feeds:
  blogRss: https://blog.example.com/feed.xml
script:
  webAppUrl: https://script.example.com/exec
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Logging.Level)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Collector.FeedTimeout.Std() != 5*time.Second {
		t.Fatalf("unexpected feed timeout: %v", cfg.Collector.FeedTimeout.Std())
	}
	if cfg.Collector.Interval.Std() != time.Hour {
		t.Fatalf("unexpected interval: %v", cfg.Collector.Interval.Std())
	}
	// Values the file omits keep their defaults.
	if cfg.Collector.ScrapeTimeout.Std() != 10*time.Second {
		t.Fatalf("unexpected scrape timeout: %v", cfg.Collector.ScrapeTimeout.Std())
	}
	if cfg.Feeds.BlogRSS != "https://blog.example.com/feed.xml" {
		t.Fatalf("unexpected blog feed: %s", cfg.Feeds.BlogRSS)
	}
	if cfg.Feeds.QiitaTag != "dify" {
		t.Fatalf("unexpected qiita tag: %s", cfg.Feeds.QiitaTag)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(databasePathEnv, "/var/lib/content.db")
	t.Setenv(gasURLEnv, "https://script.example.com/exec")
	t.Setenv(gasAPIKeyEnv, "secret")
	t.Setenv(vaultPathEnv, "/vault")

	cfg := Load()

	if cfg.Database.Path != "/var/lib/content.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Script.WebAppURL != "https://script.example.com/exec" || cfg.Script.APIKey != "secret" {
		t.Fatalf("unexpected script config: %+v", cfg.Script)
	}
	if !cfg.Vault.Enabled || cfg.Vault.Path != "/vault" {
		t.Fatalf("vault env must enable the vault: %+v", cfg.Vault)
	}
}

func TestLoadBadFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging: ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected defaults on parse failure, got %s", cfg.Logging.Level)
	}
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	var d Duration
	if err := yaml.Unmarshal([]byte(`"1m30s"`), &d); err != nil {
		t.Fatalf("unmarshal duration: %v", err)
	}
	if d.Std() != 90*time.Second {
		t.Fatalf("unexpected duration: %v", d.Std())
	}

	out, err := yaml.Marshal(d)
	if err != nil {
		t.Fatalf("marshal duration: %v", err)
	}
	if string(out) != "1m30s\n" {
		t.Fatalf("unexpected yaml: %q", out)
	}

	if err := yaml.Unmarshal([]byte(`"not a duration"`), &d); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
