package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if c.IBISWorld.Country != "US" || c.IBISWorld.Language != "English" {
		t.Fatalf("unexpected locale %s/%s", c.IBISWorld.Country, c.IBISWorld.Language)
	}
	if c.IBISWorld.RateLimitPerSecond != 8 || c.IBISWorld.MaxAttempts != 3 {
		t.Fatalf("unexpected limits %v/%d", c.IBISWorld.RateLimitPerSecond, c.IBISWorld.MaxAttempts)
	}
	if c.IBISWorld.BackoffMin != time.Second || c.IBISWorld.BackoffMax != 10*time.Second {
		t.Fatalf("unexpected backoff %v..%v", c.IBISWorld.BackoffMin, c.IBISWorld.BackoffMax)
	}
	if len(c.Export.Sections) != 3 || c.Export.Sections[0] != "keystatistics" {
		t.Fatalf("unexpected sections %v", c.Export.Sections)
	}
	if c.Cache.Backend != "file" || c.Cache.Dir != "cache" {
		t.Fatalf("unexpected cache %s %s", c.Cache.Backend, c.Cache.Dir)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("expected default port, got %d", c.Server.Port)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
ibisworld:
  country: GB
  rate_limit_per_second: 2
cache:
  backend: sqlite
export:
  sections: [keyratios]
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.IBISWorld.Country != "GB" || c.IBISWorld.RateLimitPerSecond != 2 {
		t.Fatalf("yaml not applied: %+v", c.IBISWorld)
	}
	if c.IBISWorld.Language != "English" {
		t.Fatalf("default language lost: %q", c.IBISWorld.Language)
	}
	if c.Cache.Backend != "sqlite" || len(c.Export.Sections) != 1 {
		t.Fatalf("unexpected cache/export %s %v", c.Cache.Backend, c.Export.Sections)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"backend":  "cache:\n  backend: mongo\n",
		"backoff":  "ibisworld:\n  backoff_min: 5s\n  backoff_max: 1s\n",
		"sink":     "export:\n  sinks: [s3]\n",
		"kafka":    "export:\n  sinks: [kafka]\n",
		"attempts": "ibisworld:\n  max_attempts: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	env := map[string]string{
		"IBISWORLD_TOKEN":       "tok",
		"IBISWORLD_CLIENT_ID":   "id",
		"SEGPULL_CACHE_DIR":     "/tmp/segcache",
		"SEGPULL_CACHE_BACKEND": "memory",
		"KAFKA_BROKERS":         "a:9092,b:9092",
	}
	c.applyEnv(func(k string) string { return env[k] })

	if c.IBISWorld.Token != "tok" || c.IBISWorld.ClientID != "id" {
		t.Fatalf("credentials not applied: %+v", c.IBISWorld)
	}
	if c.Cache.Dir != "/tmp/segcache" || c.Cache.Backend != "memory" {
		t.Fatalf("cache env not applied: %s %s", c.Cache.Dir, c.Cache.Backend)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Brokers[1] != "b:9092" {
		t.Fatalf("brokers not split: %v", c.Kafka.Brokers)
	}
	if c.Kafka.Topic != "segpull.segment_records" {
		t.Fatalf("unset env changed topic: %q", c.Kafka.Topic)
	}
}

func TestLoadWithEnvAppliesEnvironment(t *testing.T) {
	t.Setenv("IBISWORLD_BASE_URL", "http://127.0.0.1:9999")
	c, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.IBISWorld.BaseURL != "http://127.0.0.1:9999" {
		t.Fatalf("unexpected base url %q", c.IBISWorld.BaseURL)
	}
}
