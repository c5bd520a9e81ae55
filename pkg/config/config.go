package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"SegPull/pkg/logger"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development"`
	Log         logger.Config `yaml:"log"`
	IBISWorld   struct {
		BaseURL            string        `yaml:"base_url" default:"https://api.ibisworld.com/v3" validate:"required,url"`
		Token              string        `yaml:"token"`
		ClientID           string        `yaml:"client_id"`
		ClientSecret       string        `yaml:"client_secret"`
		TokenURL           string        `yaml:"token_url" validate:"omitempty,url"`
		Country            string        `yaml:"country" default:"US" validate:"required"`
		Language           string        `yaml:"language" default:"English" validate:"required"`
		RateLimitPerSecond float64       `yaml:"rate_limit_per_second" default:"8" validate:"gte=0"`
		Timeout            time.Duration `yaml:"timeout" default:"30s"`
		TokenTimeout       time.Duration `yaml:"token_timeout" default:"20s"`
		MaxAttempts        int           `yaml:"max_attempts" default:"3" validate:"gte=1,lte=10"`
		BackoffMin         time.Duration `yaml:"backoff_min" default:"1s"`
		BackoffMax         time.Duration `yaml:"backoff_max" default:"10s"`
	} `yaml:"ibisworld"`
	Cache struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Backend string `yaml:"backend" default:"file" validate:"oneof=file redis sqlite memory"`
		Dir     string `yaml:"dir" default:"cache"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"segpull"`
		} `yaml:"redis"`
		SQLite struct {
			Path  string `yaml:"path" default:"cache/segpull.db"`
			Table string `yaml:"table" default:"cache_entries"`
		} `yaml:"sqlite"`
	} `yaml:"cache"`
	Export struct {
		Sections []string `yaml:"sections" default:"[\"keystatistics\",\"currentyearoverview\",\"keyratios\"]" validate:"min=1"`
		Out      string   `yaml:"out" default:"segments.csv"`
		Sinks    []string `yaml:"sinks" validate:"dive,oneof=kafka clickhouse"`
	} `yaml:"export"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"5s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"segpull.segment_records"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"segpull"`
		Table            string        `yaml:"table" default:"segment_records"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Default returns a configuration holding only default values.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. An empty path yields
// the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("IBISWORLD_TOKEN"); v != "" {
		c.IBISWorld.Token = v
	}
	if v := getenv("IBISWORLD_CLIENT_ID"); v != "" {
		c.IBISWorld.ClientID = v
	}
	if v := getenv("IBISWORLD_CLIENT_SECRET"); v != "" {
		c.IBISWorld.ClientSecret = v
	}
	if v := getenv("IBISWORLD_TOKEN_URL"); v != "" {
		c.IBISWorld.TokenURL = v
	}
	if v := getenv("IBISWORLD_BASE_URL"); v != "" {
		c.IBISWorld.BaseURL = v
	}
	if v := getenv("SEGPULL_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := getenv("SEGPULL_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
}

// Validate checks if the configuration is valid. Upstream credentials are
// checked by the client when a request is made.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.IBISWorld.BackoffMax < c.IBISWorld.BackoffMin {
		return fmt.Errorf("ibisworld.backoff_max must be >= backoff_min")
	}
	for _, s := range c.Export.Sinks {
		if s == "kafka" && len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when the kafka sink is enabled")
		}
	}
	return nil
}
