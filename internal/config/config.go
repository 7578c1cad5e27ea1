// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AIConfig struct {
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	DefaultModel    string        `yaml:"default_model"`
	DefaultProvider string        `yaml:"default_provider"` // openai | gemini
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	Timeout         time.Duration `yaml:"timeout"`          // per-job generation deadline
	MaxRetries      int           `yaml:"max_retries"`
	BackoffBase     time.Duration `yaml:"backoff_base"`
}

type WorkerConfig struct {
	Workers        int           `yaml:"workers"`         // pool size
	SweepInterval  time.Duration `yaml:"sweep_interval"`  // periodic sweep cadence
	StaleThreshold time.Duration `yaml:"stale_threshold"` // in-progress lock age before reclaim
}

type AuthConfig struct {
	SweepSecret string        `yaml:"sweep_secret"` // HMAC secret for the internal sweep endpoint
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Worker   WorkerConfig   `yaml:"worker"`
	Auth     AuthConfig     `yaml:"auth"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "openai"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30 * time.Second
	}
	if cfg.AI.MaxRetries <= 0 {
		cfg.AI.MaxRetries = 3
	}
	if cfg.AI.BackoffBase <= 0 {
		cfg.AI.BackoffBase = 500 * time.Millisecond
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 4
	}
	if cfg.Worker.SweepInterval <= 0 {
		cfg.Worker.SweepInterval = time.Minute
	}
	if cfg.Worker.StaleThreshold <= 0 {
		cfg.Worker.StaleThreshold = 600 * time.Second
	}
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.AI.OpenAIKey == "" && cfg.AI.GeminiKey == "" && !dev {
		return nil, errors.New("ai.openai_key or ai.gemini_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
