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

type AdminConfig struct {
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type GeneratorConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

type GuardConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type SweepConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type RateLimitConfig struct {
	VerifyPerMinute int `yaml:"verify_per_minute"`
}

type AIConfig struct {
	GeminiKey    string `yaml:"gemini_key"`
	GeminiURL    string `yaml:"gemini_url"`
	OpenAIKey    string `yaml:"openai_key"`
	DefaultModel string `yaml:"default_model"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Admin     AdminConfig     `yaml:"admin"`
	Generator GeneratorConfig `yaml:"generator"`
	Guard     GuardConfig     `yaml:"guard"`
	Sweep     SweepConfig     `yaml:"sweep"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	AI        AIConfig        `yaml:"ai"`

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
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Generator.MaxAttempts <= 0 {
		cfg.Generator.MaxAttempts = 5
	}
	cfg.Guard.Interval = normalizeGuardInterval(cfg.Guard.Interval)
	if cfg.Sweep.Interval <= 0 {
		cfg.Sweep.Interval = time.Hour
	}
	if cfg.RateLimit.VerifyPerMinute <= 0 {
		cfg.RateLimit.VerifyPerMinute = 10
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gemini-2.0-flash"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Admin.Username == "" || cfg.Admin.Password == "" {
		return nil, errors.New("admin.username and admin.password are required")
	}
	if cfg.Admin.JWTSecret == "" {
		return nil, errors.New("admin.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// normalizeGuardInterval enforces the 30s floor on session re-validation to
// bound repeated reads of the store.
func normalizeGuardInterval(d time.Duration) time.Duration {
	if d < 30*time.Second {
		return 30 * time.Second
	}
	return d
}
