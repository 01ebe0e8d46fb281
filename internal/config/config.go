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

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PaymentConfig struct {
	PayUnit struct {
		APIUser     string `yaml:"api_user"`
		APIPassword string `yaml:"api_password"`
		APIKey      string `yaml:"api_key"`
		Mode        string `yaml:"mode"` // test | live
	} `yaml:"payunit"`
	Currency       string `yaml:"currency"`
	Country        string `yaml:"country"`
	DefaultGateway string `yaml:"default_gateway"` // fallback shortcode, may be empty
	ReturnURL      string `yaml:"return_url"`
	NotifyURL      string `yaml:"notify_url"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type SecurityConfig struct {
	// EncryptionKey enables at-rest encryption of payer phone numbers when
	// set. Must be 16, 24, or 32 bytes.
	EncryptionKey string `yaml:"encryption_key"`
}

type AdminConfig struct {
	APIKey     string        `yaml:"api_key"` // exchanged for a session JWT at login
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Payment    PaymentConfig    `yaml:"payment"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Security   SecurityConfig   `yaml:"security"`
	Admin      AdminConfig      `yaml:"admin"`

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
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Payment.Currency == "" {
		cfg.Payment.Currency = "XAF"
	}
	if cfg.Payment.Country == "" {
		cfg.Payment.Country = "CM"
	}
	if cfg.Payment.PayUnit.Mode == "" {
		cfg.Payment.PayUnit.Mode = "test"
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}

	// minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if !dev && (cfg.Payment.PayUnit.APIUser == "" || cfg.Payment.PayUnit.APIKey == "") {
		return nil, errors.New("payment.payunit credentials are required")
	}
	if cfg.Payment.NotifyURL == "" {
		return nil, errors.New("payment.notify_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
