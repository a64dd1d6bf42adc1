// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultValidityDays is the entitlement length used when a redeem code has no
// explicit validity and for paid purchases, unless overridden by
// entitlement.default_validity_days.
const DefaultValidityDays = 30

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Issuer    string        `yaml:"issuer"`
}

type EntitlementConfig struct {
	DefaultValidityDays int `yaml:"default_validity_days"`
	CodeLength          int `yaml:"code_length"`
	MaxBatch            int `yaml:"max_batch"`
	GenerateAttempts    int `yaml:"generate_attempts"`
}

type NotificationConfig struct {
	Workers            int           `yaml:"workers"`
	PublishTimeout     time.Duration `yaml:"publish_timeout"`
	SweepInterval      time.Duration `yaml:"sweep_interval"`
	ExpiringWithinDays int           `yaml:"expiring_within_days"`
}

type AlertConfig struct {
	TelegramToken string  `yaml:"telegram_token"`
	AdminChatIDs  []int64 `yaml:"admin_chat_ids"`
}

type RateLimitConfig struct {
	RedeemPerWindow int           `yaml:"redeem_per_window"`
	Window          time.Duration `yaml:"window"`
}

type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Log           LogConfig          `yaml:"log"`
	Database      DatabaseConfig     `yaml:"database"`
	Redis         RedisConfig        `yaml:"redis"`
	Auth          AuthConfig         `yaml:"auth"`
	Entitlement   EntitlementConfig  `yaml:"entitlement"`
	Notifications NotificationConfig `yaml:"notifications"`
	Alerts        AlertConfig        `yaml:"alerts"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, overlays environment variables (a
// local .env file is loaded first when present), fills defaults and validates
// the minimum required settings.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployments
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Alerts.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_ADMIN_CHAT_IDS"); v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("TELEGRAM_ADMIN_CHAT_IDS: %w", err)
		}
		cfg.Alerts.AdminChatIDs = ids
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownGrace <= 0 {
		cfg.Server.ShutdownGrace = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "quiz-exam-platform"
	}
	if cfg.Entitlement.DefaultValidityDays <= 0 {
		cfg.Entitlement.DefaultValidityDays = DefaultValidityDays
	}
	if cfg.Entitlement.CodeLength <= 0 {
		cfg.Entitlement.CodeLength = 8
	}
	if cfg.Entitlement.MaxBatch <= 0 {
		cfg.Entitlement.MaxBatch = 500
	}
	if cfg.Entitlement.GenerateAttempts <= 0 {
		cfg.Entitlement.GenerateAttempts = 5
	}
	if cfg.Notifications.Workers <= 0 {
		cfg.Notifications.Workers = 4
	}
	if cfg.Notifications.PublishTimeout <= 0 {
		cfg.Notifications.PublishTimeout = 3 * time.Second
	}
	if cfg.Notifications.SweepInterval <= 0 {
		cfg.Notifications.SweepInterval = time.Hour
	}
	if cfg.Notifications.ExpiringWithinDays <= 0 {
		cfg.Notifications.ExpiringWithinDays = 3
	}
	if cfg.RateLimit.RedeemPerWindow <= 0 {
		cfg.RateLimit.RedeemPerWindow = 10
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 bytes")
	}
	if c.Entitlement.CodeLength < 6 {
		return errors.New("entitlement.code_length must be at least 6")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}

func parseIDs(s string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
