// config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreDB     = "db"
)

// Config is the gateway configuration. Values come from an optional YAML file
// and are then overridden by environment variables.
type Config struct {
	HTTPAddr            string        `yaml:"httpAddr"`
	APIURL              string        `yaml:"apiUrl"`
	APITimeout          time.Duration `yaml:"apiTimeout"`
	JWTSecret           string        `yaml:"jwtSecret"`
	SecureCookies       bool          `yaml:"secureCookies"`
	DBURL               string        `yaml:"dbUrl"`
	RedisAddr           string        `yaml:"redisAddr"`
	SessionStore        string        `yaml:"sessionStore"`
	SessionTTL          time.Duration `yaml:"sessionTtl"`
	UserRefreshInterval time.Duration `yaml:"userRefreshInterval"`
	LogLevel            string        `yaml:"logLevel"`
	LogFormat           string        `yaml:"logFormat"`
	WarningRules        []WarningRule `yaml:"warningRules"`
}

// WarningRule is a named boolean expression evaluated for every agreement.
type WarningRule struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPAddr:            ":8080",
		APIURL:              "http://localhost:3333",
		APITimeout:          30 * time.Second,
		SessionStore:        StoreMemory,
		SessionTTL:          12 * time.Hour,
		UserRefreshInterval: 10 * time.Minute,
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// Load reads the YAML file at path (skipped when empty) and applies the
// environment on top of it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads the YAML file at path over the defaults, without the
// environment and without validating.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	str("ATENA_API_URL", &c.APIURL)
	str("JWT_SECRET", &c.JWTSecret)
	str("DB_URL", &c.DBURL)
	str("REDIS_ADDR", &c.RedisAddr)
	str("SESSION_STORE", &c.SessionStore)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	if v, ok := lookup("SECURE_COOKIES"); ok {
		c.SecureCookies = v == "1" || strings.EqualFold(v, "true")
	}

	for key, dst := range map[string]*time.Duration{
		"API_TIMEOUT":           &c.APITimeout,
		"SESSION_TTL":           &c.SessionTTL,
		"USER_REFRESH_INTERVAL": &c.UserRefreshInterval,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the settings that have no usable default.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.APIURL == "" {
		return fmt.Errorf("ATENA_API_URL is not set")
	}
	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("session store %q needs REDIS_ADDR", c.SessionStore)
		}
	case StoreDB:
		if c.DBURL == "" {
			return fmt.Errorf("session store %q needs DB_URL", c.SessionStore)
		}
	default:
		return fmt.Errorf("unknown session store %q", c.SessionStore)
	}
	for i, r := range c.WarningRules {
		if r.Name == "" || r.Expression == "" {
			return fmt.Errorf("warning rule #%d needs a name and an expression", i+1)
		}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
