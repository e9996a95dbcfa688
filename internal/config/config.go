// Package config loads server and CLI settings from a TOML file, an optional
// .env file and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/pkg/logging"
)

// EnvPrefix prefixes every splitledger-specific environment variable.
const EnvPrefix = "SPLITLEDGER_"

// Config holds all splitledger configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Ledger   LedgerConfig   `toml:"ledger"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int    `toml:"port"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// DatabaseConfig holds the SQLite location.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret,omitempty"`
	TokenTTL  string `toml:"token_ttl"`
}

// LedgerConfig holds reconciliation and settlement settings.
type LedgerConfig struct {
	Currency money.Currency `toml:"currency"`
	// DefaultPayer receives the full total when reconciling a record that has
	// no participants and no category defaults. It must be a registered
	// participant; empty means such records cannot be reconciled.
	DefaultPayer string `toml:"default_payer,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: "10s",
		},
		Database: DatabaseConfig{
			Path: "./data/splitledger.db",
		},
		Auth: AuthConfig{
			TokenTTL: "24h",
		},
		Ledger: LedgerConfig{
			Currency: money.DefaultCurrency,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path (if any), then .env, then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			slog.Debug("Config file not found, using defaults", "path", path)
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := lookupEnv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid port '%s': must be a number", v)
		}
		c.Server.Port = port
	}
	if v := lookupEnv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := lookupEnv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := lookupEnv("TOKEN_TTL"); v != "" {
		c.Auth.TokenTTL = v
	}
	if v := lookupEnv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := lookupEnv("CURRENCY"); v != "" {
		c.Ledger.Currency.Code = strings.ToUpper(v)
	}
	if v := lookupEnv("CURRENCY_PLACES"); v != "" {
		places, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid currency places '%s': must be a number", v)
		}
		c.Ledger.Currency.Places = int32(places)
	}
	if v := lookupEnv("DEFAULT_PAYER"); v != "" {
		c.Ledger.DefaultPayer = v
	}
	return nil
}

// lookupEnv prefers SPLITLEDGER_<key> and falls back to the bare key.
func lookupEnv(key string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return os.Getenv(key)
}

// TokenDuration parses Auth.TokenTTL.
func (c Config) TokenDuration() (time.Duration, error) {
	return time.ParseDuration(c.Auth.TokenTTL)
}

// ShutdownDuration parses Server.ShutdownTimeout.
func (c Config) ShutdownDuration() (time.Duration, error) {
	return time.ParseDuration(c.Server.ShutdownTimeout)
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Validate reports every configuration problem at once.
// A JWT secret is only required when requireSecret is set (the server).
func (c Config) Validate(requireSecret bool) error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if requireSecret {
		if c.Auth.JWTSecret == "" {
			errs = append(errs, "JWT secret is required (set "+EnvPrefix+"JWT_SECRET)")
		} else if len(c.Auth.JWTSecret) < 16 {
			errs = append(errs, "JWT secret must be at least 16 characters")
		}
	}
	if d, err := c.TokenDuration(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid token TTL '%s': %v", c.Auth.TokenTTL, err))
	} else if d < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", d))
	}
	if d, err := c.ShutdownDuration(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout '%s': %v", c.Server.ShutdownTimeout, err))
	} else if d <= 0 {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be positive", d))
	}

	if err := c.Ledger.Currency.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if code := c.Ledger.Currency.Code; code != "" && len(code) != 3 {
		errs = append(errs, fmt.Sprintf("invalid currency code '%s': must be 3 letters", code))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
