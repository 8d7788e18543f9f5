package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=console json"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path" validate:"required"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"required"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl" validate:"gt=0"`
	BcryptCost  int           `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost" validate:"gte=4,lte=31"`

	AuthTimeout     time.Duration `mapstructure:"auth_timeout" yaml:"auth_timeout" validate:"gt=0"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	InviteCodeLength int `mapstructure:"invite_code_length" yaml:"invite_code_length" validate:"gte=6,lte=64"`
	HistoryPageSize  int `mapstructure:"history_page_size" yaml:"history_page_size" validate:"gt=0,lte=100"`

	MessageLimitPerWindow  int           `mapstructure:"message_limit_per_window" yaml:"message_limit_per_window" validate:"gte=0"`
	MessageLimitWindow     time.Duration `mapstructure:"message_limit_window" yaml:"message_limit_window" validate:"gt=0"`
	RateLimitSweepInterval time.Duration `mapstructure:"rate_limit_sweep_interval" yaml:"rate_limit_sweep_interval" validate:"gt=0"`
	RateLimitWarnThreshold int           `mapstructure:"rate_limit_warn_threshold" yaml:"rate_limit_warn_threshold" validate:"gte=0"`

	APIRateLimitMaxRequests int           `mapstructure:"api_rate_limit_max_requests" yaml:"api_rate_limit_max_requests" validate:"gte=0"`
	APIRateLimitWindow      time.Duration `mapstructure:"api_rate_limit_window" yaml:"api_rate_limit_window" validate:"gt=0"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":4000",
		LogLevel:          "info",
		LogFormat:         "console",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "roomchat.db",

		JWTIssuer:   "roomchat",
		JWTAudience: "roomchat",
		JWTTTL:      24 * time.Hour,
		BcryptCost:  12,

		AuthTimeout:     5 * time.Second,
		MaxMessageBytes: 64 << 10,
		AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:3001"},

		InviteCodeLength: 10,
		HistoryPageSize:  20,

		MessageLimitPerWindow:  5,
		MessageLimitWindow:     10 * time.Second,
		RateLimitSweepInterval: time.Minute,
		RateLimitWarnThreshold: 2,

		APIRateLimitMaxRequests: 100,
		APIRateLimitWindow:      15 * time.Minute,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Used for command line overrides, which only carry the values that were set.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
}

// Validate checks value ranges and required settings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Warnings lists settings that are valid but unsafe for production.
func (c *Config) Warnings() []string {
	var warnings []string
	if len(c.JWTSecret) < 32 {
		warnings = append(warnings, "jwt_secret is shorter than 32 characters")
	}
	if c.BcryptCost < 10 {
		warnings = append(warnings, "bcrypt_cost below 10 weakens password hashing")
	}
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			warnings = append(warnings, "allowed_origins contains '*', websocket origin checks are disabled")
			break
		}
	}
	return warnings
}
