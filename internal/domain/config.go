package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Advice      AdviceConfig    `mapstructure:"advice"`
	Library     LibraryConfig   `mapstructure:"library"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	MCP         MCPConfig       `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
}

// AdviceConfig selects the template source and assembly strategy
type AdviceConfig struct {
	LibraryPath string `mapstructure:"library_path"`
	Strategy    string `mapstructure:"strategy"` // "proportional", "threshold"
}

// LibraryConfig controls how template libraries are fetched and cached
type LibraryConfig struct {
	CacheSize   int           `mapstructure:"cache_size"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	RedisURL    string        `mapstructure:"redis_url"` // empty disables the shared cache
	RedisTTL    time.Duration `mapstructure:"redis_ttl"`
}

// RateLimitConfig represents per-client request limits
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}

// Assembly strategy names
const (
	StrategyProportional = "proportional"
	StrategyThreshold    = "threshold"
)
