package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/health-advisor-server/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g. HEALTH_ADVISOR_SERVER_PORT
const EnvPrefix = "HEALTH_ADVISOR"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v           *viper.Viper
	configFile  string
	searchPaths []string
	config      *domain.Config
}

// Option customises how a Manager finds its configuration
type Option func(*Manager)

// WithConfigFile reads exactly this file instead of searching for config.yaml
func WithConfigFile(path string) Option {
	return func(m *Manager) {
		m.configFile = path
	}
}

// WithSearchPaths replaces the directories searched for config.yaml
func WithSearchPaths(paths ...string) Option {
	return func(m *Manager) {
		m.searchPaths = paths
	}
}

// NewManager creates a new configuration manager. A .env file in the working
// directory, if present, is loaded into the environment first.
func NewManager(opts ...Option) (*Manager, error) {
	_ = godotenv.Load()

	m := &Manager{
		searchPaths: []string{".", "./config", "/etc/health-advisor/"},
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from defaults, the config file and the environment
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range m.searchPaths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The config file is optional; defaults and environment variables suffice
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.allow_origins", []string{"*"})

	// Advice defaults
	v.SetDefault("advice.library_path", "data/advice.json")
	v.SetDefault("advice.strategy", domain.StrategyProportional)

	// Template library defaults
	v.SetDefault("library.cache_size", 16)
	v.SetDefault("library.cache_ttl", "5m")
	v.SetDefault("library.http_timeout", "10s")
	v.SetDefault("library.redis_url", "")
	v.SetDefault("library.redis_ttl", "1h")

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 5.0)
	v.SetDefault("rate_limit.burst", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// MCP defaults
	v.SetDefault("mcp.server_name", "health-advisor")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetAdviceConfig returns advice configuration
func (m *Manager) GetAdviceConfig() *domain.AdviceConfig {
	return &m.config.Advice
}

// GetLibraryConfig returns template library configuration
func (m *Manager) GetLibraryConfig() *domain.LibraryConfig {
	return &m.config.Library
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max body bytes must be positive")
	}

	if strings.TrimSpace(config.Advice.LibraryPath) == "" {
		return fmt.Errorf("advice library path is required")
	}
	switch config.Advice.Strategy {
	case domain.StrategyProportional, domain.StrategyThreshold:
	default:
		return fmt.Errorf("invalid advice strategy: %s", config.Advice.Strategy)
	}

	if config.Library.CacheSize < 0 {
		return fmt.Errorf("library cache size cannot be negative")
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate limit requests per second must be positive")
		}
		if config.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate limit burst must be positive")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
