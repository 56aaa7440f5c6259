package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. CASCONTACTS_SERVER_PORT.
const EnvPrefix = "CASCONTACTS"

// Load loads configuration from environment variables and config files
func Load() (*viper.Viper, error) {
	return LoadFile("")
}

// LoadFile loads configuration, reading configFile when it is non-empty and
// otherwise searching the usual locations for config.yaml.
func LoadFile(configFile string) (*viper.Viper, error) {
	v := viper.New()

	// Set config type
	v.SetConfigType("yaml")

	// Set environment variable prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(expandPath(configFile))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		for _, path := range []string{".", "/etc/cascontacts"} {
			v.AddConfigPath(path)
		}
		v.SetConfigName("config")

		// Read config file (ignore if not found)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Generate secret key if not set
	if v.GetString("security.secret_key") == "" {
		key, err := generateSecretKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate secret key: %w", err)
		}
		v.Set("security.secret_key", key)
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("app.name", "cascontacts")
	v.SetDefault("app.locale", "en")
	v.SetDefault("environment", "production")
	v.SetDefault("debug", false)

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "cascontacts.db")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_time", 300)

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.quiet", false)
	v.SetDefault("server.access_log", "")

	// Security defaults
	v.SetDefault("security.secret_key", "")
	v.SetDefault("security.jwt.access_token_ttl", "2h")

	// API defaults
	v.SetDefault("api.limit_per_page", 15)
	v.SetDefault("api.max_limit_per_page", 100)

	// Rate limiting defaults (requests per minute)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.authenticated_api", 1000)
	v.SetDefault("ratelimit.anonymous_api", 100)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	v.SetDefault("cors.allowed_headers", "Authorization, Content-Type, Accept")
	v.SetDefault("cors.exposed_headers", "Content-Language, X-RateLimit-Limit, X-RateLimit-Remaining")
	v.SetDefault("cors.max_age", 3600)
	v.SetDefault("cors.allow_credentials", false)

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.key_prefix", "cascontacts:")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}

func expandPath(path string) string {
	// Expand environment variables
	path = os.ExpandEnv(path)

	// Expand home directory
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}

	// Clean the path
	return filepath.Clean(path)
}

func generateSecretKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ValidateConfig validates the configuration
func ValidateConfig(v *viper.Viper) error {
	// Validate database configuration
	dbType := v.GetString("database.type")
	switch dbType {
	case "sqlite", "postgres", "postgresql", "mysql":
		if v.GetString("database.dsn") == "" {
			return fmt.Errorf("database.dsn is required for %s", dbType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", dbType)
	}

	// Validate server configuration
	port := v.GetInt("server.port")
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %d", port)
	}

	// Validate security configuration
	if v.GetString("security.secret_key") == "" {
		return fmt.Errorf("security.secret_key is required")
	}

	// Validate pagination
	limit := v.GetInt("api.limit_per_page")
	maxLimit := v.GetInt("api.max_limit_per_page")
	if limit <= 0 || maxLimit <= 0 || limit > maxLimit {
		return fmt.Errorf("api.limit_per_page must be between 1 and api.max_limit_per_page (%d)", maxLimit)
	}

	if v.GetString("app.locale") == "" {
		return fmt.Errorf("app.locale is required")
	}

	return nil
}
