// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Library   LibraryConfig
	Catalog   CatalogConfig
	Discovery DiscoveryConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 30s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// LibraryConfig holds local library storage configuration.
type LibraryConfig struct {
	// DataPath is the directory holding the library database.
	DataPath string
}

// CatalogConfig holds remote catalog client configuration.
type CatalogConfig struct {
	// Endpoint is the remote catalog API endpoint. Empty means discovery
	// is unconfigured until set.
	Endpoint string
	// APIKey authenticates requests to the catalog.
	APIKey string
	// Timeout bounds a single HTTP request (default: 30s)
	Timeout time.Duration
	// RPS is the request rate toward one endpoint (default: 1.0)
	RPS float64
	// Burst is the rate limiter burst size (default: 2)
	Burst int
	// MaxAttempts bounds retries for one page fetch (default: 4)
	MaxAttempts int
	// BackoffBase is the first retry delay (default: 500ms)
	BackoffBase time.Duration
	// BackoffCap caps the exponential backoff (default: 8s)
	BackoffCap time.Duration
	// Cooldown is the fixed wait after a rate-limit response (default: 5s)
	Cooldown time.Duration
}

// DiscoveryConfig holds discovery engine tuning.
type DiscoveryConfig struct {
	// PerPage is the remote page size per fetch (default: 25)
	PerPage int
	// TargetCount is the post-filter quota per query (default: 200)
	TargetCount int
	// MaxPages bounds pages fetched per query (default: 20)
	MaxPages int
	// FavoriteLimit truncates each favorite set (default: 100)
	FavoriteLimit int
	// PageSize is the default response page size (default: 25)
	PageSize int
	// ExcludedTags is a comma-separated denylist of external tag IDs.
	ExcludedTags []string
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Directory for the library database")
	serverName := flag.String("server-name", "", "Name for the server")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 30s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	catalogEndpoint := flag.String("catalog-endpoint", "", "Remote catalog endpoint URL")
	catalogAPIKey := flag.String("catalog-api-key", "", "Remote catalog API key")
	catalogTimeout := flag.String("catalog-timeout", "", "Catalog request timeout (default: 30s)")
	catalogRPS := flag.String("catalog-rps", "", "Catalog requests per second (default: 1.0)")
	catalogBurst := flag.String("catalog-burst", "", "Catalog rate limiter burst (default: 2)")
	catalogMaxAttempts := flag.String("catalog-max-attempts", "", "Max attempts per page fetch (default: 4)")
	catalogBackoffBase := flag.String("catalog-backoff-base", "", "First retry delay (default: 500ms)")
	catalogBackoffCap := flag.String("catalog-backoff-cap", "", "Backoff ceiling (default: 8s)")
	catalogCooldown := flag.String("catalog-cooldown", "", "Wait after a rate-limit response (default: 5s)")

	discoveryPerPage := flag.String("discovery-per-page", "", "Remote page size per fetch (default: 25)")
	discoveryTarget := flag.String("discovery-target-count", "", "Post-filter quota per query (default: 200)")
	discoveryMaxPages := flag.String("discovery-max-pages", "", "Max pages per query (default: 20)")
	discoveryFavLimit := flag.String("discovery-favorite-limit", "", "Favorite set cap (default: 100)")
	discoveryPageSize := flag.String("discovery-page-size", "", "Default response page size (default: 25)")
	discoveryExcludedTags := flag.String("discovery-excluded-tags", "", "Comma-separated denylist of external tag IDs")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "SceneScout Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Library: LibraryConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Catalog: CatalogConfig{
			Endpoint:    getConfigValue(*catalogEndpoint, "CATALOG_ENDPOINT", ""),
			APIKey:      getConfigValue(*catalogAPIKey, "CATALOG_API_KEY", ""),
			RPS:         getFloatConfigValue(*catalogRPS, "CATALOG_RPS", 1.0),
			Burst:       getIntConfigValue(*catalogBurst, "CATALOG_BURST", 2),
			MaxAttempts: getIntConfigValue(*catalogMaxAttempts, "CATALOG_MAX_ATTEMPTS", 4),
		},
		Discovery: DiscoveryConfig{
			PerPage:       getIntConfigValue(*discoveryPerPage, "DISCOVERY_PER_PAGE", 25),
			TargetCount:   getIntConfigValue(*discoveryTarget, "DISCOVERY_TARGET_COUNT", 200),
			MaxPages:      getIntConfigValue(*discoveryMaxPages, "DISCOVERY_MAX_PAGES", 20),
			FavoriteLimit: getIntConfigValue(*discoveryFavLimit, "DISCOVERY_FAVORITE_LIMIT", 100),
			PageSize:      getIntConfigValue(*discoveryPageSize, "DISCOVERY_PAGE_SIZE", 25),
			ExcludedTags:  splitList(getConfigValue(*discoveryExcludedTags, "DISCOVERY_EXCLUDED_TAGS", "")),
		},
	}

	durations := []struct {
		dst    *time.Duration
		flag   string
		envKey string
		def    string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "30s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Catalog.Timeout, *catalogTimeout, "CATALOG_TIMEOUT", "30s"},
		{&cfg.Catalog.BackoffBase, *catalogBackoffBase, "CATALOG_BACKOFF_BASE", "500ms"},
		{&cfg.Catalog.BackoffCap, *catalogBackoffCap, "CATALOG_BACKOFF_CAP", "8s"},
		{&cfg.Catalog.Cooldown, *catalogCooldown, "CATALOG_COOLDOWN", "5s"},
	}
	for _, d := range durations {
		str := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(str)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, str, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Library.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Catalog.RPS <= 0 {
		return fmt.Errorf("catalog RPS must be positive, got %v", c.Catalog.RPS)
	}
	if c.Discovery.PageSize < 1 || c.Discovery.PageSize > 100 {
		return fmt.Errorf("discovery page size must be between 1 and 100, got %d", c.Discovery.PageSize)
	}

	// Catalog.Endpoint may be empty - discovery requests fail with
	// NO_ENDPOINT until one is configured.

	return nil
}

// DatabasePath returns the library database file under the data path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Library.DataPath, "scenescout.db")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "SceneScout", "data")

	expanded, err := expandPath(c.Library.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Library.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// splitList splits a comma-separated value, dropping empty elements.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Real env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
