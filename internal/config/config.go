// Package config loads application configuration from command-line
// flags, environment variables, and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Supported storage backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Storage  StorageConfig
	Detector DetectorConfig
	Import   ImportConfig
	Janitor  JanitorConfig
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
	Name          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	AdvertiseMDNS bool
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// Backend selects the store implementation: "badger" or "sqlite".
	Backend string
	// DataPath is the base directory for the database and thumbnails.
	DataPath string
}

// DetectorConfig holds change detection configuration.
type DetectorConfig struct {
	// Threshold is the similarity score at or above which a submission
	// counts as a continuation of the saver's previous text.
	Threshold float64
}

// ImportConfig holds snapshot import configuration.
type ImportConfig struct {
	// WatchPath, when set, is a directory watched for dropped snapshot
	// files to import automatically.
	WatchPath string
}

// JanitorConfig holds background cleanup configuration.
type JanitorConfig struct {
	Enabled bool
	// MaxAge is how old an unrated, unused prompt must be before the
	// janitor removes it.
	MaxAge time.Duration
	// Interval is how often the janitor sweeps.
	Interval time.Duration
}

// ThumbnailPath returns the directory thumbnails are stored under.
func (c *StorageConfig) ThumbnailPath() string {
	return filepath.Join(c.DataPath, "thumbnails")
}

// DatabasePath returns the path the selected backend should open.
func (c *StorageConfig) DatabasePath() string {
	if c.Backend == BackendSQLite {
		return filepath.Join(c.DataPath, "prompts.sqlite")
	}
	return filepath.Join(c.DataPath, "db")
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	serverName := flag.String("server-name", "", "Name advertised for the server")
	serverPort := flag.String("port", "", "Server port (default: 8188)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")
	storageBackend := flag.String("storage-backend", "", "Storage backend: badger or sqlite (default: badger)")
	dataPath := flag.String("data-path", "", "Base path for database and thumbnails")
	threshold := flag.String("similarity-threshold", "", "Continuation similarity threshold 0..1 (default: 0.7)")
	watchPath := flag.String("import-watch-path", "", "Directory watched for snapshot files to import")
	janitorEnabled := flag.String("janitor-enabled", "", "Enable old unrated prompt cleanup (default: false)")
	janitorMaxAge := flag.String("janitor-max-age", "", "Age before unrated prompts are cleaned up (default: 720h)")
	janitorInterval := flag.String("janitor-interval", "", "Cleanup sweep interval (default: 1h)")
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
			Name:          getConfigValue(*serverName, "SERVER_NAME", "Prompt Library"),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "8188"),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", true),
		},
		Storage: StorageConfig{
			Backend:  getConfigValue(*storageBackend, "STORAGE_BACKEND", BackendBadger),
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Detector: DetectorConfig{
			Threshold: getFloatConfigValue(*threshold, "SIMILARITY_THRESHOLD", 0.7),
		},
		Import: ImportConfig{
			WatchPath: getConfigValue(*watchPath, "IMPORT_WATCH_PATH", ""),
		},
		Janitor: JanitorConfig{
			Enabled: getBoolConfigValue(*janitorEnabled, "JANITOR_ENABLED", false),
		},
	}

	var err error
	cfg.Server.ReadTimeout, err = parseDurationValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	cfg.Server.WriteTimeout, err = parseDurationValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	cfg.Server.IdleTimeout, err = parseDurationValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	cfg.Janitor.MaxAge, err = parseDurationValue(*janitorMaxAge, "JANITOR_MAX_AGE", "720h")
	if err != nil {
		return nil, fmt.Errorf("invalid janitor max age: %w", err)
	}
	cfg.Janitor.Interval, err = parseDurationValue(*janitorInterval, "JANITOR_INTERVAL", "1h")
	if err != nil {
		return nil, fmt.Errorf("invalid janitor interval: %w", err)
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.expandWatchPath(); err != nil {
		return nil, fmt.Errorf("invalid import watch path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
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

	if c.Storage.Backend != BackendBadger && c.Storage.Backend != BackendSQLite {
		return fmt.Errorf("invalid storage backend: %s (must be badger or sqlite)", c.Storage.Backend)
	}
	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Detector.Threshold < 0 || c.Detector.Threshold > 1 {
		return fmt.Errorf("similarity threshold %v out of range [0, 1]", c.Detector.Threshold)
	}

	if c.Janitor.Enabled {
		if c.Janitor.MaxAge <= 0 {
			return errors.New("janitor max age must be positive")
		}
		if c.Janitor.Interval <= 0 {
			return errors.New("janitor interval must be positive")
		}
	}

	return nil
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

// expandDataPath defaults to ~/PromptLibrary and makes the path
// absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "PromptLibrary")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// expandWatchPath makes the watch path absolute. Empty disables the
// watcher.
func (c *Config) expandWatchPath() error {
	if c.Import.WatchPath == "" {
		return nil
	}

	expanded, err := expandPath(c.Import.WatchPath, "")
	if err != nil {
		return err
	}
	c.Import.WatchPath = expanded
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

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// parseDurationValue resolves a duration with the usual precedence and
// parses it.
func parseDurationValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", strValue, err)
	}
	return d, nil
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

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
