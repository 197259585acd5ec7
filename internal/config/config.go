// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string
	UniversePath string
	OutputDir    string
	LogPath      string
	LogLevel     string
	TuningPath   string

	// Secret document store
	FirebaseKeyPath   string
	FirebaseProjectID string
	SecretsCollection string
	SecretsDocument   string

	// Market data
	UseDhan          bool
	DhanBaseURL      string
	YahooBaseURL     string
	FetchConcurrency int
	HTTPTimeout      time.Duration
	CacheTTL         time.Duration

	// Optional workbook upload
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string

	ServeAddr string

	Tuning Tuning
}

// Default values
const (
	defaultDhanBaseURL      = "https://api.dhan.co"
	defaultYahooBaseURL     = "https://query1.finance.yahoo.com"
	defaultFetchConcurrency = 4
	defaultHTTPTimeout      = 20 * time.Second
	defaultCacheTTL         = 12 * time.Hour
	defaultServeAddr        = "127.0.0.1:8484"
	defaultS3Region         = "us-east-1"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatabasePath:      getEnvString("DATABASE_PATH", getDefaultDatabasePath()),
		UniversePath:      getEnvString("UNIVERSE_PATH", ""),
		OutputDir:         getEnvString("OUTPUT_DIR", "."),
		LogPath:           getEnvString("LOG_PATH", getDefaultLogPath()),
		LogLevel:          getEnvString("LOG_LEVEL", "info"),
		TuningPath:        getEnvString("TUNING_PATH", getDefaultTuningPath()),
		FirebaseKeyPath:   getEnvString("FIREBASE_KEY_PATH", "serviceAccountKey.json"),
		FirebaseProjectID: getEnvString("FIREBASE_PROJECT_ID", ""),
		SecretsCollection: getEnvString("SECRETS_COLLECTION", "config"),
		SecretsDocument:   getEnvString("SECRETS_DOCUMENT", "keys"),
		UseDhan:           getEnvBool("USE_DHAN", true),
		DhanBaseURL:       getEnvString("DHAN_BASE_URL", defaultDhanBaseURL),
		YahooBaseURL:      getEnvString("YAHOO_BASE_URL", defaultYahooBaseURL),
		FetchConcurrency:  getEnvInt("FETCH_CONCURRENCY", defaultFetchConcurrency),
		HTTPTimeout:       getEnvDuration("HTTP_TIMEOUT", defaultHTTPTimeout),
		CacheTTL:          getEnvDuration("CACHE_TTL", defaultCacheTTL),
		S3Bucket:          getEnvString("EXPORT_S3_BUCKET", ""),
		S3Prefix:          getEnvString("EXPORT_S3_PREFIX", ""),
		S3Region:          getEnvString("EXPORT_S3_REGION", defaultS3Region),
		S3Endpoint:        getEnvString("EXPORT_S3_ENDPOINT", ""),
		ServeAddr:         getEnvString("SERVE_ADDR", defaultServeAddr),
	}

	tuning, err := LoadTuning(cfg.TuningPath)
	if err != nil {
		return nil, err
	}
	if v := getEnvInt("MIN_AVG_VOLUME", -1); v >= 0 {
		tuning.MinAvgVolume = float64(v)
	}
	cfg.Tuning = tuning

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure database directory exists
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	// Ensure output directory exists
	if err := ensureDir(cfg.OutputDir); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return c.Tuning.Validate()
}

// String returns a readable summary of the configuration.
func (c *Config) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Config{\n")
	fmt.Fprintf(&sb, "  DatabasePath: %s,\n", c.DatabasePath)
	fmt.Fprintf(&sb, "  UniversePath: %s,\n", c.UniversePath)
	fmt.Fprintf(&sb, "  OutputDir: %s,\n", c.OutputDir)
	fmt.Fprintf(&sb, "  FirebaseKeyPath: %s,\n", c.FirebaseKeyPath)
	fmt.Fprintf(&sb, "  SecretsDocument: %s/%s,\n", c.SecretsCollection, c.SecretsDocument)
	fmt.Fprintf(&sb, "  UseDhan: %v,\n", c.UseDhan)
	fmt.Fprintf(&sb, "  FetchConcurrency: %d,\n", c.FetchConcurrency)
	fmt.Fprintf(&sb, "  Horizons: %v,\n", c.Tuning.HorizonsMonths)
	fmt.Fprintf(&sb, "  MinAvgVolume: %.0f,\n", c.Tuning.MinAvgVolume)
	fmt.Fprintf(&sb, "}")
	return sb.String()
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "doublers", ".env"),
			filepath.Join(home, ".doublers", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "doublers")
}

// getDefaultDatabasePath returns the default path for the SQLite database.
func getDefaultDatabasePath() string {
	dir := configDir()
	if dir == "" {
		return "doublers.db"
	}
	return filepath.Join(dir, "doublers.db")
}

// getDefaultLogPath returns the default log file path.
func getDefaultLogPath() string {
	dir := configDir()
	if dir == "" {
		return "doublers.log"
	}
	return filepath.Join(dir, "doublers.log")
}

// getDefaultTuningPath returns the default path for the scoring tuning file.
func getDefaultTuningPath() string {
	dir := configDir()
	if dir == "" {
		return "tuning.toml"
	}
	return filepath.Join(dir, "tuning.toml")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return v
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return v
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
