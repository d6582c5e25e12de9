package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"media-catalog/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Config holds all daemon configuration.
type Config struct {
	LibraryDir  string
	MetadataDir string
	DatabaseDir string
	MetricsPort string

	ValidationInterval time.Duration
	PeopleInterval     time.Duration

	MetricsEnabled bool
	WebhookURL     string
	Users          string

	// Derived paths
	DatabasePath string
	PeopleDir    string
	StudiosDir   string
	GenresDir    string
	YearsDir     string
}

// LoadConfig loads and validates configuration from environment variables.
func LoadConfig() (*Config, error) {
	logging.Info("media-catalog %s (commit %s, built %s, %s)", Version, Commit, BuildTime, GoVersion)

	libraryDir := getEnv("LIBRARY_DIR", "/library")
	metadataDir := getEnv("METADATA_DIR", "/metadata")
	databaseDir := getEnv("DATABASE_DIR", "/database")
	metricsPort := getEnv("METRICS_PORT", "9090")
	validationIntervalStr := getEnv("VALIDATION_INTERVAL", "12h")
	peopleIntervalStr := getEnv("PEOPLE_INTERVAL", "24h")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	webhookURL := getEnv("WEBHOOK_URL", "")
	users := getEnv("USERS", "")

	logging.Info("  LIBRARY_DIR:         %s", libraryDir)
	logging.Info("  METADATA_DIR:        %s", metadataDir)
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  VALIDATION_INTERVAL: %s", validationIntervalStr)
	logging.Info("  PEOPLE_INTERVAL:     %s", peopleIntervalStr)
	logging.Info("  WEBHOOK_URL:         %s", webhookURL)
	logging.Info("  USERS:               %s", users)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	validationInterval, err := time.ParseDuration(validationIntervalStr)
	if err != nil {
		logging.Warn("  Invalid VALIDATION_INTERVAL, using default: 12h")
		validationInterval = 12 * time.Hour
	}

	peopleInterval, err := time.ParseDuration(peopleIntervalStr)
	if err != nil {
		logging.Warn("  Invalid PEOPLE_INTERVAL, using default: 24h")
		peopleInterval = 24 * time.Hour
	}

	libraryDir, err = filepath.Abs(libraryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library directory path: %w", err)
	}
	if info, err := os.Stat(libraryDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("library directory %s is not accessible", libraryDir)
	}

	metadataDir, err = filepath.Abs(metadataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve metadata directory path: %w", err)
	}
	if err := os.MkdirAll(metadataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	if err := os.MkdirAll(databaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	return &Config{
		LibraryDir:         libraryDir,
		MetadataDir:        metadataDir,
		DatabaseDir:        databaseDir,
		MetricsPort:        metricsPort,
		ValidationInterval: validationInterval,
		PeopleInterval:     peopleInterval,
		MetricsEnabled:     metricsEnabled,
		WebhookURL:         webhookURL,
		Users:              users,
		DatabasePath:       filepath.Join(databaseDir, "catalog.db"),
		PeopleDir:          filepath.Join(metadataDir, "People"),
		StudiosDir:         filepath.Join(metadataDir, "Studio"),
		GenresDir:          filepath.Join(metadataDir, "Genre"),
		YearsDir:           filepath.Join(metadataDir, "Year"),
	}, nil
}

// LogFatal logs a fatal startup error and exits.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
