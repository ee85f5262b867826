// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL selects the storage backend. Required.
	// postgres:// and postgresql:// URLs use Postgres; sqlite://<path> or a
	// bare file path (":memory:" included) uses embedded SQLite.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// StrictCaseMatch makes tag names case-sensitive. Defaults to false.
	StrictCaseMatch bool

	// LocalizationEnabled lets translations vote on the canonical tag.
	// Defaults to false.
	LocalizationEnabled bool

	// EnforceNameUniqueness rejects creating a tag whose comparable name is
	// already taken. Defaults to true.
	EnforceNameUniqueness bool

	// ExactSingularLookup switches single-name resolution from substring to
	// exact matching. Defaults to false.
	ExactSingularLookup bool

	// ResolveConcurrency bounds parallel lookups within one batch. Defaults to 4.
	ResolveConcurrency int

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// RateLimitRPS is the per-client request rate; 0 disables limiting.
	// Defaults to 0.
	RateLimitRPS float64

	// RateLimitBurst is the per-client burst size. Defaults to 20.
	RateLimitBurst int

	// TranslationsSeedFile is an optional YAML file of translations loaded at
	// startup. Empty means no seeding.
	TranslationsSeedFile string
}

// Backend names the storage engine a DatabaseURL selects.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// Backend reports which storage engine DatabaseURL selects.
func (c Config) Backend() Backend {
	if strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return BackendPostgres
	}
	return BackendSQLite
}

// SQLitePath returns the file path of a SQLite DatabaseURL.
func (c Config) SQLitePath() string {
	return strings.TrimPrefix(c.DatabaseURL, "sqlite://")
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first variable that does not parse.
func Load() (Config, error) {
	cfg := Config{
		Port:                 getEnv("PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		CORSOrigins:          splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		TranslationsSeedFile: os.Getenv("TRANSLATIONS_SEED_FILE"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.StrictCaseMatch, err = getBool("STRICT_CASE_MATCH", false); err != nil {
		return Config{}, err
	}
	if cfg.LocalizationEnabled, err = getBool("LOCALIZATION_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.EnforceNameUniqueness, err = getBool("ENFORCE_NAME_UNIQUENESS", true); err != nil {
		return Config{}, err
	}
	if cfg.ExactSingularLookup, err = getBool("EXACT_SINGULAR_LOOKUP", false); err != nil {
		return Config{}, err
	}
	if cfg.ResolveConcurrency, err = getInt("RESOLVE_CONCURRENCY", 4); err != nil {
		return Config{}, err
	}
	maxBody, err := getInt("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxBodyBytes = int64(maxBody)
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%s: invalid non-negative integer %q", key, v)
	}
	return i, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%s: invalid non-negative number %q", key, v)
	}
	return f, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
