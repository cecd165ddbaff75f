// Package config loads service configuration from the environment.
package config

import "os"

// Config holds everything the dvcard service needs at startup.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DBPath is the SQLite database file.
	DBPath string

	Log struct {
		Level  string // debug, info, warn, error
		Format string // json or console
	}
}

// Load reads configuration from the environment with sensible defaults.
// Command-line flags in main may override individual values.
func Load() *Config {
	cfg := &Config{
		Addr:   getEnv("DVCARD_ADDR", ":8080"),
		DBPath: getEnv("DVCARD_DB", "dvcard.db"),
	}
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
