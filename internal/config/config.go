// Package config loads csvseed settings from the environment and seed
// definitions from a YAML file. Environment values have defaults and are
// validated on startup so misconfiguration fails fast.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds process-wide settings.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Seed     SeedConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds the default connection, used by seeds that do not
// name one in the seeds file.
type DatabaseConfig struct {
	// URL is the default PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Driver selects the default connection's driver (default: postgres)
	Driver string `env:"DB_DRIVER" default:"postgres"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// ConnectTimeout bounds opening and pinging a connection (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// SeedConfig holds defaults applied to every seed.
type SeedConfig struct {
	// File is the YAML seeds file (default: seeds.yaml)
	File string `env:"SEEDS_FILE" default:"seeds.yaml"`

	// ChunkSize is the number of rows per insert (default: 50)
	ChunkSize int `env:"SEED_CHUNK_SIZE" default:"50"`

	// Delimiter is the CSV field separator (default: ,)
	Delimiter rune `env:"SEED_DELIMITER" default:","`

	// Hashable is the comma-separated list of columns to hash (default: password)
	Hashable []string `env:"SEED_HASHABLE" default:"password"`

	// BcryptCost is the work factor for hashed columns (default: 10)
	BcryptCost int `env:"SEED_BCRYPT_COST" default:"10"`

	// Timeout bounds a single seed run; zero disables it (default: 0s)
	Timeout time.Duration `env:"SEED_TIMEOUT" default:"0s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	url := ""
	if c.Database.URL != "" {
		url = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Database: {URL: %s, Driver: %q, MaxConns: %d}, ",
		url, c.Database.Driver, c.Database.MaxConns)
	fmt.Fprintf(&b, "Seed: {File: %q, ChunkSize: %d, Delimiter: %q, Hashable: %v, BcryptCost: %d}, ",
		c.Seed.File, c.Seed.ChunkSize, c.Seed.Delimiter, c.Seed.Hashable, c.Seed.BcryptCost)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
