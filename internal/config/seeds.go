package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/csvseed/internal/seed"
)

// Supported connection drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Connection is a named destination database.
type Connection struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"` // $VAR and ${VAR} are expanded
}

// Seed is one CSV import as written in the seeds file.
type Seed struct {
	Name       string `yaml:"name"` // defaults to Table
	Table      string `yaml:"table"`
	File       string `yaml:"file"` // relative paths resolve against the seeds file
	Connection string `yaml:"connection"`

	Delimiter  string `yaml:"delimiter"`
	OffsetRows int    `yaml:"offset_rows"`
	Trim       bool   `yaml:"trim"`

	Timestamps bool   `yaml:"timestamps"`
	CreatedAt  string `yaml:"created_at"`
	UpdatedAt  string `yaml:"updated_at"`

	Mapping map[int]string `yaml:"mapping"`

	// Hashable left out of the file uses the environment default;
	// an explicit empty list disables hashing.
	Hashable []string `yaml:"hashable"`

	ChunkSize    int  `yaml:"chunk_size"`
	SanitizeUTF8 bool `yaml:"sanitize_utf8"`
}

// SeedFile is the parsed seeds file.
type SeedFile struct {
	Connections map[string]Connection `yaml:"connections"`
	Seeds       []Seed                `yaml:"seeds"`
}

// LoadSeedFile reads and validates the seeds file at path.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seeds file: %w", err)
	}

	sf, err := ParseSeedFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("seeds file %s: %w", path, err)
	}
	sf.resolvePaths(filepath.Dir(path))
	return sf, nil
}

// ParseSeedFile decodes and validates a seeds file. Unknown keys are errors.
func ParseSeedFile(r io.Reader) (*SeedFile, error) {
	var sf SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}

	for name, c := range sf.Connections {
		c.DSN = os.ExpandEnv(c.DSN)
		sf.Connections[name] = c
	}
	for i := range sf.Seeds {
		if sf.Seeds[i].Name == "" {
			sf.Seeds[i].Name = sf.Seeds[i].Table
		}
	}

	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return &sf, nil
}

func (sf *SeedFile) resolvePaths(dir string) {
	for i := range sf.Seeds {
		f := sf.Seeds[i].File
		if f != "" && !filepath.IsAbs(f) {
			sf.Seeds[i].File = filepath.Join(dir, f)
		}
	}
}

// Validate reports every problem in the file at once.
func (sf *SeedFile) Validate() error {
	var errs []string

	for name, c := range sf.Connections {
		if name == "" {
			errs = append(errs, "connection name must not be empty")
		}
		if !validDriver(c.Driver) {
			errs = append(errs, fmt.Sprintf("connection %q: driver %q must be one of: postgres, sqlite3", name, c.Driver))
		}
		if c.DSN == "" {
			errs = append(errs, fmt.Sprintf("connection %q: dsn is required", name))
		}
	}

	seen := make(map[string]bool, len(sf.Seeds))
	for i, s := range sf.Seeds {
		label := fmt.Sprintf("seed %d (%s)", i, s.Name)
		if s.Table == "" {
			errs = append(errs, label+": table is required")
		}
		if s.File == "" {
			errs = append(errs, label+": file is required")
		}
		if s.Name != "" && seen[s.Name] {
			errs = append(errs, label+": duplicate name")
		}
		seen[s.Name] = true
		if s.Connection != "" {
			if _, ok := sf.Connections[s.Connection]; !ok {
				errs = append(errs, fmt.Sprintf("%s: unknown connection %q", label, s.Connection))
			}
		}
		if s.Delimiter != "" {
			if _, err := parseRune(s.Delimiter); err != nil {
				errs = append(errs, fmt.Sprintf("%s: delimiter: %v", label, err))
			}
		}
		if s.OffsetRows < 0 {
			errs = append(errs, label+": offset_rows must be non-negative")
		}
		if s.ChunkSize < 0 {
			errs = append(errs, label+": chunk_size must be non-negative")
		}
		for pos, field := range s.Mapping {
			if pos < 0 {
				errs = append(errs, fmt.Sprintf("%s: mapping position %d must be non-negative", label, pos))
			}
			if strings.TrimSpace(field) == "" {
				errs = append(errs, fmt.Sprintf("%s: mapping position %d has no column", label, pos))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Select returns the named seeds in file order, or every seed when names
// is empty.
func (sf *SeedFile) Select(names ...string) ([]Seed, error) {
	if len(names) == 0 {
		return sf.Seeds, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var out []Seed
	for _, s := range sf.Seeds {
		if want[s.Name] {
			out = append(out, s)
			delete(want, s.Name)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for _, n := range names {
			if want[n] {
				missing = append(missing, n)
			}
		}
		return nil, fmt.Errorf("unknown seed(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// RunConfig converts s into a seed run configuration, filling unset values
// from defaults.
func (s Seed) RunConfig(defaults SeedConfig) seed.Config {
	cfg := seed.Config{
		Table:        s.Table,
		Filename:     s.File,
		Connection:   s.Connection,
		Delimiter:    defaults.Delimiter,
		OffsetRows:   s.OffsetRows,
		Trim:         s.Trim,
		Timestamps:   s.Timestamps,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Hashable:     s.Hashable,
		ChunkSize:    s.ChunkSize,
		SanitizeUTF8: s.SanitizeUTF8,
	}
	if s.Delimiter != "" {
		// validated on load
		cfg.Delimiter, _ = parseRune(s.Delimiter)
	}
	if cfg.Hashable == nil {
		cfg.Hashable = append([]string{}, defaults.Hashable...)
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaults.ChunkSize
	}
	if len(s.Mapping) > 0 {
		cfg.Mapping = seed.NewMapping(s.Mapping)
	}
	return cfg
}
