// Package config holds settings shared by the bibkit tools. Values come from
// a YAML file, environment variables and defaults, in decreasing priority:
// environment, file, defaults. Command line flags override all of them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/miku/bibkit"
	"github.com/miku/bibkit/input"
)

// PathEnv names the environment variable pointing to a config file.
const PathEnv = "BIBKIT_CONFIG"

// DefaultPath is used when no path is given explicitly. A missing file at
// the default path is not an error.
var DefaultPath = filepath.Join(xdg.ConfigHome, bibkit.AppName, "config.yaml")

var ErrInvalidConfig = errors.New("invalid config")

// Config for flattening and loan aggregation.
type Config struct {
	// Schema is a built-in schema name or a path to a YAML schema file.
	Schema string `yaml:"schema" env:"BIBKIT_SCHEMA" env-default:"marc21"`
	// Format of the input, one of auto, marc, array, jsonl, object.
	Format string `yaml:"format" env:"BIBKIT_FORMAT" env-default:"auto"`
	// Delimiter overrides the delimiter of the schema, if set.
	Delimiter string `yaml:"delimiter" env:"BIBKIT_DELIMITER"`
	// Workers, zero means one per CPU.
	Workers    int  `yaml:"workers" env:"BIBKIT_WORKERS" env-default:"0"`
	BatchSize  int  `yaml:"batch_size" env:"BIBKIT_BATCH_SIZE" env-default:"1000"`
	Clean      bool `yaml:"clean" env:"BIBKIT_CLEAN" env-default:"false"`
	Strict     bool `yaml:"strict" env:"BIBKIT_STRICT" env-default:"false"`
	MaxRetries int  `yaml:"max_retries" env:"BIBKIT_MAX_RETRIES" env-default:"3"`
	// Start and End year of the canonical range, inclusive.
	Start int `yaml:"start" env:"BIBKIT_START" env-default:"2013"`
	End   int `yaml:"end" env:"BIBKIT_END" env-default:"2023"`
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	formats := []string{input.FormatAuto, input.FormatMARC, input.FormatArray, input.FormatJSONL, input.FormatObject}
	switch {
	case !slices.Contains(formats, c.Format):
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	case c.Workers < 0:
		return fmt.Errorf("%w: negative workers", ErrInvalidConfig)
	case c.BatchSize < 1:
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: negative max retries", ErrInvalidConfig)
	case c.Start > c.End:
		return fmt.Errorf("%w: start year %d after end year %d", ErrInvalidConfig, c.Start, c.End)
	}
	return nil
}

// Load reads configuration from path. If path is empty, the value of
// BIBKIT_CONFIG is used, falling back to DefaultPath. Explicitly named files
// must exist.
func Load(path string) (*Config, error) {
	var cfg Config
	explicit := true
	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path == "" {
		path, explicit = DefaultPath, false
	}
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}
