package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. FPGROWTH_STORAGE_TYPE
const EnvPrefix = "FPGROWTH"

// ErrInvalid is returned by Validate
var ErrInvalid = errors.New("invalid config")

// Config holds every setting of the fpgrowth binary
// Precedence: defaults, then the YAML file, then FPGROWTH_* variables, then flags
type Config struct {
	MinSupport      int     `yaml:"min_support" envconfig:"MIN_SUPPORT"`
	RelativeSupport float64 `yaml:"relative_support" envconfig:"RELATIVE_SUPPORT"`
	Workers         int     `yaml:"workers" envconfig:"WORKERS"`
	LogLevel        string  `yaml:"log_level" envconfig:"LOG_LEVEL"`

	Storage  StorageConfig  `yaml:"storage"`
	Metadata MetadataConfig `yaml:"metadata"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
}

// StorageConfig selects the snapshot store
type StorageConfig struct {
	Type    string `yaml:"type" envconfig:"TYPE"`         // memory or badger
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"` // badger only
}

// MetadataConfig locates the run history database
// An empty DBPath disables run history
type MetadataConfig struct {
	DBPath string `yaml:"db_path" envconfig:"DB_PATH"`
}

// CacheConfig sizes the in-memory result cache
// Zero disables the cache
type CacheConfig struct {
	Size int `yaml:"size" envconfig:"SIZE"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr       string `yaml:"addr" envconfig:"ADDR"`
	MaxWorkers int    `yaml:"max_workers" envconfig:"MAX_WORKERS"` // per-request cap; zero means the CPU count
}

const (
	StorageMemory = "memory"
	StorageBadger = "badger"
)

// Default returns sensible defaults
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Type: StorageMemory,
		},
		Cache: CacheConfig{
			Size: 128,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load builds a Config from defaults, an optional YAML file and the environment
// An empty path skips the file; a named file that doesn't exist is an error
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings
func (c *Config) Validate() error {
	if c.MinSupport < 0 {
		return fmt.Errorf("%w: min_support must not be negative, got %d", ErrInvalid, c.MinSupport)
	}
	if c.RelativeSupport < 0 || c.RelativeSupport > 1 {
		return fmt.Errorf("%w: relative_support must be in (0, 1], got %v", ErrInvalid, c.RelativeSupport)
	}
	if c.MinSupport > 0 && c.RelativeSupport > 0 {
		return fmt.Errorf("%w: min_support and relative_support are mutually exclusive", ErrInvalid)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	}
	if c.Server.MaxWorkers < 0 {
		return fmt.Errorf("%w: server.max_workers must not be negative, got %d", ErrInvalid, c.Server.MaxWorkers)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("%w: cache.size must not be negative, got %d", ErrInvalid, c.Cache.Size)
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageBadger:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("%w: storage.data_dir is required for badger", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown storage.type %q", ErrInvalid, c.Storage.Type)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// SlogLevel returns the configured log level, Info if unset
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.LogLevel)
	return level
}

// ParseLevel maps debug|info|warn|error to a slog level
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
