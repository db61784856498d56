package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/conduit-lang/metagen/internal/compiler/binary"
)

// FileName is the base name of the configuration file
const FileName = "metagen"

// Config represents the metagen configuration
type Config struct {
	Input       string            `mapstructure:"input"`
	Output      OutputConfig      `mapstructure:"output"`
	Binary      BinaryConfig      `mapstructure:"binary"`
	Identifiers IdentifiersConfig `mapstructure:"identifiers"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Index       IndexConfig       `mapstructure:"index"`
	Log         LogConfig         `mapstructure:"log"`
}

// OutputConfig represents where generated files are written
type OutputConfig struct {
	Dir        string `mapstructure:"dir"`
	Blob       string `mapstructure:"blob"`
	TypeScript string `mapstructure:"typescript"`
}

// BinaryConfig represents the primitive widths of the metadata blob
type BinaryConfig struct {
	PointerSize    int `mapstructure:"pointer_size"`
	ArrayCountSize int `mapstructure:"array_count_size"`
}

// IdentifiersConfig represents identifier generation settings
type IdentifiersConfig struct {
	Collisions string `mapstructure:"collisions"`
}

// CacheConfig represents result cache settings
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// IndexConfig represents the symbol index database
type IndexConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig represents logging settings
type LogConfig struct {
	JSON    bool `mapstructure:"json"`
	Verbose bool `mapstructure:"verbose"`
}

// Layout returns the blob layout described by the binary settings
func (c *Config) Layout() binary.Layout {
	return binary.Layout{PointerSize: c.Binary.PointerSize, ArrayCountSize: c.Binary.ArrayCountSize}
}

// BlobPath returns the full path of the metadata blob
func (c *Config) BlobPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Blob)
}

// TypeScriptDir returns the directory receiving the definition files
func (c *Config) TypeScriptDir() string {
	return filepath.Join(c.Output.Dir, c.Output.TypeScript)
}

// Load loads the configuration from metagen.yml or metagen.yaml in the
// current directory. Environment variables prefixed with METAGEN_ override
// file values, e.g. METAGEN_BINARY_POINTER_SIZE.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom loads the configuration from dir
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("input", "")
	v.SetDefault("output.dir", "build/metadata")
	v.SetDefault("output.blob", "metadata.bin")
	v.SetDefault("output.typescript", "typings")
	v.SetDefault("binary.pointer_size", binary.DefaultPointerSize)
	v.SetDefault("binary.array_count_size", binary.DefaultArrayCountSize)
	v.SetDefault("identifiers.collisions", "")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", ".metagen/cache")
	v.SetDefault("index.path", "")
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbose", false)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("METAGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// FindConfigDir walks up from the current directory looking for a metagen
// configuration file.
func FindConfigDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, ext := range []string{".yml", ".yaml"} {
			if _, err := os.Stat(filepath.Join(dir, FileName+ext)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s.yml found in this directory or any parent", FileName)
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if err := cfg.Layout().Validate(); err != nil {
		return fmt.Errorf("binary: %w", err)
	}
	if cfg.Output.Blob == "" {
		return fmt.Errorf("output.blob must not be empty")
	}
	if cfg.Cache.Enabled && cfg.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must be set when the cache is enabled")
	}
	return nil
}
