package grove

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Default configuration values applied to zero fields.
const (
	DefaultFixedStep        = 1.0 / 60.0
	DefaultMaxFixedSteps    = 5
	DefaultAddressCacheSize = 256
	DefaultRootName         = "root"
)

// Config tunes a Tree. The zero value is usable: zero fields take the
// defaults above.
type Config struct {
	// FixedStep is the duration in seconds of one fixed-update step.
	FixedStep float64 `yaml:"fixed_step" toml:"fixed_step" json:"fixed_step"`

	// MaxFixedSteps caps the fixed steps run in one Tick; leftover time is
	// dropped so a long frame cannot spiral.
	MaxFixedSteps int `yaml:"max_fixed_steps" toml:"max_fixed_steps" json:"max_fixed_steps"`

	// AddressCacheSize bounds the parsed-address cache. Negative disables it.
	AddressCacheSize int `yaml:"address_cache_size" toml:"address_cache_size" json:"address_cache_size"`

	// RootName names the root node created by NewTree.
	RootName string `yaml:"root_name" toml:"root_name" json:"root_name"`

	// Debug enables disposed-node panics, structure warnings and per-frame
	// timing logs.
	Debug bool `yaml:"debug" toml:"debug" json:"debug"`
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.FixedStep <= 0 {
		c.FixedStep = DefaultFixedStep
	}
	if c.MaxFixedSteps <= 0 {
		c.MaxFixedSteps = DefaultMaxFixedSteps
	}
	if c.AddressCacheSize == 0 {
		c.AddressCacheSize = DefaultAddressCacheSize
	}
	if c.RootName == "" {
		c.RootName = DefaultRootName
	}
	return c
}

// ConfigFormat names a configuration encoding.
type ConfigFormat string

const (
	FormatYAML ConfigFormat = "yaml"
	FormatTOML ConfigFormat = "toml"
	FormatJSON ConfigFormat = "json"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (ConfigFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("config %s: unknown extension", path)
	}
}

// LoadConfig reads a YAML, TOML or JSON config file chosen by extension.
func LoadConfig(path string) (Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := ParseConfig(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes data in the given format and applies defaults.
// Unknown keys are rejected.
func ParseConfig(data []byte, format ConfigFormat) (Config, error) {
	var cfg Config
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse yaml config: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse toml config: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse json config: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("parse config: unknown format %q", format)
	}
	return cfg.withDefaults(), nil
}
