package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/papercomputeco/wikiart/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// orderedKeys follows the TOML section layout.
var orderedKeys = []string{
	"catalog.path",
	"catalog.delimiter",
	"index.provider",
	"index.path",
	"index.sqlite_path",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.dimensions",
	"embedding.batch_size",
	"embedding.concurrency",
	"generation.provider",
	"generation.target",
	"generation.model",
	"generation.timeout",
	"generation.retries",
	"generation.retry_delay",
	"generation.temperature",
	"chat.top_k",
	"chat.max_history",
	"api.listen",
	"storage.provider",
	"storage.target",
	"events.provider",
	"events.brokers",
	"events.topic",
}

// ValidConfigKeys returns the ordered list of all supported configuration key names.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target .wikiart/ directory.
// If the file does not exist, returns NewDefaultConfig() so callers always receive
// a fully-populated Config. Fields explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	d := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = d.Version
	}

	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fillUint := func(dst *uint, def uint) {
		if *dst == 0 {
			*dst = def
		}
	}

	fill(&cfg.Catalog.Path, d.Catalog.Path)
	fill(&cfg.Catalog.Delimiter, d.Catalog.Delimiter)

	fill(&cfg.Index.Provider, d.Index.Provider)
	fill(&cfg.Index.Path, d.Index.Path)
	fill(&cfg.Index.SQLitePath, d.Index.SQLitePath)

	fill(&cfg.Embedding.Provider, d.Embedding.Provider)
	fill(&cfg.Embedding.Target, d.Embedding.Target)
	fill(&cfg.Embedding.Model, d.Embedding.Model)
	fillUint(&cfg.Embedding.Dimensions, d.Embedding.Dimensions)
	fillUint(&cfg.Embedding.BatchSize, d.Embedding.BatchSize)
	fillUint(&cfg.Embedding.Concurrency, d.Embedding.Concurrency)

	fill(&cfg.Generation.Provider, d.Generation.Provider)
	fill(&cfg.Generation.Target, d.Generation.Target)
	fill(&cfg.Generation.Model, d.Generation.Model)
	fill(&cfg.Generation.Timeout, d.Generation.Timeout)
	fill(&cfg.Generation.RetryDelay, d.Generation.RetryDelay)
	if cfg.Generation.Retries == nil {
		cfg.Generation.Retries = d.Generation.Retries
	}
	if cfg.Generation.Temperature == nil {
		cfg.Generation.Temperature = d.Generation.Temperature
	}

	fillUint(&cfg.Chat.TopK, d.Chat.TopK)
	fillUint(&cfg.Chat.MaxHistory, d.Chat.MaxHistory)

	fill(&cfg.API.Listen, d.API.Listen)
	fill(&cfg.Events.Topic, d.Events.Topic)
}

// SaveConfig persists the configuration to config.toml in the target .wikiart/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config with defaults for the named preset.
// Supported presets: "ollama", "offline", "openai".
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "ollama":
		return cfg, nil

	case "offline":
		// Local feature-hashing embeddings; generation still needs Ollama.
		cfg.Embedding.Provider = "hashing"
		cfg.Embedding.Target = ""
		cfg.Embedding.Model = "hashing-v1"
		cfg.Embedding.Dimensions = 512
		return cfg, nil

	case "openai":
		cfg.Embedding.Provider = "openai"
		cfg.Embedding.Target = "https://api.openai.com/v1"
		cfg.Embedding.Model = "text-embedding-3-small"
		cfg.Embedding.Dimensions = 1536
		cfg.Generation.Provider = "openai"
		cfg.Generation.Target = "https://api.openai.com/v1"
		cfg.Generation.Model = "gpt-4o-mini"
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"ollama", "offline", "openai"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}

// FromViper materializes a Config from a viper instance produced by InitViper,
// so flag and environment overrides are reflected in the result.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{Version: v.GetInt("version")}
	for key, info := range configKeys {
		raw := v.GetString(key)
		if raw == "" {
			continue
		}
		if err := info.set(cfg, raw); err != nil {
			return nil, err
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}
