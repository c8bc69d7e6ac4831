package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent wikiart configuration stored as config.toml
// in the .wikiart/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Index      IndexConfig      `toml:"index"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Generation GenerationConfig `toml:"generation"`
	Chat       ChatConfig       `toml:"chat"`
	API        APIConfig        `toml:"api"`
	Storage    StorageConfig    `toml:"storage"`
	Events     EventsConfig     `toml:"events"`
}

// CatalogConfig locates the artwork catalog file.
type CatalogConfig struct {
	Path      string `toml:"path,omitempty"`
	Delimiter string `toml:"delimiter,omitempty"`
}

// IndexConfig holds persisted search index settings. Relative paths resolve
// against the .wikiart/ directory.
type IndexConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Path       string `toml:"path,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider    string `toml:"provider,omitempty"`
	Target      string `toml:"target,omitempty"`
	Model       string `toml:"model,omitempty"`
	Dimensions  uint   `toml:"dimensions,omitempty"`
	BatchSize   uint   `toml:"batch_size,omitempty"`
	Concurrency uint   `toml:"concurrency,omitempty"`
}

// GenerationConfig holds settings for the language model service.
// Durations use Go duration syntax ("30s", "500ms").
type GenerationConfig struct {
	Provider    string   `toml:"provider,omitempty"`
	Target      string   `toml:"target,omitempty"`
	Model       string   `toml:"model,omitempty"`
	Timeout     string   `toml:"timeout,omitempty"`
	Retries     *uint    `toml:"retries"`
	RetryDelay  string   `toml:"retry_delay,omitempty"`
	Temperature *float64 `toml:"temperature"`
}

// ChatConfig holds conversation settings.
type ChatConfig struct {
	TopK       uint `toml:"top_k,omitempty"`
	MaxHistory uint `toml:"max_history,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// StorageConfig holds the optional transcript store. An empty provider
// disables it.
type StorageConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// EventsConfig holds the optional exchange event stream. An empty provider
// disables it.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"catalog.path":      stringKey(func(c *Config) *string { return &c.Catalog.Path }),
	"catalog.delimiter": stringKey(func(c *Config) *string { return &c.Catalog.Delimiter }),

	"index.provider":    stringKey(func(c *Config) *string { return &c.Index.Provider }),
	"index.path":        stringKey(func(c *Config) *string { return &c.Index.Path }),
	"index.sqlite_path": stringKey(func(c *Config) *string { return &c.Index.SQLitePath }),

	"embedding.provider":    stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":      stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":       stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions":  uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.batch_size":  uintKey("embedding.batch_size", func(c *Config) *uint { return &c.Embedding.BatchSize }),
	"embedding.concurrency": uintKey("embedding.concurrency", func(c *Config) *uint { return &c.Embedding.Concurrency }),

	"generation.provider":    stringKey(func(c *Config) *string { return &c.Generation.Provider }),
	"generation.target":      stringKey(func(c *Config) *string { return &c.Generation.Target }),
	"generation.model":       stringKey(func(c *Config) *string { return &c.Generation.Model }),
	"generation.timeout":     stringKey(func(c *Config) *string { return &c.Generation.Timeout }),
	"generation.retry_delay": stringKey(func(c *Config) *string { return &c.Generation.RetryDelay }),
	"generation.retries": {
		get: func(c *Config) string {
			if c.Generation.Retries == nil {
				return ""
			}
			return strconv.FormatUint(uint64(*c.Generation.Retries), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for generation.retries: %w", err)
			}
			r := uint(n)
			c.Generation.Retries = &r
			return nil
		},
	},
	"generation.temperature": {
		get: func(c *Config) string {
			if c.Generation.Temperature == nil {
				return ""
			}
			return strconv.FormatFloat(*c.Generation.Temperature, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("invalid value for generation.temperature: %w", err)
			}
			c.Generation.Temperature = &f
			return nil
		},
	},

	"chat.top_k":       uintKey("chat.top_k", func(c *Config) *uint { return &c.Chat.TopK }),
	"chat.max_history": uintKey("chat.max_history", func(c *Config) *uint { return &c.Chat.MaxHistory }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"storage.provider": stringKey(func(c *Config) *string { return &c.Storage.Provider }),
	"storage.target":   stringKey(func(c *Config) *string { return &c.Storage.Target }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
}
