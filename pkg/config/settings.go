package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/papercomputeco/wikiart/pkg/dotdir"
)

// Settings is the validated, read-only runtime view of a Config. It is built
// once at startup and handed to every component that needs it.
type Settings struct {
	CatalogPath string
	Delimiter   rune

	IndexProvider   string
	IndexPath       string
	IndexSQLitePath string

	EmbeddingProvider    string
	EmbeddingTarget      string
	EmbeddingModel       string
	EmbeddingDimensions  int
	EmbeddingBatchSize   int
	EmbeddingConcurrency int

	GenerationProvider string
	GenerationTarget   string
	GenerationModel    string
	Timeout            time.Duration
	Retries            int
	RetryDelay         time.Duration
	Temperature        float64

	TopK       int
	MaxHistory int

	APIListen string

	StorageProvider string
	StorageTarget   string

	EventsProvider string
	EventsBrokers  []string
	EventsTopic    string
}

// Settings validates the config and resolves index paths relative to the
// .wikiart/ directory chosen by configDir.
func (c *Config) Settings(configDir string) (*Settings, error) {
	var errs []error

	delim, size := utf8.DecodeRuneInString(c.Catalog.Delimiter)
	if c.Catalog.Delimiter == "" || size != len(c.Catalog.Delimiter) || delim == '"' || delim == '\n' {
		errs = append(errs, fmt.Errorf("catalog.delimiter must be a single character, got %q", c.Catalog.Delimiter))
	}

	timeout, err := time.ParseDuration(c.Generation.Timeout)
	if err != nil || timeout <= 0 {
		errs = append(errs, fmt.Errorf("generation.timeout must be a positive duration, got %q", c.Generation.Timeout))
	}

	retryDelay, err := time.ParseDuration(c.Generation.RetryDelay)
	if err != nil || retryDelay < 0 {
		errs = append(errs, fmt.Errorf("generation.retry_delay must be a duration, got %q", c.Generation.RetryDelay))
	}

	if c.Chat.TopK == 0 {
		errs = append(errs, errors.New("chat.top_k must be at least 1"))
	}

	if c.Embedding.Dimensions == 0 {
		errs = append(errs, errors.New("embedding.dimensions must be configured"))
	}

	switch c.Index.Provider {
	case "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported index.provider %q (file, sqlite)", c.Index.Provider))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	ddm := dotdir.NewManager()
	indexPath, err := ddm.Resolve(configDir, c.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("resolving index.path: %w", err)
	}
	sqlitePath, err := ddm.Resolve(configDir, c.Index.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("resolving index.sqlite_path: %w", err)
	}

	s := &Settings{
		CatalogPath: c.Catalog.Path,
		Delimiter:   delim,

		IndexProvider:   c.Index.Provider,
		IndexPath:       indexPath,
		IndexSQLitePath: sqlitePath,

		EmbeddingProvider:    c.Embedding.Provider,
		EmbeddingTarget:      c.Embedding.Target,
		EmbeddingModel:       c.Embedding.Model,
		EmbeddingDimensions:  int(c.Embedding.Dimensions),
		EmbeddingBatchSize:   int(c.Embedding.BatchSize),
		EmbeddingConcurrency: int(c.Embedding.Concurrency),

		GenerationProvider: c.Generation.Provider,
		GenerationTarget:   c.Generation.Target,
		GenerationModel:    c.Generation.Model,
		Timeout:            timeout,
		RetryDelay:         retryDelay,

		TopK:       int(c.Chat.TopK),
		MaxHistory: int(c.Chat.MaxHistory),

		APIListen: c.API.Listen,

		StorageProvider: c.Storage.Provider,
		StorageTarget:   c.Storage.Target,

		EventsProvider: c.Events.Provider,
		EventsTopic:    c.Events.Topic,
	}

	if c.Generation.Retries != nil {
		s.Retries = int(*c.Generation.Retries)
	}
	if c.Generation.Temperature != nil {
		s.Temperature = *c.Generation.Temperature
	}

	for _, b := range strings.Split(c.Events.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			s.EventsBrokers = append(s.EventsBrokers, b)
		}
	}

	return s, nil
}
