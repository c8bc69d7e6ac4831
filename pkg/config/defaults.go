package config

const (
	defaultCatalogPath      = "wikiart.csv"
	defaultCatalogDelimiter = ","

	defaultIndexProvider   = "file"
	defaultIndexPath       = "index/artworks.idx"
	defaultIndexSQLitePath = "index/artworks.db"

	defaultProvider = "ollama"
	defaultTarget   = "http://localhost:11434"

	defaultEmbeddingModel       = "all-minilm"
	defaultEmbeddingDimensions  = 384
	defaultEmbeddingBatchSize   = 32
	defaultEmbeddingConcurrency = 4

	defaultGenerationModel       = "llama3.2:latest"
	defaultGenerationTimeout     = "30s"
	defaultGenerationRetries     = 2
	defaultGenerationRetryDelay  = "500ms"
	defaultGenerationTemperature = 0.7

	defaultTopK       = 3
	defaultMaxHistory = 20

	defaultAPIListen = ":8090"

	defaultEventsTopic = "wikiart.exchanges"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	retries := uint(defaultGenerationRetries)
	temperature := defaultGenerationTemperature

	return &Config{
		Version: CurrentV,
		Catalog: CatalogConfig{
			Path:      defaultCatalogPath,
			Delimiter: defaultCatalogDelimiter,
		},
		Index: IndexConfig{
			Provider:   defaultIndexProvider,
			Path:       defaultIndexPath,
			SQLitePath: defaultIndexSQLitePath,
		},
		Embedding: EmbeddingConfig{
			Provider:    defaultProvider,
			Target:      defaultTarget,
			Model:       defaultEmbeddingModel,
			Dimensions:  defaultEmbeddingDimensions,
			BatchSize:   defaultEmbeddingBatchSize,
			Concurrency: defaultEmbeddingConcurrency,
		},
		Generation: GenerationConfig{
			Provider:    defaultProvider,
			Target:      defaultTarget,
			Model:       defaultGenerationModel,
			Timeout:     defaultGenerationTimeout,
			Retries:     &retries,
			RetryDelay:  defaultGenerationRetryDelay,
			Temperature: &temperature,
		},
		Chat: ChatConfig{
			TopK:       defaultTopK,
			MaxHistory: defaultMaxHistory,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
	}
}
