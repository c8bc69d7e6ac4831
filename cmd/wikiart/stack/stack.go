// Package stack resolves settings and wires the retrieval and generation
// components shared by the wikiart commands.
package stack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/pkg/catalog"
	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/config"
	"github.com/papercomputeco/wikiart/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/wikiart/pkg/embeddings/utils"
	"github.com/papercomputeco/wikiart/pkg/llm"
	llmutils "github.com/papercomputeco/wikiart/pkg/llm/utils"
	"github.com/papercomputeco/wikiart/pkg/logger"
	"github.com/papercomputeco/wikiart/pkg/search"
	"github.com/papercomputeco/wikiart/pkg/vector"
	vectorutils "github.com/papercomputeco/wikiart/pkg/vector/utils"
)

// LoadSettings layers defaults, config.toml, WIKIART_ environment variables
// and the given registered flags, then validates the result.
func LoadSettings(cmd *cobra.Command, flagKeys []string) (*config.Settings, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return cfg.Settings(configDir)
}

// NewLogger logs to stderr so command output on stdout stays clean. The
// format comes from --log-format.
func NewLogger(cmd *cobra.Command) (*slog.Logger, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	name, _ := cmd.Flags().GetString("log-format")

	format, err := logger.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	return logger.New(
		logger.WithDebug(debug),
		logger.WithFormat(format),
		logger.WithWriter(os.Stderr),
	), nil
}

// Stack holds the components built from Settings.
type Stack struct {
	Settings  *config.Settings
	Logger    *slog.Logger
	Embedder  embeddings.Embedder
	Store     vector.Store
	Manager   *search.Manager
	Retriever *search.Retriever
}

// New builds the embedder, index store, index manager and retriever. The
// index itself is not loaded until Ensure.
func New(s *config.Settings, log *slog.Logger) (*Stack, error) {
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: s.EmbeddingProvider,
		TargetURL:    s.EmbeddingTarget,
		Model:        s.EmbeddingModel,
		Dimensions:   s.EmbeddingDimensions,
		Timeout:      s.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store, err := vectorutils.NewStore(&vectorutils.NewStoreOpts{
		ProviderType: s.IndexProvider,
		FilePath:     s.IndexPath,
		SQLitePath:   s.IndexSQLitePath,
		Logger:       log,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("creating index store: %w", err)
	}

	manager := search.NewManager(search.ManagerConfig{
		CatalogPath: s.CatalogPath,
		CatalogOptions: catalog.Options{
			Delimiter: s.Delimiter,
			Logger:    logger.Component(log, "catalog"),
		},
		Embedder:    embedder,
		Store:       store,
		BatchSize:   s.EmbeddingBatchSize,
		Concurrency: s.EmbeddingConcurrency,
		Logger:      logger.Component(log, "index"),
	})

	return &Stack{
		Settings:  s,
		Logger:    log,
		Embedder:  embedder,
		Store:     store,
		Manager:   manager,
		Retriever: search.NewRetriever(manager),
	}, nil
}

// Ensure makes the index ready, loading or building it as needed.
func (st *Stack) Ensure(ctx context.Context) (*search.Snapshot, error) {
	return st.Manager.Ensure(ctx)
}

// NewGenerator builds the configured generation client.
func (st *Stack) NewGenerator() (llm.Generator, error) {
	temperature := st.Settings.Temperature
	return llmutils.NewGenerator(&llmutils.NewGeneratorOpts{
		ProviderType: st.Settings.GenerationProvider,
		TargetURL:    st.Settings.GenerationTarget,
		Model:        st.Settings.GenerationModel,
		Temperature:  &temperature,
	})
}

// NewOrchestrator wires the retriever and gen into a chat orchestrator
// using the configured retrieval and retry settings.
func (st *Stack) NewOrchestrator(gen llm.Generator, observers ...chat.Observer) (*chat.Orchestrator, error) {
	temperature := st.Settings.Temperature
	return chat.NewOrchestrator(chat.Config{
		Searcher:    st.Retriever,
		Generator:   gen,
		Model:       st.Settings.GenerationModel,
		Temperature: &temperature,
		TopK:        st.Settings.TopK,
		Timeout:     st.Settings.Timeout,
		Retries:     st.Settings.Retries,
		RetryDelay:  st.Settings.RetryDelay,
		Observers:   observers,
		Logger:      logger.Component(st.Logger, "chat"),
	})
}

// Close releases the index store and the embedder.
func (st *Stack) Close() error {
	return errors.Join(st.Store.Close(), st.Embedder.Close())
}
