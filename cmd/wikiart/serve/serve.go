// Package servecmder provides the serve command, which runs the HTTP API and
// MCP server over the artwork index.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/api"
	"github.com/papercomputeco/wikiart/api/mcp"
	"github.com/papercomputeco/wikiart/cmd/wikiart/stack"
	"github.com/papercomputeco/wikiart/pkg/catalog"
	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/config"
	"github.com/papercomputeco/wikiart/pkg/eventstream"
	"github.com/papercomputeco/wikiart/pkg/eventstream/kafka"
	"github.com/papercomputeco/wikiart/pkg/eventstream/nop"
	"github.com/papercomputeco/wikiart/pkg/llm"
	"github.com/papercomputeco/wikiart/pkg/logger"
	"github.com/papercomputeco/wikiart/pkg/storage"
	storageutils "github.com/papercomputeco/wikiart/pkg/storage/utils"
	"github.com/papercomputeco/wikiart/pkg/worker"
)

const serveLongDesc string = `Run the wikiart HTTP API and MCP server.

The server keeps one conversation per session id, exposes similarity search
and index rebuilds, serves Prometheus metrics at /metrics and mounts MCP
tools (search_artworks, ask_about_art) at /mcp.

When storage.provider is set, completed exchanges are written to the
transcript store. When events.provider is "kafka", they are also published
to events.topic. Both happen in the background and never delay a reply.

The catalog file is watched and the index rebuilt when it changes. Pass
--watch=false to disable this. With --log-file, every log record is also
appended to that file as JSON. Sessions idle for longer than --session-idle
are discarded; 0 keeps them until deleted.

Examples:
  wikiart serve
  wikiart serve --listen :9000
  WIKIART_STORAGE_PROVIDER=sqlite WIKIART_STORAGE_TARGET=wikiart.db wikiart serve`

const serveShortDesc string = "Run the HTTP API and MCP server"

const defaultSessionIdle = 30 * time.Minute

// Event stream provider names.
const (
	eventsKafka = "kafka"
	eventsNop   = "nop"
)

var serveFlags = []string{
	config.FlagCatalog,
	config.FlagIndexProvider,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagGenerationTgt,
	config.FlagGenerationModel,
	config.FlagTimeout,
	config.FlagRetries,
	config.FlagTopK,
	config.FlagMaxHistory,
	config.FlagAPIListen,
}

type serveCommander struct {
	watch       bool
	logFile     string
	sessionIdle time.Duration

	catalog           string
	indexProvider     string
	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	generationTarget  string
	model             string
	timeout           string
	retries           uint
	topK              uint
	maxHistory        uint
	listen            string
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagCatalog, &cmder.catalog)
	config.AddStringFlag(cmd, config.Flags, config.FlagIndexProvider, &cmder.indexProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenerationTgt, &cmder.generationTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenerationModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.timeout)
	config.AddUintFlag(cmd, config.Flags, config.FlagRetries, &cmder.retries)
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	config.AddUintFlag(cmd, config.Flags, config.FlagMaxHistory, &cmder.maxHistory)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	cmd.Flags().BoolVar(&cmder.watch, "watch", true, "Rebuild the index when the catalog file changes")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also append JSON logs to this file")
	cmd.Flags().DurationVar(&cmder.sessionIdle, "session-idle", defaultSessionIdle, "Discard sessions idle for this long (0 disables)")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	settings, err := stack.LoadSettings(cmd, serveFlags)
	if err != nil {
		return err
	}

	console, err := stack.NewLogger(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := c.teeLog(cmd, console)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := stack.New(settings, log)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}
	log.Info("index ready", "entries", snap.Index.Len(), "source", string(snap.Source))

	gen, err := st.NewGenerator()
	if err != nil {
		return err
	}
	if err := gen.Health(ctx); err != nil {
		log.Warn("generation service is not ready", "provider", gen.Name(), "error", err)
	}

	svc, err := newServices(ctx, st, gen)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.close(); err != nil {
			log.Warn("shutdown", "error", err)
		}
	}()

	errChan := make(chan error, 2)

	go func() {
		if err := svc.api.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	go svc.sweepSessions(ctx, c.sessionIdle, log)

	if c.watch {
		watcher, err := catalog.NewWatcher(settings.CatalogPath, 0, logger.Component(log, "watcher"))
		if err != nil {
			return err
		}
		go func() {
			if err := watcher.Run(ctx, rebuildOnChange(st, log)); err != nil {
				errChan <- err
			}
		}()
	}

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		log.Info("received signal, shutting down")
		return nil
	}
}

// teeLog adds a JSON file logger next to the console one when --log-file is
// set.
func (c *serveCommander) teeLog(cmd *cobra.Command, console *slog.Logger) (*slog.Logger, func(), error) {
	if c.logFile == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	file := logger.New(
		logger.WithFormat(logger.FormatJSON),
		logger.WithDebug(debug),
		logger.WithWriter(f),
	)
	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

// rebuildOnChange swaps in a fresh index after a catalog edit. A failed
// rebuild keeps serving the previous index.
func rebuildOnChange(st *stack.Stack, log *slog.Logger) func(ctx context.Context) {
	return func(ctx context.Context) {
		snap, err := st.Manager.Rebuild(ctx)
		switch {
		case snap == nil:
			log.Error("catalog rebuild failed, keeping previous index", "error", err)
		case err != nil:
			log.Warn("rebuilt index is not persisted", "entries", snap.Index.Len(), "error", err)
		default:
			log.Info("rebuilt index", "entries", snap.Index.Len())
		}
	}
}

// services is everything serve runs on top of the shared stack.
type services struct {
	api         *api.Server
	sessions    *chat.Registry
	transcripts storage.Driver
	publisher   eventstream.Publisher
	pool        *worker.Pool
}

func newServices(ctx context.Context, st *stack.Stack, gen llm.Generator) (_ *services, err error) {
	settings, log := st.Settings, st.Logger
	svc := &services{sessions: chat.NewRegistry(settings.MaxHistory)}
	defer func() {
		if err != nil {
			_ = svc.close()
		}
	}()

	if settings.StorageProvider != "" {
		svc.transcripts, err = storageutils.NewDriver(ctx, &storageutils.NewDriverOpts{
			ProviderType: settings.StorageProvider,
			Target:       settings.StorageTarget,
		})
		if err != nil {
			return nil, fmt.Errorf("creating transcript store: %w", err)
		}
		log.Info("recording transcripts", "provider", settings.StorageProvider)
	}

	svc.publisher, err = newPublisher(settings, log)
	if err != nil {
		return nil, err
	}

	var observers []chat.Observer
	if svc.transcripts != nil || svc.publisher != nil {
		svc.pool, err = worker.NewPool(&worker.Config{
			Driver:    svc.transcripts,
			Publisher: svc.publisher,
			Provider:  gen.Name(),
			Logger:    logger.Component(log, "worker"),
		})
		if err != nil {
			return nil, err
		}
		observers = append(observers, svc.pool)
	}

	orch, err := st.NewOrchestrator(gen, observers...)
	if err != nil {
		return nil, err
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Searcher:     st.Retriever,
		Orchestrator: orch,
		Sessions:     svc.sessions,
		Logger:       logger.Component(log, "mcp"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	svc.api, err = api.NewServer(api.Config{
		ListenAddr:   settings.APIListen,
		Searcher:     st.Retriever,
		Index:        st.Manager,
		Orchestrator: orch,
		Sessions:     svc.sessions,
		Transcripts:  svc.transcripts,
		MCPHandler:   mcpServer.Handler(),
	}, logger.Component(log, "api"))
	if err != nil {
		return nil, err
	}

	return svc, nil
}

func newPublisher(s *config.Settings, log *slog.Logger) (eventstream.Publisher, error) {
	switch s.EventsProvider {
	case "":
		return nil, nil
	case eventsNop:
		return nop.NewPublisher(), nil
	case eventsKafka:
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: s.EventsBrokers,
			Topic:   s.EventsTopic,
			Logger:  logger.Component(log, "kafka"),
		})
		if err != nil {
			return nil, err
		}
		log.Info("publishing exchange events", "brokers", s.EventsBrokers, "topic", s.EventsTopic)
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %q (kafka, nop)", s.EventsProvider)
	}
}

// close stops the API first so no new exchanges arrive, then drains the
// pool before its sinks are closed.
// sweepSessions evicts idle sessions until ctx is done.
func (s *services) sweepSessions(ctx context.Context, idle time.Duration, log *slog.Logger) {
	s.sessions.Sweep(ctx, idle, func(n int) {
		log.Debug("discarded idle sessions", "count", n, "remaining", s.sessions.Len())
	})
}

func (s *services) close() error {
	var errs []error
	if s.api != nil {
		errs = append(errs, s.api.Shutdown())
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.transcripts != nil {
		errs = append(errs, s.transcripts.Close())
	}
	return errors.Join(errs...)
}
