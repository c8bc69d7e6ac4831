package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/papercomputeco/wikiart/pkg/catalog"
	"github.com/papercomputeco/wikiart/pkg/embeddings"
	"github.com/papercomputeco/wikiart/pkg/metrics"
	"github.com/papercomputeco/wikiart/pkg/vector"
)

// Source says where the active index came from.
type Source string

const (
	SourceLoaded Source = "loaded"
	SourceBuilt  Source = "built"
)

// Snapshot pairs an index with the catalog records it was built from.
// Records[i] corresponds to index position i. Snapshots are immutable.
type Snapshot struct {
	Index   *vector.Index
	Records []catalog.Artwork
	Source  Source
}

// Record returns the catalog record for an index hit, or false when the
// position has no matching record.
func (s *Snapshot) Record(h vector.Hit) (catalog.Artwork, bool) {
	if h.Position < 0 || h.Position >= len(s.Records) {
		return catalog.Artwork{}, false
	}
	r := s.Records[h.Position]
	if r.ID != h.ID {
		return catalog.Artwork{}, false
	}
	return r, true
}

// ManagerConfig wires the index lifecycle.
type ManagerConfig struct {
	CatalogPath    string
	CatalogOptions catalog.Options

	Embedder embeddings.Embedder
	Store    vector.Store

	BatchSize   int
	Concurrency int

	Logger *slog.Logger
}

// Manager owns the process-wide index. Readers take the current snapshot
// without locking; rebuilds are serialized and swap the snapshot only once
// the new index is complete.
type Manager struct {
	cfg     ManagerConfig
	log     *slog.Logger
	current atomic.Pointer[Snapshot]
	buildMu sync.Mutex
}

// NewManager returns a manager with no active index.
func NewManager(cfg ManagerConfig) *Manager {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Manager{cfg: cfg, log: log}
}

// Snapshot returns the active snapshot, or nil before the first Ensure or
// Rebuild.
func (m *Manager) Snapshot() *Snapshot {
	return m.current.Load()
}

// Ensure returns the active snapshot, loading the persisted index or
// rebuilding it from the catalog on first use. Catalog errors are returned
// as is; an unusable persisted index is logged and rebuilt.
func (m *Manager) Ensure(ctx context.Context) (*Snapshot, error) {
	if s := m.current.Load(); s != nil {
		return s, nil
	}

	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	if s := m.current.Load(); s != nil {
		return s, nil
	}

	records, digest, err := m.readCatalog()
	if err != nil {
		return nil, err
	}

	idx, err := m.loadPersisted(ctx, digest)
	switch {
	case err == nil:
		s := &Snapshot{Index: idx, Records: records, Source: SourceLoaded}
		aerr := checkAlignment(s)
		if aerr == nil {
			m.swap(s)
			m.log.Info("loaded persisted index", "entries", idx.Len(), "model", idx.Meta().Model)
			return s, nil
		}
		m.log.Warn("persisted index does not match catalog, rebuilding", "error", aerr)
	case errors.Is(err, vector.ErrNotFound):
		m.log.Info("no persisted index, building from catalog")
	case errors.Is(err, vector.ErrIndexLoad):
		m.log.Warn("persisted index unusable, rebuilding", "error", err)
	default:
		return nil, err
	}

	s, err := m.build(ctx, records, digest)
	if err != nil {
		return nil, err
	}
	if err := m.persist(ctx, s); err != nil {
		m.log.Warn("serving index from memory", "error", err)
	}
	return s, nil
}

// Rebuild re-reads the catalog, builds a new index, swaps it in and then
// persists it. If persisting fails the new index stays active and the error
// is returned.
func (m *Manager) Rebuild(ctx context.Context) (*Snapshot, error) {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	records, digest, err := m.readCatalog()
	if err != nil {
		return nil, err
	}

	s, err := m.build(ctx, records, digest)
	if err != nil {
		return nil, err
	}
	return s, m.persist(ctx, s)
}

func (m *Manager) readCatalog() ([]catalog.Artwork, string, error) {
	opts := m.cfg.CatalogOptions
	if opts.Logger == nil {
		opts.Logger = m.log
	}

	records, err := catalog.Load(m.cfg.CatalogPath, opts)
	if err != nil {
		return nil, "", err
	}
	digest, err := catalog.Digest(m.cfg.CatalogPath)
	if err != nil {
		return nil, "", err
	}
	return records, digest, nil
}

func (m *Manager) loadPersisted(ctx context.Context, digest string) (*vector.Index, error) {
	if m.cfg.Store == nil {
		return nil, fmt.Errorf("%w: %w: no store configured", vector.ErrIndexLoad, vector.ErrNotFound)
	}

	idx, err := m.cfg.Store.Load(ctx)
	if err != nil {
		return nil, err
	}

	dims, err := m.cfg.Embedder.Dimensions(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving encoder dimensions: %w", err)
	}

	err = vector.Validate(idx, vector.Expectation{
		Model:         m.cfg.Embedder.Model(),
		Dimensions:    dims,
		CatalogDigest: digest,
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (m *Manager) build(ctx context.Context, records []catalog.Artwork, digest string) (*Snapshot, error) {
	start := time.Now()
	idx, err := Build(ctx, records, BuildConfig{
		Embedder:      m.cfg.Embedder,
		BatchSize:     m.cfg.BatchSize,
		Concurrency:   m.cfg.Concurrency,
		CatalogDigest: digest,
		Logger:        m.log,
	})
	metrics.IndexBuildsTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())

	s := &Snapshot{Index: idx, Records: records, Source: SourceBuilt}
	m.swap(s)

	m.log.Info("built index",
		"entries", idx.Len(),
		"model", idx.Meta().Model,
		"dimensions", idx.Dimensions(),
		"duration", time.Since(start),
	)
	return s, nil
}

func (m *Manager) persist(ctx context.Context, s *Snapshot) error {
	if m.cfg.Store == nil {
		return nil
	}
	if err := m.cfg.Store.Save(ctx, s.Index); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}
	return nil
}

func (m *Manager) swap(s *Snapshot) {
	m.current.Store(s)
	metrics.IndexEntries.Set(float64(s.Index.Len()))
}

// checkAlignment guards against a persisted index whose identifiers no
// longer line up with the catalog rows.
func checkAlignment(s *Snapshot) error {
	if s.Index.Len() != len(s.Records) {
		return fmt.Errorf("%w: %w: index has %d entries, catalog %d",
			vector.ErrIndexLoad, vector.ErrCountMismatch, s.Index.Len(), len(s.Records))
	}
	for i, r := range s.Records {
		if id, _ := s.Index.IDAt(i); id != r.ID {
			return fmt.Errorf("%w: position %d holds %q, catalog has %q", vector.ErrIndexLoad, i, id, r.ID)
		}
	}
	return nil
}
