// Package sqlitevec persists the artwork index in SQLite using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/wikiart/pkg/vector"
)

// Store implements vector.Store on a single SQLite file. Entries map
// catalog positions to artwork ids; a vec0 table holds the embeddings keyed
// by position+1.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Config holds configuration for the SQLite vec store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	Logger *slog.Logger
}

// NewStore opens the database and checks that sqlite-vec is loaded.
func NewStore(c Config) (*Store, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS index_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			meta TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS index_entries (
			position INTEGER PRIMARY KEY,
			artwork_id TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index tables: %w", err)
	}

	logger.Debug("sqlite-vec index store opened",
		"db_path", c.DBPath,
		"vec_version", vecVersion,
	)

	return &Store{db: db, logger: logger}, nil
}

// Save replaces the stored index inside one transaction.
func (s *Store) Save(ctx context.Context, idx *vector.Index) error {
	metaJSON, err := json.Marshal(idx.Meta())
	if err != nil {
		return fmt.Errorf("encoding index metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// vec0 tables fix their dimension at creation, so recreate on every save.
	stmts := []string{
		`DROP TABLE IF EXISTS vec_artworks`,
		fmt.Sprintf(`CREATE VIRTUAL TABLE vec_artworks USING vec0(embedding float[%d])`, idx.Dimensions()),
		`DELETE FROM index_entries`,
		`DELETE FROM index_meta`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("resetting index tables: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO index_meta(id, meta) VALUES (1, ?)`, string(metaJSON)); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}

	entryStmt, err := tx.PrepareContext(ctx, `INSERT INTO index_entries(position, artwork_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing entry insert: %w", err)
	}
	defer entryStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, `INSERT INTO vec_artworks(rowid, embedding) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing embedding insert: %w", err)
	}
	defer vecStmt.Close()

	for pos, id := range idx.IDs() {
		if _, err := entryStmt.ExecContext(ctx, pos, id); err != nil {
			return fmt.Errorf("inserting entry %d: %w", pos, err)
		}
		if _, err := vecStmt.ExecContext(ctx, pos+1, serializeFloat32(idx.Vector(pos))); err != nil {
			return fmt.Errorf("inserting embedding %d: %w", pos, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("saved index to sqlite-vec", "entries", idx.Len())
	return nil
}

// Load reads metadata, entries and embeddings back into an index.
func (s *Store) Load(ctx context.Context) (*vector.Index, error) {
	var metaJSON string
	err := s.db.QueryRowContext(ctx, `SELECT meta FROM index_meta WHERE id = 1`).Scan(&metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %w: no index saved", vector.ErrIndexLoad, vector.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading metadata: %w", vector.ErrIndexLoad, err)
	}

	var meta vector.Meta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("%w: decoding metadata: %w", vector.ErrIndexLoad, err)
	}

	ids, err := s.loadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrIndexLoad, err)
	}

	vectors, err := s.loadEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrIndexLoad, err)
	}

	return vector.FromParts(meta, ids, vectors)
}

func (s *Store) loadEntries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT position, artwork_id FROM index_entries ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var (
			pos int
			id  string
		)
		if err := rows.Scan(&pos, &id); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if pos != len(ids) {
			return nil, fmt.Errorf("entry positions are not contiguous at %d", pos)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) loadEmbeddings(ctx context.Context) ([][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT rowid, embedding FROM vec_artworks ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var vectors [][]float32
	for rows.Next() {
		var (
			rowID int64
			blob  []byte
		)
		if err := rows.Scan(&rowID, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		if rowID != int64(len(vectors)+1) {
			return nil, fmt.Errorf("embedding rows are not contiguous at %d", rowID)
		}
		v, err := deserializeFloat32(blob)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, rows.Err()
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

var _ vector.Store = (*Store)(nil)
