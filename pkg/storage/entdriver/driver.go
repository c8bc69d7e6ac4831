// Package entdriver implements storage.Driver on top of ent's dialect-aware
// SQL builder. It is database-agnostic and is embedded by the sqlite and
// postgres drivers.
package entdriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/wikiart/pkg/storage"
)

const table = "exchanges"

// Both SQLite and PostgreSQL accept this DDL unchanged.
const createTable = `CREATE TABLE IF NOT EXISTS exchanges (
	session_id  VARCHAR(64)  NOT NULL,
	seq         BIGINT       NOT NULL,
	question    TEXT         NOT NULL,
	answer      TEXT         NOT NULL,
	model       VARCHAR(255) NOT NULL DEFAULT '',
	sources     TEXT         NOT NULL,
	attempts    INTEGER      NOT NULL,
	duration_ms BIGINT       NOT NULL,
	created_at  BIGINT       NOT NULL,
	PRIMARY KEY (session_id, seq)
)`

var columns = []string{
	"session_id", "seq", "question", "answer", "model",
	"sources", "attempts", "duration_ms", "created_at",
}

// EntDriver provides storage operations over an ent SQL driver.
type EntDriver struct {
	drv     *entsql.Driver
	dialect string
}

// Open wraps db for the given ent dialect and creates the schema.
func Open(ctx context.Context, dialectName string, db *sql.DB) (*EntDriver, error) {
	ed := &EntDriver{
		drv:     entsql.OpenDB(dialectName, db),
		dialect: dialectName,
	}

	if err := ed.drv.Exec(ctx, createTable, []any{}, nil); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return ed, nil
}

// Append stores an entry, rejecting a duplicate (session, seq).
func (ed *EntDriver) Append(ctx context.Context, e *storage.Entry) error {
	if e == nil {
		return storage.ErrNilEntry
	}

	exists, err := ed.exists(ctx, e.SessionID, e.Seq)
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: session %s seq %d", storage.ErrConflict, e.SessionID, e.Seq)
	}

	sources, err := json.Marshal(e.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args := entsql.Dialect(ed.dialect).
		Insert(table).
		Columns(columns...).
		Values(
			e.SessionID, e.Seq, e.Question, e.Answer, e.Model,
			string(sources), e.Attempts, e.DurationMs, createdAt.UTC().UnixNano(),
		).
		Query()

	if err := ed.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// List returns the session's entries ordered by seq.
func (ed *EntDriver) List(ctx context.Context, sessionID string) ([]*storage.Entry, error) {
	query, args := entsql.Dialect(ed.dialect).
		Select(columns...).
		From(entsql.Table(table)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("seq").
		Query()

	var rows entsql.Rows
	if err := ed.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := []*storage.Entry{}
	for rows.Next() {
		var (
			e         storage.Entry
			sources   string
			createdAt int64
		)
		if err := rows.Scan(
			&e.SessionID, &e.Seq, &e.Question, &e.Answer, &e.Model,
			&sources, &e.Attempts, &e.DurationMs, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(sources), &e.Sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sources: %w", err)
		}
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// Close closes the underlying database.
func (ed *EntDriver) Close() error {
	return ed.drv.Close()
}

func (ed *EntDriver) exists(ctx context.Context, sessionID string, seq int) (bool, error) {
	query, args := entsql.Dialect(ed.dialect).
		Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Where(entsql.And(
			entsql.EQ("session_id", sessionID),
			entsql.EQ("seq", seq),
		)).
		Query()

	var rows entsql.Rows
	if err := ed.drv.Query(ctx, query, args, &rows); err != nil {
		return false, err
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return false, err
		}
	}
	return n > 0, rows.Err()
}

var _ storage.Driver = (*EntDriver)(nil)
