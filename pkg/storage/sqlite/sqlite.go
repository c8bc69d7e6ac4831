// Package sqlite provides a SQLite-backed transcript store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/wikiart/pkg/storage/entdriver"
)

// Driver implements storage.Driver using SQLite.
type Driver struct {
	*entdriver.EntDriver
}

// NewDriver opens the database at dbPath, which can be a file path or
// ":memory:", and creates the schema.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	ed, err := entdriver.Open(ctx, dialect.SQLite, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{EntDriver: ed}, nil
}
