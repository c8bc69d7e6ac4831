// Package postgres stores transcripts in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"

	"github.com/papercomputeco/wikiart/pkg/storage/entdriver"
)

const (
	maxOpenConns = 8
	pingTimeout  = 5 * time.Second
)

// Driver is a storage.Driver over a pgx connection pool.
type Driver struct {
	*entdriver.EntDriver
}

// NewDriver connects with dsn, either key=value pairs or a postgres:// URL,
// and creates the transcripts table when missing. The server must answer a
// ping within five seconds.
func NewDriver(ctx context.Context, dsn string) (*Driver, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reaching postgres: %w", err)
	}

	ed, err := entdriver.Open(ctx, dialect.Postgres, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Driver{EntDriver: ed}, nil
}
