// Package storageutils builds the configured transcript store.
package storageutils

import (
	"context"
	"fmt"

	"github.com/papercomputeco/wikiart/pkg/storage"
	"github.com/papercomputeco/wikiart/pkg/storage/inmemory"
	"github.com/papercomputeco/wikiart/pkg/storage/postgres"
	"github.com/papercomputeco/wikiart/pkg/storage/sqlite"
)

// Driver provider names. An empty provider disables the transcript store
// and is handled by callers.
const (
	ProviderMemory   = "memory"
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
)

type NewDriverOpts struct {
	ProviderType string

	// Target is the SQLite path or the PostgreSQL connection string.
	Target string
}

func NewDriver(ctx context.Context, o *NewDriverOpts) (storage.Driver, error) {
	switch o.ProviderType {
	case ProviderMemory:
		return inmemory.NewDriver(), nil
	case ProviderSQLite:
		if o.Target == "" {
			return nil, fmt.Errorf("storage.target is required for %s", o.ProviderType)
		}
		return sqlite.NewDriver(ctx, o.Target)
	case ProviderPostgres:
		if o.Target == "" {
			return nil, fmt.Errorf("storage.target is required for %s", o.ProviderType)
		}
		return postgres.NewDriver(ctx, o.Target)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %q", o.ProviderType)
	}
}
