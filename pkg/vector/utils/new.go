// Package vectorutils builds the configured index store.
package vectorutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/wikiart/pkg/vector"
	"github.com/papercomputeco/wikiart/pkg/vector/sqlitevec"
)

// Store provider names.
const (
	ProviderFile   = "file"
	ProviderSQLite = "sqlite"
)

type NewStoreOpts struct {
	ProviderType string
	FilePath     string
	SQLitePath   string
	Logger       *slog.Logger
}

func NewStore(o *NewStoreOpts) (vector.Store, error) {
	switch o.ProviderType {
	case ProviderFile, "":
		return vector.NewFileStore(o.FilePath), nil
	case ProviderSQLite:
		return sqlitevec.NewStore(sqlitevec.Config{
			DBPath: o.SQLitePath,
			Logger: o.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported index provider: %s", o.ProviderType)
	}
}
