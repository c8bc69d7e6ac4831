// Package api provides the HTTP API for searching the artwork catalog and
// chatting about it.
package api

import (
	"context"
	"net/http"

	apisearch "github.com/papercomputeco/wikiart/api/search"
	"github.com/papercomputeco/wikiart/pkg/chat"
	"github.com/papercomputeco/wikiart/pkg/search"
	"github.com/papercomputeco/wikiart/pkg/storage"
)

// IndexManager is satisfied by *search.Manager.
type IndexManager interface {
	Snapshot() *search.Snapshot
	Rebuild(ctx context.Context) (*search.Snapshot, error)
}

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string

	Searcher     apisearch.Searcher
	Index        IndexManager
	Orchestrator *chat.Orchestrator
	Sessions     *chat.Registry

	// Transcripts is the optional transcript store backing
	// GET /v1/sessions/:id/transcript.
	Transcripts storage.Driver

	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
}
