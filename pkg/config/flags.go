package config

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// on "wikiart chat", "wikiart search" and "wikiart serve" cannot drift.
type Flag struct {
	// Name is the long flag name (e.g. "model").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "generation.model").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagCatalog         = "catalog"
	FlagIndexProvider   = "index-provider"
	FlagIndexPath       = "index-path"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagGenerationTgt   = "generation-target"
	FlagGenerationModel = "model"
	FlagTimeout         = "timeout"
	FlagRetries         = "retries"
	FlagTopK            = "top-k"
	FlagMaxHistory      = "max-history"
	FlagAPIListen       = "listen"
)

// Flags is the shared registry used by all wikiart commands.
var Flags = FlagSet{
	FlagCatalog:         {Name: "catalog", Shorthand: "c", ViperKey: "catalog.path", Description: "Path to the artwork catalog CSV"},
	FlagIndexProvider:   {Name: "index-provider", ViperKey: "index.provider", Description: "Index persistence backend (file, sqlite)"},
	FlagIndexPath:       {Name: "index-path", ViperKey: "index.path", Description: "Path of the persisted index file"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, openai, hashing)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding service URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	FlagGenerationTgt:   {Name: "generation-target", Shorthand: "g", ViperKey: "generation.target", Description: "Generation service URL"},
	FlagGenerationModel: {Name: "model", Shorthand: "m", ViperKey: "generation.model", Description: "Generation model name"},
	FlagTimeout:         {Name: "timeout", ViperKey: "generation.timeout", Description: "Per-attempt generation timeout"},
	FlagRetries:         {Name: "retries", ViperKey: "generation.retries", Description: "Generation retries after the first attempt"},
	FlagTopK:            {Name: "top-k", Shorthand: "k", ViperKey: "chat.top_k", Description: "Number of artworks retrieved per question"},
	FlagMaxHistory:      {Name: "max-history", ViperKey: "chat.max_history", Description: "Conversation turns kept in context"},
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
}

// AddStringFlag registers the string flag for key on cmd. Name, shorthand,
// help and default all come from fs, the default being the value in
// NewDefaultConfig for the flag's config key. Unknown keys are ignored.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	if def, ok := fs[key]; ok {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultValue(def.ViperKey), def.Description)
	}
}

// AddUintFlag is AddStringFlag for uint-valued keys.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string, target *uint) {
	def, ok := fs[key]
	if !ok {
		return
	}

	var n uint
	if raw := defaultValue(def.ViperKey); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err == nil {
			n = uint(parsed)
		}
	}
	cmd.Flags().UintVarP(target, def.Name, def.Shorthand, n, def.Description)
}

// BindRegisteredFlags ties each listed flag, once registered on cmd, to its
// config key in v. A flag the user set then outranks env, config.toml and
// defaults.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, keys []string) {
	for _, key := range keys {
		def, ok := fs[key]
		if !ok {
			continue
		}
		if f := cmd.Flags().Lookup(def.Name); f != nil {
			_ = v.BindPFlag(def.ViperKey, f)
		}
	}
}

func defaultValue(configKey string) string {
	info, ok := configKeys[configKey]
	if !ok {
		return ""
	}
	return info.get(NewDefaultConfig())
}
