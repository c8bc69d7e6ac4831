// Package indexcmder provides the index command for building and inspecting
// the persisted artwork index.
package indexcmder

import (
	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/pkg/config"
)

const indexLongDesc string = `Build and inspect the artwork index.

The index holds one embedding per catalog record. It is persisted under the
.wikiart/ directory and reused until the catalog or the embedding model
changes.

Use subcommands to build or inspect the index:
  wikiart index build     Embed the catalog and persist a new index
  wikiart index status    Show the persisted index and service health`

const indexShortDesc string = "Build and inspect the artwork index"

var indexFlags = []string{
	config.FlagCatalog,
	config.FlagIndexProvider,
	config.FlagIndexPath,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
}

// indexOpts holds flag targets; values are read back through viper.
type indexOpts struct {
	catalog           string
	indexProvider     string
	indexPath         string
	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	embeddingDims     uint
}

func (o *indexOpts) register(cmd *cobra.Command) {
	config.AddStringFlag(cmd, config.Flags, config.FlagCatalog, &o.catalog)
	config.AddStringFlag(cmd, config.Flags, config.FlagIndexProvider, &o.indexProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagIndexPath, &o.indexPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &o.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &o.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &o.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &o.embeddingDims)
}

func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
	}

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
