// Package wikiartcmder is the root wikiart command.
package wikiartcmder

import (
	"github.com/spf13/cobra"

	versioncmder "github.com/papercomputeco/wikiart/cmd/version"
	chatcmder "github.com/papercomputeco/wikiart/cmd/wikiart/chat"
	configcmder "github.com/papercomputeco/wikiart/cmd/wikiart/config"
	indexcmder "github.com/papercomputeco/wikiart/cmd/wikiart/index"
	initcmder "github.com/papercomputeco/wikiart/cmd/wikiart/init"
	searchcmder "github.com/papercomputeco/wikiart/cmd/wikiart/search"
	servecmder "github.com/papercomputeco/wikiart/cmd/wikiart/serve"
)

const wikiartLongDesc string = `wikiart answers questions about artworks from a local catalog.

It embeds the catalog into a persisted similarity index, retrieves the
artworks closest to each question and asks a language model to answer
from them.

Get started:
  wikiart init               Create a local .wikiart/ directory
  wikiart index build        Build the artwork index
  wikiart chat               Ask questions in the terminal
  wikiart serve              Run the HTTP API and MCP server`

const wikiartShortDesc string = "wikiart - Art Q&A over your catalog"

func NewWikiartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wikiart",
		Short:         wikiartShortDesc,
		Long:          wikiartLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .wikiart/ directory")
	cmd.PersistentFlags().String("log-format", "auto", "Log format: auto, text, json or pretty")

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
