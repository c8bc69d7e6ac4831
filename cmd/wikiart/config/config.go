// Package configcmder provides the config command for managing persistent
// wikiart configuration stored in the .wikiart/ directory.
package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/pkg/cliui"
	"github.com/papercomputeco/wikiart/pkg/config"
)

const configLongDesc string = `Manage persistent wikiart configuration.

Configuration is stored as config.toml in the .wikiart/ directory and provides
default values for command flags. CLI flags and WIKIART_ environment
variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example:
  catalog.path, index.provider, embedding.model, generation.timeout,
  generation.retries, chat.top_k, api.listen, storage.provider, events.brokers

Use subcommands to get, set, or list configuration values:
  wikiart config set <key> <value>    Set a configuration value
  wikiart config get <key>            Get a configuration value
  wikiart config list                 List all configuration values

Examples:
  wikiart config set catalog.path ./data/wikiart.csv
  wikiart config set generation.timeout 45s
  wikiart config get chat.top_k
  wikiart config list`

const configShortDesc string = "Manage persistent wikiart configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func newConfiger(cmd *cobra.Command) (*config.Configer, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfger, nil
}

func printTarget(w io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
