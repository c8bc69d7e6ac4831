package configcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key with its current value from the
config.toml file in the .wikiart/ directory, defaults included.

Examples:
  wikiart config list`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	cfger, err := newConfiger(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printTarget(out, cfger)

	keys := config.ValidConfigKeys()

	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	for _, key := range keys {
		value, err := cfger.GetConfigValue(key)
		if err != nil {
			return err
		}

		if value == "" {
			fmt.Fprintf(out, "  %-*s = <not set>\n", width, key)
		} else {
			fmt.Fprintf(out, "  %-*s = %q\n", width, key, value)
		}
	}
	fmt.Fprintln(out)

	return nil
}
