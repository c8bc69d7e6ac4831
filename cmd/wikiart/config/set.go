package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/pkg/cliui"
	"github.com/papercomputeco/wikiart/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file stored in
the .wikiart/ directory. Numeric keys such as chat.top_k and
embedding.dimensions must be non-negative integers.

Examples:
  wikiart config set generation.model mistral:latest
  wikiart config set embedding.dimensions 768
  wikiart config set storage.provider sqlite`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "set <key> <value>",
		Short:             setShortDesc,
		Long:              setLongDesc,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, args[0], args[1])
		},
	}

	return cmd
}

func runSet(cmd *cobra.Command, key, value string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := newConfiger(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printTarget(out, cfger)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(value),
	)
	return nil
}
