// Package initcmder provides the init command for initializing a local
// .wikiart directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/pkg/cliui"
	"github.com/papercomputeco/wikiart/pkg/config"
)

const (
	dirName = ".wikiart"

	fetchTimeout = 10 * time.Second
)

const initLongDesc string = `Initialize a new .wikiart/ directory in the current working directory.

Creates a local .wikiart/ directory, which takes precedence over ~/.wikiart/,
and writes a config.toml. The persisted index is stored here too, so each
project can keep its own catalog and index.

--preset picks a starting configuration:
  ollama     Local Ollama for embeddings and generation (default)
  offline    Feature-hashing embeddings, no embedding service needed
  openai     OpenAI embeddings and chat completions (needs OPENAI_API_KEY)
  <url>      Fetch a config.toml from an http(s) URL

An existing config.toml is left alone unless --force is given.

Examples:
  wikiart init
  wikiart init --preset offline
  wikiart init --preset https://example.com/wikiart/config.toml --force`

const initShortDesc string = "Initialize a local .wikiart/ directory"

type initCommander struct {
	preset string
	force  bool
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), configDir)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Configuration preset (%s) or a URL to a config.toml", strings.Join(config.ValidPresetNames(), ", ")))
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml")

	return cmd
}

func (c *initCommander) run(ctx context.Context, out io.Writer, configDir string) error {
	dir := configDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)
	}

	cfg, err := c.resolvePreset(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .wikiart directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, statErr := os.Stat(cfger.GetTarget())
	exists := statErr == nil
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", statErr)
	}

	if exists && !c.force {
		fmt.Fprintf(out, "  %s Already initialized: %s\n", cliui.SuccessMark, dir)
		if c.preset != "" {
			fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render("config.toml exists; pass --force to apply the preset"))
		}
		return nil
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Initialized %s\n", cliui.SuccessMark, dir)
	fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("Embedding: "), cfg.Embedding.Provider+" "+cfg.Embedding.Model)
	fmt.Fprintf(out, "    %s %s\n", cliui.KeyStyle.Render("Generation:"), cfg.Generation.Provider+" "+cfg.Generation.Model)
	return nil
}

func (c *initCommander) resolvePreset(ctx context.Context) (*config.Config, error) {
	switch {
	case c.preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(c.preset, "http://"), strings.HasPrefix(c.preset, "https://"):
		return fetchConfig(ctx, c.preset)
	default:
		return config.PresetConfig(c.preset)
	}
}

// fetchConfig downloads and validates a remote config.toml.
func fetchConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	return config.ParseConfigTOML(data)
}
