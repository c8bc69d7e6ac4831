// Package searchcmder provides the search command for similarity search over
// the artwork index.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apisearch "github.com/papercomputeco/wikiart/api/search"
	"github.com/papercomputeco/wikiart/cmd/wikiart/stack"
	"github.com/papercomputeco/wikiart/pkg/cliui"
	"github.com/papercomputeco/wikiart/pkg/config"
)

const searchLongDesc string = `Search the artwork index.

Embeds the query with the configured encoder and prints the most similar
artworks, best match first. The index is loaded from disk, or built from
the catalog when it is missing or stale.

Use --json to print the results as JSON for scripting.

Examples:
  wikiart search "swirling night sky"
  wikiart search "portraits with an enigmatic smile" --top-k 5
  wikiart search "water lilies" --json`

const searchShortDesc string = "Search the artwork index"

var searchFlags = []string{
	config.FlagCatalog,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagTopK,
}

type searchCommander struct {
	query   string
	jsonOut bool

	catalog           string
	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	topK              uint
}

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			return cmder.run(cmd.Context(), cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagCatalog, &cmder.catalog)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.topK)
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print results as JSON")

	return cmd
}

func (c *searchCommander) run(ctx context.Context, cmd *cobra.Command) error {
	settings, err := stack.LoadSettings(cmd, searchFlags)
	if err != nil {
		return err
	}

	log, err := stack.NewLogger(cmd)
	if err != nil {
		return err
	}
	st, err := stack.New(settings, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.Ensure(ctx); err != nil {
		return err
	}

	output, err := apisearch.Search(ctx, st.Retriever, c.query, settings.TopK, log)
	if err != nil {
		return err
	}

	if c.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	PrintResults(cmd.OutOrStdout(), output, cliui.TermWidth())
	return nil
}

// PrintResults writes ranked results for terminal display. Descriptions are
// cut to fit width.
func PrintResults(w io.Writer, output *apisearch.SearchOutput, width int) {
	if output.Count == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No matching artworks."))
		return
	}

	fmt.Fprintf(w, "\n  %s %s\n\n",
		cliui.KeyStyle.Render(fmt.Sprintf("%d result(s) for", output.Count)),
		output.Query,
	)

	for _, r := range output.Results {
		fmt.Fprintf(w, "  %s %s %s\n",
			rankStyle.Render(fmt.Sprintf("%d.", r.Rank)),
			r.Label,
			cliui.DimStyle.Render(fmt.Sprintf("(%.3f)", r.Score)),
		)

		details := joinNonEmpty(" · ", r.Style, r.Genre)
		if details != "" {
			fmt.Fprintf(w, "     %s\n", cliui.DimStyle.Render(details))
		}
		if r.Description != "" {
			fmt.Fprintf(w, "     %s\n", cliui.Truncate(r.Description, max(width-5, 20)))
		}
		fmt.Fprintln(w)
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
