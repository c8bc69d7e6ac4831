package indexcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/cmd/wikiart/stack"
	"github.com/papercomputeco/wikiart/pkg/catalog"
	"github.com/papercomputeco/wikiart/pkg/cliui"
	"github.com/papercomputeco/wikiart/pkg/config"
	"github.com/papercomputeco/wikiart/pkg/vector"
)

const statusLongDesc string = `Show the persisted index and whether it is still fresh.

The index is stale when the catalog file changed since the build or when it
was built with a different embedding model or dimensionality. A stale index
is rebuilt automatically the next time it is needed.

With --check-generation the generation service is also probed.

Examples:
  wikiart index status
  wikiart index status --check-generation`

const statusShortDesc string = "Show the persisted index status"

const healthTimeout = 5 * time.Second

var statusFlags = append([]string{
	config.FlagGenerationTgt,
	config.FlagGenerationModel,
}, indexFlags...)

type statusOpts struct {
	indexOpts
	generationTarget string
	model            string
	checkGeneration  bool
}

func newStatusCmd() *cobra.Command {
	opts := &statusOpts{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd.Context(), cmd)
		},
	}

	opts.register(cmd)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenerationTgt, &opts.generationTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagGenerationModel, &opts.model)
	cmd.Flags().BoolVar(&opts.checkGeneration, "check-generation", false, "Also check the generation service")

	return cmd
}

func (o *statusOpts) run(ctx context.Context, cmd *cobra.Command) error {
	settings, err := stack.LoadSettings(cmd, statusFlags)
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

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	idx, err := st.Store.Load(ctx)
	switch {
	case errors.Is(err, vector.ErrNotFound):
		fmt.Fprintf(out, "  %s No index has been built. Run: wikiart index build\n", cliui.DimStyle.Render("●"))
	case err != nil:
		fmt.Fprintf(out, "  %s %s\n", cliui.FailMark, err)
	default:
		digest, derr := catalog.Digest(settings.CatalogPath)
		if derr != nil {
			fmt.Fprintf(out, "  %s %s\n", cliui.FailMark, derr)
		}
		freshness := vector.Validate(idx, vector.Expectation{
			Model:         st.Embedder.Model(),
			Dimensions:    settings.EmbeddingDimensions,
			CatalogDigest: digest,
		})
		printIndex(out, idx, freshness)
	}

	if o.checkGeneration {
		gen, err := st.NewGenerator()
		if err != nil {
			return err
		}
		hctx, cancel := context.WithTimeout(ctx, healthTimeout)
		defer cancel()
		herr := gen.Health(hctx)
		fmt.Fprintf(out, "  %s Generation %s %s\n", cliui.Mark(herr), gen.Name(), settings.GenerationModel)
		if herr != nil {
			fmt.Fprintf(out, "    %s\n", cliui.DimStyle.Render(herr.Error()))
		}
	}

	fmt.Fprintln(out)
	return nil
}

func printIndex(w io.Writer, idx *vector.Index, freshness error) {
	meta := idx.Meta()
	fmt.Fprintf(w, "  %s Index %s\n", cliui.Mark(freshness), freshLabel(freshness))
	fmt.Fprintf(w, "    %s %d\n", cliui.KeyStyle.Render("Artworks: "), idx.Len())
	fmt.Fprintf(w, "    %s %s (%d dimensions)\n", cliui.KeyStyle.Render("Model:    "), meta.Model, meta.Dimensions)
	fmt.Fprintf(w, "    %s %s\n", cliui.KeyStyle.Render("Built:    "), meta.BuiltAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "    %s %s\n", cliui.KeyStyle.Render("Catalog:  "), cliui.DimStyle.Render(shortDigest(meta.CatalogDigest)))
	if freshness != nil {
		fmt.Fprintf(w, "    %s\n", cliui.DimStyle.Render(freshness.Error()))
	}
}

func freshLabel(err error) string {
	if err == nil {
		return "is fresh"
	}
	return "is stale"
}
