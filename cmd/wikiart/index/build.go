package indexcmder

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/cmd/wikiart/stack"
	"github.com/papercomputeco/wikiart/pkg/cliui"
	"github.com/papercomputeco/wikiart/pkg/search"
)

const buildLongDesc string = `Embed every catalog record and persist a new index.

The build always runs, replacing any persisted index. Records are embedded
in batches with --embedding-provider; the persisted index records the
embedding model and a digest of the catalog so later runs can tell when it
is stale.

Examples:
  wikiart index build
  wikiart index build --catalog ./data/wikiart.csv
  wikiart index build --embedding-provider hashing --embedding-dimensions 512`

const buildShortDesc string = "Build and persist the artwork index"

func newBuildCmd() *cobra.Command {
	opts := &indexOpts{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: buildShortDesc,
		Long:  buildLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), cmd)
		},
	}

	opts.register(cmd)

	return cmd
}

func runBuild(ctx context.Context, cmd *cobra.Command) error {
	settings, err := stack.LoadSettings(cmd, indexFlags)
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

	var snap *search.Snapshot
	err = cliui.Step(out, "Embedding "+settings.CatalogPath, func() error {
		var err error
		snap, err = st.Manager.Rebuild(ctx)
		return err
	})
	if err != nil && snap == nil {
		return err
	}
	if err != nil {
		// Built but not persisted.
		fmt.Fprintf(out, "  %s index is in memory only: %s\n\n", cliui.FailMark, err)
		return err
	}

	printSummary(out, snap, settings.IndexProvider)
	return nil
}

func printSummary(w io.Writer, snap *search.Snapshot, provider string) {
	meta := snap.Index.Meta()
	fmt.Fprintf(w, "\n  %s %d\n", cliui.KeyStyle.Render("Artworks:  "), snap.Index.Len())
	fmt.Fprintf(w, "  %s %s (%d dimensions)\n", cliui.KeyStyle.Render("Model:     "), meta.Model, meta.Dimensions)
	fmt.Fprintf(w, "  %s %s\n", cliui.KeyStyle.Render("Stored in: "), provider)
	fmt.Fprintf(w, "  %s %s\n\n", cliui.KeyStyle.Render("Catalog:   "), cliui.DimStyle.Render(shortDigest(meta.CatalogDigest)))
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
