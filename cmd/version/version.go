// Package versioncmder prints build information.
package versioncmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/wikiart/pkg/utils"
)

type versionInfo struct {
	Version   string `json:"version"`
	Sha       string `json:"sha"`
	Buildtime string `json:"built_at"`
}

func NewVersionCmd() *cobra.Command {
	var short, asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit and build time of the wikiart CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			info := versionInfo{Version: utils.Version, Sha: utils.Sha, Buildtime: utils.Buildtime}

			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			case short:
				_, err := fmt.Fprintln(out, info.Version)
				return err
			default:
				_, err := fmt.Fprintf(out, "Version: %s\nSha: %s\nBuilt at: %s\n", info.Version, info.Sha, info.Buildtime)
				return err
			}
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	cmd.MarkFlagsMutuallyExclusive("short", "json")

	return cmd
}
