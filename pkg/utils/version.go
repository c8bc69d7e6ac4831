// Package utils holds build metadata stamped in at link time.
package utils

import "fmt"

// Set with -ldflags "-X github.com/papercomputeco/wikiart/pkg/utils.Version=..."
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)

// UserAgent identifies wikiart to the embedding and generation services.
func UserAgent() string {
	return fmt.Sprintf("wikiart/%s (%s)", Version, Sha)
}
