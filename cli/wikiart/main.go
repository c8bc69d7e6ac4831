package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	wikiartcmder "github.com/papercomputeco/wikiart/cmd/wikiart"
	"github.com/papercomputeco/wikiart/pkg/cliui"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	cmd := wikiartcmder.NewWikiartCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  %s %s\n", cliui.FailMark, err)
		os.Exit(1)
	}
}
