// Package main generates CLI reference documentation from the etsyctl
// command tree.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/donaldgifford/etsy-v3/cmd/etsyctl/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated docs")
	format := flag.String("format", "markdown", "output format: markdown, man, or yaml")
	flag.Parse()

	if err := generate(cmd.Root(), *format, *output); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("CLI docs (%s) generated in %s/\n", *format, *output)
}

func generate(root *cobra.Command, format, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	root.DisableAutoGenTag = true

	var err error
	switch format {
	case "markdown":
		err = doc.GenMarkdownTree(root, dir)
	case "man":
		err = doc.GenManTree(root, &doc.GenManHeader{Title: "ETSYCTL", Section: "1"}, dir)
	case "yaml":
		err = doc.GenYamlTree(root, dir)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("generating %s docs: %w", format, err)
	}
	return nil
}
