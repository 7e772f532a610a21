// Package main generates CLI reference documentation from the tinker-voice
// command tree, as markdown pages or man pages.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/bledden/tinker-voice/cmd/tinker-voice/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory")
	format := flag.String("format", "markdown", "output format: markdown or man")
	flag.Parse()

	if err := os.MkdirAll(*output, 0o750); err != nil {
		log.Fatalf("creating output directory: %v", err)
	}

	root := cmd.Root()
	root.DisableAutoGenTag = true

	if err := generate(root, *format, *output); err != nil {
		log.Fatalf("generating docs: %v", err)
	}

	fmt.Printf("CLI %s docs generated in %s/\n", *format, *output)
}

func generate(root *cobra.Command, format, dir string) error {
	switch format {
	case "markdown":
		return doc.GenMarkdownTreeCustom(root, dir, frontMatter, func(name string) string {
			return strings.TrimSuffix(name, filepath.Ext(name))
		})
	case "man":
		return doc.GenManTree(root, &doc.GenManHeader{
			Title:   "TINKER-VOICE",
			Section: "1",
			Source:  "tinker-voice " + cmd.Version,
		}, dir)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// frontMatter titles each markdown page after its command path.
func frontMatter(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return fmt.Sprintf("---\ntitle: %q\n---\n\n", strings.ReplaceAll(base, "_", " "))
}
