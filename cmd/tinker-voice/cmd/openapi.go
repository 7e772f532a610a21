package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bledden/tinker-voice/api/openapi"
)

func openapiCmd() *cobra.Command {
	var (
		format  string
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document",
		Long: "Print the OpenAPI 3.1 document for this build without starting a server.\n" +
			"A running server also serves it at /openapi.json and /openapi.yaml.",
		Example: `  tinker-voice openapi > openapi.json
  tinker-voice openapi --format yaml --out docs/openapi.yaml`,
		RunE: func(_ *cobra.Command, _ []string) (err error) {
			var w io.Writer = os.Stdout
			if outFile != "" {
				f, cerr := os.Create(outFile) //nolint:gosec // path from CLI flag
				if cerr != nil {
					return fmt.Errorf("creating %s: %w", outFile, cerr)
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}
			return openapi.Write(w, Version, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "document format (json, yaml)")
	cmd.Flags().StringVar(&outFile, "out", "", "write to a file instead of stdout")

	return cmd
}
