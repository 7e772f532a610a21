package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	apiclient "github.com/bledden/tinker-voice/internal/api/client"
	"github.com/bledden/tinker-voice/internal/dataset"
)

// validateSampleBytes caps how much of a file is sent to the validation agent.
const validateSampleBytes = 16 << 10

func datasetCmd() *cobra.Command {
	var format string

	datasetRoot := &cobra.Command{
		Use:   "dataset",
		Short: "Inspect and upload dataset files",
		Long: "Parse JSONL, JSON, CSV, or XLSX dataset files through the API, preview\n" +
			"and summarize them, ask the validation agent for a review, and upload\n" +
			"them to the training service.",
	}

	datasetRoot.PersistentFlags().StringVar(&format, "format", "", "file format (jsonl, json, csv, xlsx); detected from the extension when empty")

	load := func(ctx context.Context, c *apiclient.Client, path string) (dataset.Dataset, error) {
		data, err := readInput(path)
		if err != nil {
			return dataset.Dataset{}, err
		}
		return c.ParseDataset(ctx, path, data, format)
	}

	datasetRoot.AddCommand(
		datasetParseCmd(load),
		datasetPreviewCmd(load),
		datasetStatsCmd(load),
		datasetValidateCmd(),
		datasetUploadCmd(load),
	)

	return datasetRoot
}

type loadFunc func(ctx context.Context, c *apiclient.Client, path string) (dataset.Dataset, error)

func datasetParseCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a dataset file into training examples",
		Args:  cobra.ExactArgs(1),
		Example: `  tinker-voice dataset parse train.csv
  tinker-voice dataset parse export.txt --format jsonl --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := load(cmd.Context(), newClient(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(ds)
			}
			fmt.Printf("%s: %d examples (%s, %d bytes)\n",
				ds.File.Filename, ds.File.RowCount, ds.File.Format, ds.File.SizeBytes)
			return nil
		},
	}
}

func datasetPreviewCmd(load loadFunc) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the first examples of a dataset file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			ds, err := load(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			p, err := c.PreviewDataset(cmd.Context(), ds.Examples, limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(p)
			}
			if err := printExamplesTable(os.Stdout, p.Samples); err != nil {
				return err
			}
			fmt.Printf("\n%d of %d examples\n", len(p.Samples), p.TotalCount)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", dataset.DefaultPreviewLimit, "number of examples")

	return cmd
}

func datasetStatsCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <file>",
		Short: "Summarize token lengths in a dataset file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			ds, err := load(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			st, err := c.DatasetStats(cmd.Context(), ds.Examples)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(st)
			}
			return printStats(os.Stdout, &st)
		},
	}
}

func datasetValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Ask the validation agent to review a dataset sample",
		Long: "Send the head of a dataset file to the validation agent, which reports\n" +
			"format, quality, and coverage issues.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			if len(data) > validateSampleBytes {
				data = data[:validateSampleBytes]
			}
			res, err := newClient().ValidateData(cmd.Context(), string(data))
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(res)
			}
			tw := newTabWriter(os.Stdout)
			tw.writef("Valid:\t%v\n", res.Valid)
			for _, is := range res.Issues {
				tw.writef("%s\t%s\t%s\n", is.Severity, is.Location, is.Message)
			}
			for _, r := range res.Recommendations {
				tw.writef("-\t\t%s\n", r)
			}
			return tw.finish()
		},
	}
}

func datasetUploadCmd(load loadFunc) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a dataset file to the training service",
		Long: "Parse a dataset file, then upload its examples as JSONL. The printed path\n" +
			"is what training create --dataset expects.",
		Args:    cobra.ExactArgs(1),
		Example: `  tinker-voice dataset upload tickets.csv --name tickets.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			ds, err := load(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = jsonlName(args[0])
			}
			up, err := c.UploadDataset(cmd.Context(), name, ds.Examples)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(up)
			}
			fmt.Printf("Uploaded %d rows as %s (path %s).\n", up.RowCount, up.DatasetID, up.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "uploaded file name (default: input name with .jsonl)")

	return cmd
}

// jsonlName swaps the extension of path for .jsonl.
func jsonlName(path string) string {
	base := filepath.Base(path)
	if base == "-" || base == "." {
		return "dataset.jsonl"
	}
	return base[:len(base)-len(filepath.Ext(base))] + ".jsonl"
}

func generateCmd() *cobra.Command {
	var (
		req  apiclient.GenerateRequest
		save string
	)

	cmd := &cobra.Command{
		Use:   "generate <task>",
		Short: "Generate synthetic training examples",
		Args:  cobra.ExactArgs(1),
		Example: `  tinker-voice generate "answer billing questions politely" -n 200 --save billing.jsonl
  tinker-voice generate "extract invoice totals" --domain finance --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Task = args[0]
			gen, err := newClient().GenerateData(cmd.Context(), req)
			if err != nil {
				return err
			}
			if save != "" {
				data, err := dataset.EncodeJSONL(gen.Examples)
				if err != nil {
					return err
				}
				if err := os.WriteFile(save, data, 0o600); err != nil {
					return fmt.Errorf("writing %s: %w", save, err)
				}
			}
			if jsonOutput() {
				return outputJSON(gen)
			}
			if err := printExamplesTable(os.Stdout, gen.Examples); err != nil {
				return err
			}
			fmt.Printf("\nGenerated %d examples in %dms", len(gen.Examples), gen.GenerationMetadata.DurationMs)
			if save != "" {
				fmt.Printf(", saved to %s", save)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Domain, "domain", "", "subject area of the examples")
	cmd.Flags().IntVarP(&req.NumExamples, "num", "n", 0, "number of examples (server default 50)")
	cmd.Flags().StringVar(&req.ResearchContext, "context", "", "research findings to guide tone and content")
	cmd.Flags().StringVar(&save, "save", "", "also write the examples to this JSONL file")

	return cmd
}
