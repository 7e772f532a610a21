package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bledden/tinker-voice/internal/yutori"
)

func researchCmd() *cobra.Command {
	var (
		req   yutori.ResearchRequest
		async bool
	)

	cmd := &cobra.Command{
		Use:   "research <query>",
		Short: "Research a topic on the web",
		Long: "Run a web research job and wait for its result. With --async the job\n" +
			"is started and its ID printed; check on it with research status.",
		Args: cobra.ExactArgs(1),
		Example: `  tinker-voice research "best LoRA rank for instruction tuning" --depth 3
  tinker-voice research "tokenizer pitfalls" --async`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Query = args[0]
			c := newClient()
			if async {
				job, err := c.StartResearch(cmd.Context(), req)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(job)
				}
				fmt.Printf("Research %s started (%s).\n", job.ID, job.Status)
				return nil
			}
			res, err := c.Research(cmd.Context(), req)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(res)
			}
			return printResearch(os.Stdout, &res)
		},
	}

	cmd.Flags().IntVar(&req.Depth, "depth", 0, "research depth (0-5)")
	cmd.Flags().StringVar(&req.Domain, "domain", "", "subject area to focus on")
	cmd.Flags().IntVar(&req.MaxSources, "max-sources", 0, "maximum sources to consult")
	cmd.Flags().BoolVar(&async, "async", false, "start the job without waiting")

	cmd.AddCommand(
		researchStatusCmd(),
		researchMLCmd(),
	)

	return cmd
}

func researchStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show a research job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := newClient().GetResearch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(job)
			}
			if job.Result == nil {
				msg := fmt.Sprintf("Research %s is %s", job.ID, job.Status)
				if job.Reason != "" {
					msg += ": " + job.Reason
				}
				fmt.Println(msg + ".")
				return nil
			}
			return printResearch(os.Stdout, job.Result)
		},
	}
}

func researchMLCmd() *cobra.Command {
	var modelType, trainingType string

	cmd := &cobra.Command{
		Use:     "ml <task>",
		Short:   "Research fine-tuning guidance for a task",
		Args:    cobra.ExactArgs(1),
		Example: `  tinker-voice research ml "summarize legal contracts" --model-type mistral`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newClient().ResearchMLTask(cmd.Context(), args[0], modelType, trainingType)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(res)
			}
			return printMLResearch(os.Stdout, &res)
		},
	}

	cmd.Flags().StringVar(&modelType, "model-type", "", "model family (server default llama)")
	cmd.Flags().StringVar(&trainingType, "training-type", "", "training method (server default sft)")

	return cmd
}
