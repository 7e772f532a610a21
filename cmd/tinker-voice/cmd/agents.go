package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bledden/tinker-voice/internal/llm"
)

func chatCmd() *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "chat <message>...",
		Short: "Send a message to an agent",
		Args:  cobra.MinimumNArgs(1),
		Example: `  tinker-voice chat "what learning rate should I use for a 7B model?"
  tinker-voice chat --agent config "I have 2,000 support tickets to train on"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := newClient().Chat(cmd.Context(), agent, []llm.Message{{
				Role:    "user",
				Content: strings.Join(args, " "),
			}})
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			fmt.Println(resp.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent to talk to (intent, validation, config, general)")

	return cmd
}

func intentCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "intent <text>...",
		Short:   "Classify a spoken request",
		Args:    cobra.MinimumNArgs(1),
		Example: `  tinker-voice intent "fine tune llama on my customer emails"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := newClient().ParseIntent(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(in)
			}
			tw := newTabWriter(os.Stdout)
			tw.writef("Intent:\t%s\n", in.Intent)
			tw.writef("Confidence:\t%.2f\n", in.Confidence)
			for k, v := range in.Entities {
				tw.writef("  %s:\t%v\n", k, v)
			}
			if in.ClarificationNeeded != "" {
				tw.writef("Clarify:\t%s\n", in.ClarificationNeeded)
			}
			return tw.finish()
		},
	}
}
