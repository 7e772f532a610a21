package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	domain "github.com/bledden/tinker-voice/pkg/types"
)

func keysCmd() *cobra.Command {
	keysRoot := &cobra.Command{
		Use:   "keys",
		Short: "Manage vendor API keys",
		Long: "Show, set, and test the API key for each vendor (elevenlabs, anthropic,\n" +
			"tonic, yutori, tinker). Keys set here live in the server's memory only.",
	}

	keysRoot.AddCommand(
		keysListCmd(),
		keysSetCmd(),
		keysTestCmd(),
	)

	return keysRoot
}

func keysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show key status for every vendor",
		Example: `  tinker-voice keys list
  tinker-voice keys list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := newClient().ListKeys(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(keys)
			}
			return printKeysTable(os.Stdout, keys)
		},
	}
}

func keysSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <service> <key>",
		Short: "Replace a vendor key",
		Long:  "Replace a vendor key. Pass - as the key to read it from stdin.",
		Args:  cobra.ExactArgs(2),
		Example: `  tinker-voice keys set tinker sk-...
  pass show tinker | tinker-voice keys set tinker -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := domain.ParseService(args[0])
			if err != nil {
				return err
			}
			key := args[1]
			if key == "-" {
				data, err := readInput(key)
				if err != nil {
					return err
				}
				key = strings.TrimSpace(string(data))
			}
			st, err := newClient().SetKey(cmd.Context(), svc, key)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(st)
			}
			fmt.Printf("Key for %s updated.\n", st.Service)
			return nil
		},
	}
}

func keysTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "test <service>",
		Short:   "Check a vendor key against the vendor",
		Args:    cobra.ExactArgs(1),
		Example: `  tinker-voice keys test elevenlabs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := domain.ParseService(args[0])
			if err != nil {
				return err
			}
			st, err := newClient().TestKey(cmd.Context(), svc)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(st)
			}
			return printKeysTable(os.Stdout, []domain.KeyStatus{st})
		},
	}
}
