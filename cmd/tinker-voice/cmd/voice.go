package cmd

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path) //nolint:gosec // path from CLI argument
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func transcribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Convert recorded speech to text",
		Args:  cobra.ExactArgs(1),
		Example: `  tinker-voice transcribe request.webm
  arecord -f cd -d 5 | tinker-voice transcribe -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := readInput(args[0])
			if err != nil {
				return err
			}
			tr, err := newClient().Transcribe(cmd.Context(), base64.StdEncoding.EncodeToString(audio))
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(tr)
			}
			fmt.Println(tr.Text)
			return nil
		},
	}
}

func speakCmd() *cobra.Command {
	var (
		voiceID string
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize speech and write the audio to a file",
		Args:  cobra.ExactArgs(1),
		Example: `  tinker-voice speak "Your training run finished." --out done.mp3
  tinker-voice speak "Hello" --voice 21m00Tcm4TlvDq8ikWAM --out hello.mp3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sp, err := newClient().Speak(cmd.Context(), args[0], voiceID)
			if err != nil {
				return err
			}
			audio, err := base64.StdEncoding.DecodeString(sp.AudioBase64)
			if err != nil {
				return fmt.Errorf("decoding audio: %w", err)
			}
			if err := os.WriteFile(outFile, audio, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", outFile, err)
			}
			fmt.Printf("Wrote %d bytes of %s to %s\n", len(audio), sp.ContentType, outFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&voiceID, "voice", "", "voice ID (server default when empty)")
	cmd.Flags().StringVarP(&outFile, "out", "o", "speech.mp3", "output audio file")

	return cmd
}

func voicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List synthesis voices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			voices, err := newClient().ListVoices(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(voices)
			}
			if len(voices) == 0 {
				fmt.Println("No voices found.")
				return nil
			}
			return printVoicesTable(os.Stdout, voices)
		},
	}
}
