// Package cmd implements the tinker-voice CLI commands.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/bledden/tinker-voice/internal/api/client"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "tinker-voice",
		Short: "Voice-driven fine-tuning service and client",
		Long: "tinker-voice runs an API that turns spoken requests into fine-tuning work:\n" +
			"speech in and out, web research, synthetic data, dataset checks, and\n" +
			"training runs. Every command other than serve talks to that API.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "service config file (YAML)")
	flags.String("server", "http://127.0.0.1:8787", "API server URL")
	flags.String("output", "table", "output format (table, json)")

	for _, name := range []string{"server", "output"} {
		cobra.CheckErr(viper.BindPFlag(name, flags.Lookup(name)))
	}

	rootCmd.AddCommand(
		serveCmd(),
		keysCmd(),
		transcribeCmd(),
		speakCmd(),
		voicesCmd(),
		chatCmd(),
		intentCmd(),
		researchCmd(),
		trainingCmd(),
		datasetCmd(),
		generateCmd(),
		openapiCmd(),
		versionCmd(),
	)
}

func initConfig() {
	viper.SetEnvPrefix("TINKER_VOICE")
	viper.AutomaticEnv()
	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
