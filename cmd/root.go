package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mailwright application
var rootCmd = &cobra.Command{
	Use:   "mailwright",
	Short: "AI writing assistant and inbox triage for Gmail",
	Long: `mailwright helps you write and triage email.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - A command-line tool for one-off tasks (split, fix, generate, triage)

Settings such as the OpenAI API key are stored in a local database and can be
changed with the settings command.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// configFile is the --config flag shared by all commands.
var configFile string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mailwright version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default: $XDG_CONFIG_HOME/mailwright/config.yaml)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSplitCmd())
	rootCmd.AddCommand(newFixCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newTriageCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
