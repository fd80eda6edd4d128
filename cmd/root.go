package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the textcal application
var rootCmd = &cobra.Command{
	Use:   "textcal",
	Short: "Turns free-text requests into Google Calendar changes",
	Long: `textcal translates requests like "move tomorrow's standup to 10am" into
calendar operations with a language model, then applies them to Google
Calendar and keeps a local mirror of what it changed.

It can run as:
  - A CLI tool (apply, preview, mirror)
  - An HTTP API server (serve)
  - An MCP (Model Context Protocol) server for AI assistants (serve --transport stdio)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// configPath is the --config flag shared by all commands.
var configPath string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "textcal version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: $XDG_CONFIG_HOME/textcal/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")

	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMirrorCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}
