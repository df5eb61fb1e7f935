package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxpal application
var rootCmd = &cobra.Command{
	Use:   "inboxpal",
	Short: "Voice assistant backend for Gmail",
	Long: `inboxpal is the backend of a voice and text assistant for Gmail.
It signs users in with Google, reads and ranks their inbox, summarizes
messages, transcribes spoken commands and classifies them.

It can run as:
  - An HTTP API for the assistant frontend (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxpal version %s\n" .Version}}`)

	// If no subcommand is provided, run the API server by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newRankCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
