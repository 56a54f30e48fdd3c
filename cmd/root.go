package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "watchparty-service",
	Short: "Watch party service: party lifecycle, WebSocket event relay",
	Long:  `HTTP + WebSocket API for synchronized watch parties.`,
	RunE:  runAPI, // default: run API (same as "watchparty-service api")
}

func init() {
	rootCmd.AddCommand(apiCmd)
}

// Execute runs the root command and returns the error (for main to log.Fatal).
func Execute() error {
	return rootCmd.Execute()
}
