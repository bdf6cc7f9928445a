package cmd

import (
	"VerseForge/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the VerseForge HTTP server",
	Long:  `Start the VerseForge HTTP server, serving the generation API, audio files and metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
