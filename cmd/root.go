package cmd

import (
	"fmt"
	"log"
	"os"

	"VerseForge/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "verseforge",
	Short: "VerseForge is an AI song generation service.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting VerseForge server...")
		// server.Start handles its own port and startup logging.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
