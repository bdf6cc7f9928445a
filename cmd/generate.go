package cmd

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"VerseForge/config"
	"VerseForge/core/lyrics"
	"VerseForge/core/pipeline"
	"VerseForge/core/sonauto"
	"VerseForge/model"

	"github.com/spf13/cobra"
)

var (
	generateTemperature float64
	generateBPM         int
	generateBalance     float64
)

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a song from the command line",
	Long:  `Run the full generation pipeline once without starting the HTTP server. Lyrics and audio files are written to the songs directory.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		userInput := ""
		for i, arg := range args {
			if i > 0 {
				userInput += " "
			}
			userInput += arg
		}

		req := model.GenerationRequest{
			UserInput:   userInput,
			Temperature: generateTemperature,
			BPM:         generateBPM,
			Balance:     generateBalance,
		}

		lyricsGen := lyrics.NewGenerator(&lyrics.GeneratorConfig{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Model:   cfg.LLMModel,
		})
		audioGen := sonauto.New(&sonauto.Config{
			APIKey:       cfg.SonautoAPIKey,
			BaseURL:      cfg.SonautoBaseURL,
			PollInterval: cfg.PollInterval,
			PollTimeout:  cfg.PollTimeout,
		})
		orchestrator := pipeline.NewOrchestrator(lyricsGen, audioGen, cfg.SongsDir)

		fmt.Printf("Generating song for: %s\n", userInput)

		result, err := orchestrator.Run(context.Background(), req, func(update model.StatusUpdate) {
			fmt.Printf("[%3d%%] %s\n", update.Progress, update.Message)
		})
		if err != nil {
			log.Fatalf("Generation failed: %v", err)
		}

		fmt.Println("\nLyrics:")
		fmt.Println(result.Lyrics)
		fmt.Println("\nAudio files:")
		for _, f := range result.AudioFiles {
			fmt.Println("  " + filepath.Join(cfg.SongsDir, result.GenerationID, f))
		}
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().Float64VarP(&generateTemperature, "temperature", "t", model.DefaultTemperature, "lyrics sampling temperature")
	generateCmd.Flags().IntVarP(&generateBPM, "bpm", "b", model.DefaultBPM, "song tempo in beats per minute")
	generateCmd.Flags().Float64VarP(&generateBalance, "balance", "a", model.DefaultBalance, "vocal balance strength, low values produce instrumentals")
}
