package cmd

import (
	"fmt"
	"log"

	"VerseForge/config"
	"VerseForge/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Test the Redis connection",
	Long:  `Check that the configured Redis instance is reachable and perform a basic read/write round trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Testing Redis connection...")

		cfg := config.Load()
		fmt.Printf("Redis config: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		fmt.Println("Redis connection established!")

		fmt.Println("Testing basic Redis operations...")
		if err := db.TestRedis(); err != nil {
			log.Fatalf("Redis operation test failed: %v", err)
		}
		fmt.Println("Basic Redis operations succeeded!")

		if err := db.CloseRedis(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
		fmt.Println("Redis test complete, connection closed.")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
