package cmd

import (
	"context"
	"fmt"
	"log"

	"VerseForge/config"
	"VerseForge/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the MinIO artifact bucket",
	Long:  `Check that the configured MinIO instance is reachable and list the audio artifacts stored in the bucket.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Connecting to MinIO...")

		cfg := config.Load()
		fmt.Printf("MinIO config: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		fmt.Println("MinIO connection established!")

		client := storage.GetMinioClient()
		ctx := context.Background()

		fmt.Printf("\nObjects in bucket (prefix: %q):\n", minioPrefix)
		var count int
		var totalSize int64
		for object := range client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if object.Err != nil {
				log.Fatalf("Failed to list objects: %v", object.Err)
			}
			fmt.Printf("  %s (%d bytes)\n", object.Key, object.Size)
			count++
			totalSize += object.Size
		}
		fmt.Printf("\n%d objects, %d bytes total\n", count, totalSize)
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "filter objects by key prefix")
}
