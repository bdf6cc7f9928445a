package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"VerseForge/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and makes sure the artifact
// bucket exists.
func InitMinio(cfg *config.Config) error {
	log.Printf("Connecting to MinIO at %s, bucket %s", cfg.MinioEndpoint, cfg.MinioBucket)

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		log.Printf("Created bucket: %s", cfg.MinioBucket)
	}

	minioClient = client
	log.Println("MinIO client initialized successfully.")
	return nil
}

// GetMinioClient returns the MinIO client instance.
func GetMinioClient() *minio.Client {
	return minioClient
}

// MinioArtifactStore mirrors generated audio files to object storage
// so they survive local disk cleanup.
type MinioArtifactStore struct {
	client *minio.Client
	bucket string
}

// NewMinioArtifactStore creates an artifact store on the given bucket.
func NewMinioArtifactStore(client *minio.Client, bucket string) *MinioArtifactStore {
	return &MinioArtifactStore{client: client, bucket: bucket}
}

// UploadFile uploads a local file under the given object name.
func (s *MinioArtifactStore) UploadFile(ctx context.Context, objectName, filePath string) error {
	if s.client == nil {
		return fmt.Errorf("MinIO client not available")
	}
	_, err := s.client.FPutObject(ctx, s.bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: "audio/mpeg",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return nil
}
