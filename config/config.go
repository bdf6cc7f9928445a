package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally via a .env file) with
// simple defaults suitable for local development.
type Config struct {
	ServerPort string

	// LLM provider (OpenAI-compatible chat completion endpoint)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Sonauto text-to-audio service
	SonautoAPIKey  string
	SonautoBaseURL string

	// Generation pipeline
	SongsDir     string        // Base directory for generated audio, one subdirectory per generation
	PollInterval time.Duration // Delay between Sonauto status polls
	PollTimeout  time.Duration // Wall-clock bound on the whole poll loop

	// MySQL (song library persistence, optional)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBEnabled  bool

	// Redis (recent-generations cache, optional)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisEnabled  bool

	// MinIO (artifact mirror, optional)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioEnabled   bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration gets an environment variable as duration or returns a default value.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	// The LLM key falls back to OPENAI_API_KEY so either provider
	// variable works.
	llmKey := os.Getenv("OPENROUTER_API_KEY")
	if llmKey == "" {
		llmKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg := &Config{
		ServerPort: getEnv("PORT", "3001"),

		LLMAPIKey:  llmKey,
		LLMBaseURL: getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:   getEnv("LLM_MODEL", "meta-llama/llama-3.3-8b-instruct:free"),

		SonautoAPIKey:  os.Getenv("SONAUTO_API_KEY"),
		SonautoBaseURL: getEnv("SONAUTO_BASE_URL", "https://api.sonauto.ai"),

		SongsDir:     getEnv("SONGS_DIR", "songs"),
		PollInterval: getEnvDuration("SONAUTO_POLL_INTERVAL", 3*time.Second),
		PollTimeout:  getEnvDuration("SONAUTO_POLL_TIMEOUT", 10*time.Minute),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // No hardcoded default for passwords
		DBName:     getEnv("DB_NAME", "verseforge"),
		DBEnabled:  getEnvBool("DB_ENABLED", false),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisEnabled:  getEnvBool("REDIS_ENABLED", false),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "verseforge"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", true),
	}
	cfg.MinioEnabled = getEnvBool("MINIO_ENABLED", cfg.MinioEndpoint != "")

	return cfg
}
