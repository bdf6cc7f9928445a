package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VerseForge/cache"
	"VerseForge/config"
	"VerseForge/core/lyrics"
	"VerseForge/core/pipeline"
	"VerseForge/core/sonauto"
	"VerseForge/db"
	"VerseForge/logger"
	"VerseForge/model"
	"VerseForge/repository"
	"VerseForge/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(os.Getenv("LOG_LEVEL")),
		OutputPath: os.Getenv("LOG_FILE"),
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	})

	ensureDirExists(cfg.SongsDir)

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

	// Persistence layers are optional; the pipeline works without them.
	var songRepo repository.SongRepository
	if cfg.DBEnabled {
		if err := db.ConnectGormDB(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.CloseGormDB()
		if err := db.AutoMigrateModels(&model.Song{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		songRepo = repository.NewGormSongRepository(db.GormDB)
		orchestrator.AttachStore(songRepo)
	} else {
		logger.Warn("database disabled, songs will not be persisted")
	}

	var songCache *cache.GenerationCache
	if cfg.RedisEnabled {
		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer db.CloseRedis()
		log.Println("Successfully connected to Redis")
		songCache = cache.NewGenerationCache(db.RedisClient)
		orchestrator.AttachCache(songCache)
	}

	if cfg.MinioEnabled {
		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to initialize MinIO: %v", err)
		}
		orchestrator.AttachArtifacts(storage.NewMinioArtifactStore(storage.GetMinioClient(), cfg.MinioBucket))
	}

	metrics := NewMetrics()
	apiHandler := NewAPIHandler(orchestrator, songRepo, songCache, metrics, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(MetricsMiddleware(metrics))

	router.HandleFunc("/health", apiHandler.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/generate", apiHandler.GenerateHandler).Methods(http.MethodPost)
	router.HandleFunc("/audio/{generation_id}/{filename}", apiHandler.AudioHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs", apiHandler.SongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws/generate", apiHandler.WebSocketGenerateHandler)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// No write timeout: the event stream stays open for the whole
		// generation, which can take minutes.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("VerseForge API server running on port %s", cfg.ServerPort)
		log.Println("Submit generations via POST to /generate")
		log.Println("Fetch generated audio via GET /audio/{generation_id}/{filename}")
		log.Println("List recent songs via GET /api/songs")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// corsMiddleware opens the API to browser clients on any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Cache-Control")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Creating directory: %s", path)
		if err := os.MkdirAll(path, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", path, err)
		}
	} else if err != nil {
		log.Fatalf("Failed to check directory %s: %v", path, err)
	}
}
