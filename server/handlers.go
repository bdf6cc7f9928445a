package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"VerseForge/cache"
	"VerseForge/config"
	"VerseForge/logger"
	"VerseForge/model"
	"VerseForge/repository"

	"github.com/gorilla/mux"
)

// GenerationRunner is the orchestrator seam used by the HTTP handlers.
type GenerationRunner interface {
	Run(ctx context.Context, req model.GenerationRequest, emit func(model.StatusUpdate)) (*model.GenerationResult, error)
}

// APIHandler bundles the dependencies of the HTTP handlers. songRepo
// and songCache may be nil when persistence is not configured.
type APIHandler struct {
	runner    GenerationRunner
	songRepo  repository.SongRepository
	songCache *cache.GenerationCache
	metrics   *Metrics
	cfg       *config.Config
}

// NewAPIHandler creates the handler set for the API surface.
func NewAPIHandler(runner GenerationRunner, songRepo repository.SongRepository, songCache *cache.GenerationCache, metrics *Metrics, cfg *config.Config) *APIHandler {
	return &APIHandler{
		runner:    runner,
		songRepo:  songRepo,
		songCache: songCache,
		metrics:   metrics,
		cfg:       cfg,
	}
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("failed to encode response", logger.ErrorField(err))
	}
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

// HealthHandler reports service liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "OK",
		"message": "VerseForge API is running",
	})
}

// AudioHandler serves a generated audio file from a generation's
// directory. Both path segments are validated so the handler cannot be
// walked out of the songs directory.
func (h *APIHandler) AudioHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	generationID := vars["generation_id"]
	filename := vars["filename"]

	if !validPathSegment(generationID) || !validPathSegment(filename) {
		respondWithError(w, http.StatusNotFound, "Audio file not found")
		return
	}

	path := filepath.Join(h.cfg.SongsDir, generationID, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		respondWithError(w, http.StatusNotFound, "Audio file not found")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}

// validPathSegment rejects anything that could escape the songs
// directory when joined into a path.
func validPathSegment(segment string) bool {
	if segment == "" || segment == "." || segment == ".." {
		return false
	}
	if strings.ContainsAny(segment, `/\`) {
		return false
	}
	return !strings.Contains(segment, "..")
}

// SongsHandler lists recently generated songs, serving from the cache
// when possible and falling back to the database.
func (h *APIHandler) SongsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	if h.songCache != nil {
		songs, err := h.songCache.RecentSongs(r.Context(), limit)
		if err == nil && len(songs) > 0 {
			respondWithJSON(w, http.StatusOK, map[string]any{"songs": songs})
			return
		}
		if err != nil {
			logger.Warn("song cache read failed, falling back to database", logger.ErrorField(err))
		}
	}

	if h.songRepo != nil {
		songs, err := h.songRepo.GetRecentSongs(limit)
		if err != nil {
			logger.Error("failed to list songs", logger.ErrorField(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to list songs")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]any{"songs": songs})
		return
	}

	// No persistence configured; the listing is simply empty.
	respondWithJSON(w, http.StatusOK, map[string]any{"songs": []*model.Song{}})
}
