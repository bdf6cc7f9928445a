package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"VerseForge/config"
	"VerseForge/core/pipeline"
	"VerseForge/core/sonauto"
	"VerseForge/model"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLyrics struct {
	text string
}

func (s *scriptedLyrics) Generate(ctx context.Context, userInput string, temperature float64) (string, error) {
	return s.text, nil
}

// fakeSonauto serves the submission, status and download endpoints of
// a generation that succeeds on the first poll with two songs.
func fakeSonauto() http.Handler {
	m := http.NewServeMux()
	m.HandleFunc("/v1/generations", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"task_id": "task-1"})
	})
	m.HandleFunc("/v1/generations/task-1", func(w http.ResponseWriter, r *http.Request) {
		base := "http://" + r.Host
		json.NewEncoder(w).Encode(map[string]any{
			"task_id":    "task-1",
			"status":     model.StatusSuccess,
			"lyrics":     "[Chorus]\nSnow is falling",
			"song_paths": []string{base + "/dl/a.mp3", base + "/dl/b.mp3"},
		})
	})
	m.HandleFunc("/dl/a.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("first-song"))
	})
	m.HandleFunc("/dl/b.mp3", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("second-song"))
	})
	return m
}

// Runs a jazz-christmas prompt through the real orchestrator and the
// real Sonauto client against a stubbed remote, then fetches the
// resulting audio through the HTTP surface.
func TestGenerateScenario(t *testing.T) {
	remote := httptest.NewServer(fakeSonauto())
	defer remote.Close()

	songsDir := t.TempDir()
	audioGen := sonauto.New(&sonauto.Config{
		APIKey:       "test-key",
		BaseURL:      remote.URL,
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  time.Second,
	})
	orchestrator := pipeline.NewOrchestrator(
		&scriptedLyrics{text: "[Chorus]\nSnow is falling"},
		audioGen,
		songsDir,
	)

	cfg := &config.Config{SongsDir: songsDir}
	h := NewAPIHandler(orchestrator, nil, nil, NewMetrics(), cfg)

	router := mux.NewRouter()
	router.HandleFunc("/generate", h.GenerateHandler).Methods(http.MethodPost)
	router.HandleFunc("/audio/{generation_id}/{filename}", h.AudioHandler).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"userInput":"jazz song about christmas"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	frames := parseFrames(t, rec.Body.String())
	require.NotEmpty(t, frames)

	// Lyrics frames precede audio frames, one terminal frame last.
	assert.Equal(t, "GENERATING_LYRICS", frames[0]["status"])
	terminal := frames[len(frames)-1]
	require.Equal(t, true, terminal["complete"])
	assert.Equal(t, "[Chorus]\nSnow is falling", terminal["lyrics"])
	assert.Equal(t, []any{"song_1.mp3", "song_2.mp3"}, terminal["audioFiles"])

	generationID, ok := terminal["generationId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, generationID)
	for _, frame := range frames[:len(frames)-1] {
		assert.NotEqual(t, true, frame["complete"])
	}

	// The generated files come back through the audio route.
	audioReq := httptest.NewRequest(http.MethodGet, "/audio/"+generationID+"/song_1.mp3", nil)
	audioRec := httptest.NewRecorder()
	router.ServeHTTP(audioRec, audioReq)

	assert.Equal(t, http.StatusOK, audioRec.Code)
	assert.Equal(t, "audio/mpeg", audioRec.Header().Get("Content-Type"))
	assert.NotEmpty(t, audioRec.Body.Bytes())
}
