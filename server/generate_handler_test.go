package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"VerseForge/config"
	"VerseForge/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	updates []model.StatusUpdate
	result  *model.GenerationResult
	err     error

	gotReq model.GenerationRequest
}

func (s *stubRunner) Run(ctx context.Context, req model.GenerationRequest, emit func(model.StatusUpdate)) (*model.GenerationResult, error) {
	s.gotReq = req
	for _, u := range s.updates {
		emit(u)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestHandler(runner GenerationRunner) *APIHandler {
	return NewAPIHandler(runner, nil, nil, NewMetrics(), &config.Config{SongsDir: "songs"})
}

// parseFrames splits an SSE body into its decoded JSON frames.
func parseFrames(t *testing.T, body string) []map[string]any {
	t.Helper()

	var frames []map[string]any
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		require.True(t, strings.HasPrefix(chunk, "data: "), "frame missing data prefix: %q", chunk)

		var frame map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &frame))
		frames = append(frames, frame)
	}
	return frames
}

func TestGenerateHandler_Success(t *testing.T) {
	runner := &stubRunner{
		updates: []model.StatusUpdate{
			{Status: model.StatusGeneratingLyrics, Progress: 10, Message: "Creating lyrics with AI..."},
			{Status: model.StatusLyricsComplete, Progress: 30, Message: "Lyrics generated successfully!"},
			{Status: model.StatusSuccess, Progress: 100, Message: "Song generation complete!"},
		},
		result: &model.GenerationResult{
			GenerationID: "abc-123",
			Lyrics:       "[Chorus]\nSnow is falling",
			TTSLyrics:    "jazz song about christmas\n\nLyrics:\n[Chorus]\nSnow is falling",
			AudioFiles:   []string{"song_1.mp3", "song_2.mp3"},
		},
	}
	h := newTestHandler(runner)

	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"userInput":"jazz song about christmas"}`))
	rec := httptest.NewRecorder()

	h.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	frames := parseFrames(t, rec.Body.String())
	require.Len(t, frames, 4)

	assert.Equal(t, "GENERATING_LYRICS", frames[0]["status"])
	assert.Equal(t, float64(10), frames[0]["progress"])
	assert.Equal(t, "LYRICS_COMPLETE", frames[1]["status"])
	assert.Equal(t, "SUCCESS", frames[2]["status"])

	final := frames[3]
	assert.Equal(t, true, final["complete"])
	assert.Equal(t, "abc-123", final["generationId"])
	assert.Equal(t, "[Chorus]\nSnow is falling", final["lyrics"])
	assert.Equal(t, []any{"song_1.mp3", "song_2.mp3"}, final["audioFiles"])

	// Defaults were applied before the pipeline saw the request.
	assert.Equal(t, model.DefaultTemperature, runner.gotReq.Temperature)
	assert.Equal(t, model.DefaultBPM, runner.gotReq.BPM)
	assert.Equal(t, model.DefaultBalance, runner.gotReq.Balance)
}

func TestGenerateHandler_ExplicitZeroFields(t *testing.T) {
	runner := &stubRunner{
		result: &model.GenerationResult{GenerationID: "id", Lyrics: "la", AudioFiles: []string{"song_1.mp3"}},
	}
	h := newTestHandler(runner)

	// Temperature 0 and balance 0 are valid requests (safest lyrics,
	// instrumental render); they must not be rewritten to defaults.
	req := httptest.NewRequest(http.MethodPost, "/generate",
		strings.NewReader(`{"userInput":"quiet piano","temperature":0,"balance":0}`))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), runner.gotReq.Temperature)
	assert.Equal(t, float64(0), runner.gotReq.Balance)
	assert.Equal(t, model.DefaultBPM, runner.gotReq.BPM)
}

func TestGenerateHandler_ExactlyOneTerminalFrame(t *testing.T) {
	runner := &stubRunner{
		updates: []model.StatusUpdate{
			{Status: model.StatusGeneratingLyrics, Progress: 10, Message: "Creating lyrics with AI..."},
		},
		result: &model.GenerationResult{GenerationID: "id", Lyrics: "la", AudioFiles: []string{"song_1.mp3"}},
	}
	h := newTestHandler(runner)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"userInput":"pop song"}`))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	terminal := 0
	for _, frame := range parseFrames(t, rec.Body.String()) {
		if frame["complete"] == true {
			terminal++
		}
	}
	assert.Equal(t, 1, terminal)
}

func TestGenerateHandler_Failure(t *testing.T) {
	runner := &stubRunner{
		updates: []model.StatusUpdate{
			{Status: model.StatusGeneratingLyrics, Progress: 10, Message: "Creating lyrics with AI..."},
		},
		err: errors.New("lyrics: completion request: boom"),
	}
	h := newTestHandler(runner)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"userInput":"pop song"}`))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	frames := parseFrames(t, rec.Body.String())
	require.Len(t, frames, 2)

	final := frames[1]
	assert.Equal(t, "Failed to generate song", final["error"])
	assert.Equal(t, "lyrics: completion request: boom", final["details"])
	assert.Equal(t, true, final["complete"])
	assert.NotContains(t, final, "audioFiles")
}

func TestGenerateHandler_MissingUserInput(t *testing.T) {
	h := newTestHandler(&stubRunner{})

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"temperature":0.5}`))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "userInput is required", body["error"])
}

func TestGenerateHandler_InvalidBody(t *testing.T) {
	h := newTestHandler(&stubRunner{})

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.GenerateHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid request body", body["error"])
}
