package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"VerseForge/logger"
	"VerseForge/model"
)

// GenerateHandler runs one generation and streams progress back as
// Server-Sent Events. The response is held open for the duration of
// the pipeline and closed right after the terminal frame; one stream
// serves exactly one request.
func (h *APIHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var req model.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserInput == "" {
		respondWithError(w, http.StatusBadRequest, "userInput is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	logger.Info("starting song generation",
		logger.String("userInput", req.UserInput),
		logger.Float64("temperature", req.Temperature),
		logger.Int("bpm", req.BPM),
		logger.Float64("balance", req.Balance))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")
	w.WriteHeader(http.StatusOK)

	writeFrame := func(payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Warn("failed to encode event frame", logger.ErrorField(err))
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	if h.metrics != nil {
		h.metrics.GenerationStarted()
	}

	// The request context cancels the pipeline when the client
	// abandons the stream.
	result, err := h.runner.Run(r.Context(), req, func(update model.StatusUpdate) {
		writeFrame(update)
	})

	if err != nil {
		logger.Error("song generation failed", logger.ErrorField(err))
		if h.metrics != nil {
			h.metrics.GenerationFinished(true)
		}
		writeFrame(model.ErrorFrame{
			Error:    "Failed to generate song",
			Details:  err.Error(),
			Complete: true,
		})
		return
	}

	if h.metrics != nil {
		h.metrics.GenerationFinished(false)
	}
	writeFrame(model.ResultFrame{
		Lyrics:       result.Lyrics,
		TTSLyrics:    result.TTSLyrics,
		AudioFiles:   result.AudioFiles,
		GenerationID: result.GenerationID,
		Complete:     true,
	})
}
