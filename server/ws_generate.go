package server

import (
	"net/http"

	"VerseForge/logger"
	"VerseForge/model"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type wsErrorMessage struct {
	Error string `json:"error"`
}

// WebSocketGenerateHandler is the websocket variant of the generation
// stream: the client sends one generation request as JSON, the server
// answers with the same frame sequence the SSE endpoint produces, then
// closes the connection.
func (h *APIHandler) WebSocketGenerateHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	var req model.GenerationRequest
	if err := conn.ReadJSON(&req); err != nil {
		logger.Warn("invalid websocket generation request", logger.ErrorField(err))
		_ = conn.WriteJSON(wsErrorMessage{Error: "Invalid request"})
		return
	}
	if req.UserInput == "" {
		_ = conn.WriteJSON(wsErrorMessage{Error: "userInput is required"})
		return
	}

	if h.metrics != nil {
		h.metrics.GenerationStarted()
	}

	result, err := h.runner.Run(r.Context(), req, func(update model.StatusUpdate) {
		if writeErr := conn.WriteJSON(update); writeErr != nil {
			logger.Warn("websocket status write failed", logger.ErrorField(writeErr))
		}
	})

	if err != nil {
		logger.Error("song generation failed", logger.ErrorField(err))
		if h.metrics != nil {
			h.metrics.GenerationFinished(true)
		}
		_ = conn.WriteJSON(model.ErrorFrame{
			Error:    "Failed to generate song",
			Details:  err.Error(),
			Complete: true,
		})
		return
	}

	if h.metrics != nil {
		h.metrics.GenerationFinished(false)
	}
	_ = conn.WriteJSON(model.ResultFrame{
		Lyrics:       result.Lyrics,
		TTSLyrics:    result.TTSLyrics,
		AudioFiles:   result.AudioFiles,
		GenerationID: result.GenerationID,
		Complete:     true,
	})
}
