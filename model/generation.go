package model

import "encoding/json"

// GenerationRequest is one user submission to the generation pipeline.
// It is immutable for the lifetime of the generation.
type GenerationRequest struct {
	UserInput   string  `json:"userInput"`
	Temperature float64 `json:"temperature"`
	BPM         int     `json:"bpm"`
	Balance     float64 `json:"balance"`
}

// Defaults applied to omitted request fields.
const (
	DefaultTemperature = 0.8
	DefaultBPM         = 135
	DefaultBalance     = 1.0
)

// UnmarshalJSON decodes a request, defaulting only the fields the
// payload omits. An explicit zero survives: temperature 0 asks for
// maximally safe lyrics, balance 0 derives an instrumental render.
func (r *GenerationRequest) UnmarshalJSON(data []byte) error {
	var wire struct {
		UserInput   string   `json:"userInput"`
		Temperature *float64 `json:"temperature"`
		BPM         *int     `json:"bpm"`
		Balance     *float64 `json:"balance"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	r.UserInput = wire.UserInput
	r.Temperature = DefaultTemperature
	if wire.Temperature != nil {
		r.Temperature = *wire.Temperature
	}
	r.BPM = DefaultBPM
	if wire.BPM != nil {
		r.BPM = *wire.BPM
	}
	r.Balance = DefaultBalance
	if wire.Balance != nil {
		r.Balance = *wire.Balance
	}
	return nil
}

// Pipeline status tags. The audio sub-states mirror the tags reported
// by the Sonauto task endpoint; the remaining tags frame the two
// pipeline stages around them.
const (
	StatusGeneratingLyrics = "GENERATING_LYRICS"
	StatusLyricsComplete   = "LYRICS_COMPLETE"
	StatusPreparingAudio   = "PREPARING_AUDIO"
	StatusPrompt           = "PROMPT"
	StatusTaskSent         = "TASK_SENT"
	StatusGenerating       = "GENERATING"
	StatusDecompressing    = "DECOMPRESSING"
	StatusSaving           = "SAVING"
	StatusSuccess          = "SUCCESS"
	StatusFailure          = "FAILURE"
)

// StatusUpdate is one progress event pushed to the client. Progress is
// a percentage and is non-decreasing within one generation.
type StatusUpdate struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// GenerationResult is the terminal payload of a successful generation.
// AudioFiles holds the file names inside the generation's directory.
type GenerationResult struct {
	GenerationID string   `json:"generationId"`
	Lyrics       string   `json:"lyrics"`
	TTSLyrics    string   `json:"ttsLyrics"`
	AudioFiles   []string `json:"audioFiles"`
}

// ResultFrame is the terminal success frame of the event stream.
type ResultFrame struct {
	Lyrics       string   `json:"lyrics"`
	TTSLyrics    string   `json:"ttsLyrics"`
	AudioFiles   []string `json:"audioFiles"`
	GenerationID string   `json:"generationId"`
	Complete     bool     `json:"complete"`
}

// ErrorFrame is the terminal failure frame of the event stream.
type ErrorFrame struct {
	Error    string `json:"error"`
	Details  string `json:"details"`
	Complete bool   `json:"complete"`
}
