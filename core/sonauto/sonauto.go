package sonauto

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"VerseForge/logger"
	"VerseForge/model"
)

// ErrPollTimeout is returned when the task does not reach a terminal
// state within the configured poll timeout.
var ErrPollTimeout = errors.New("sonauto: timed out waiting for generation to complete")

// TaskError is a failure reported by the Sonauto service itself.
type TaskError struct {
	Message string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("sonauto: generation failed: %s", e.Message)
}

// StatusFunc receives one progress update per poll iteration.
type StatusFunc func(update model.StatusUpdate)

// GenerateOptions are the knobs for one audio generation.
type GenerateOptions struct {
	Prompt          string
	BPM             int
	BalanceStrength float64
	PromptStrength  float64
	NumSongs        int
	OutputDir       string
}

// Remote status tag to (progress, message) mapping.
var statusTable = map[string]model.StatusUpdate{
	model.StatusPrompt:        {Status: model.StatusPrompt, Progress: 50, Message: "Processing prompt..."},
	model.StatusTaskSent:      {Status: model.StatusTaskSent, Progress: 55, Message: "Task sent to audio engine..."},
	model.StatusGenerating:    {Status: model.StatusGenerating, Progress: 60, Message: "Generating audio..."},
	model.StatusDecompressing: {Status: model.StatusDecompressing, Progress: 80, Message: "Processing audio..."},
	model.StatusSaving:        {Status: model.StatusSaving, Progress: 90, Message: "Saving audio files..."},
	model.StatusSuccess:       {Status: model.StatusSuccess, Progress: 95, Message: "Audio generation complete!"},
	model.StatusFailure:       {Status: model.StatusFailure, Progress: 0, Message: "Audio generation failed"},
}

// mapStatus translates a remote tag into a local status update.
// Unknown tags fall back to a generic in-progress update.
func mapStatus(tag string) model.StatusUpdate {
	if update, ok := statusTable[tag]; ok {
		return update
	}
	return model.StatusUpdate{Status: tag, Progress: 50, Message: "Generating audio..."}
}

// sessionSuffix builds the uniqueness token appended to every prompt.
// The remote service caches styles per prompt text; the token defeats
// that cache between generations.
func sessionSuffix() string {
	return fmt.Sprintf("\n\n[SessionID:%d-%d]", time.Now().UnixMilli(), rand.Intn(10000))
}

// Generate submits one generation task, polls it to a terminal state
// and downloads the resulting songs into opts.OutputDir as
// song_1.mp3, song_2.mp3, ... It returns the lyrics as echoed by the
// audio service. Exactly one task is submitted per call; the poll loop
// is bounded by the client's poll timeout and by ctx.
func (c *Client) Generate(ctx context.Context, opts GenerateOptions, onStatus StatusFunc) (string, error) {
	if opts.PromptStrength == 0 {
		opts.PromptStrength = 1.56
	}
	if opts.NumSongs == 0 {
		opts.NumSongs = 2
	}
	instrumental := opts.BalanceStrength <= 0.15

	req := &generationRequest{
		Prompt:          opts.Prompt + sessionSuffix(),
		Instrumental:    instrumental,
		BalanceStrength: opts.BalanceStrength,
		BPM:             opts.BPM,
		PromptStrength:  opts.PromptStrength,
		NumSongs:        opts.NumSongs,
	}
	var resp generationResponse
	if err := c.do(ctx, http.MethodPost, "/v1/generations", req, &resp); err != nil {
		return "", err
	}
	if resp.TaskID == "" {
		return "", errors.New("sonauto: empty task id")
	}
	logger.Info("sonauto task submitted",
		logger.String("taskId", resp.TaskID),
		logger.Bool("instrumental", instrumental),
		logger.Int("bpm", opts.BPM))

	task, err := c.waitTask(ctx, resp.TaskID, onStatus)
	if err != nil {
		return "", err
	}

	if err := c.saveSongs(ctx, task, opts.OutputDir); err != nil {
		return "", err
	}
	return task.Lyrics, nil
}

// waitTask polls the task status endpoint until the task is terminal.
func (c *Client) waitTask(ctx context.Context, taskID string, onStatus StatusFunc) (*Task, error) {
	deadline := time.Now().Add(c.pollTimeout)
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("sonauto: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}
		if time.Now().After(deadline) {
			return nil, ErrPollTimeout
		}

		var task Task
		if err := c.do(ctx, http.MethodGet, "/v1/generations/"+taskID, nil, &task); err != nil {
			return nil, err
		}
		logger.Debug("sonauto task status",
			logger.String("taskId", taskID),
			logger.String("status", task.Status))

		if onStatus != nil {
			onStatus(mapStatus(task.Status))
		}

		switch task.Status {
		case model.StatusSuccess:
			return &task, nil
		case model.StatusFailure:
			return nil, &TaskError{Message: task.ErrorMessage}
		}
	}
}

// saveSongs downloads every result URL and writes song_<n>.mp3 files,
// 1-based, into dir. Existing files of the same name are overwritten.
func (c *Client) saveSongs(ctx context.Context, task *Task, dir string) error {
	if len(task.SongPaths) == 0 {
		return errors.New("sonauto: task succeeded but returned no song paths")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("sonauto: couldn't create output directory %s: %w", dir, err)
	}
	for i, url := range task.SongPaths {
		data, err := c.download(ctx, url)
		if err != nil {
			return err
		}
		name := SongFileName(i + 1)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("sonauto: couldn't write %s: %w", path, err)
		}
		logger.Info("audio saved", logger.String("file", path))
	}
	return nil
}

// SongFileName returns the fixed per-generation file name for the
// n-th song (1-based).
func SongFileName(n int) string {
	return fmt.Sprintf("song_%d.mp3", n)
}
