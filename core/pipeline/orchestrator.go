package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"VerseForge/core/sonauto"
	"VerseForge/logger"
	"VerseForge/model"
)

// Stage identifies which pipeline stage produced a failure.
type Stage string

const (
	StageLyrics Stage = "lyrics"
	StageAudio  Stage = "audio"
)

// StageError carries a pipeline failure together with the stage that
// raised it, so every failure reaches the caller in one inspectable
// form.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// LyricsGenerator produces lyrics text from a user prompt.
type LyricsGenerator interface {
	Generate(ctx context.Context, userInput string, temperature float64) (string, error)
}

// AudioGenerator turns a prompt into audio files on disk.
type AudioGenerator interface {
	Generate(ctx context.Context, opts sonauto.GenerateOptions, onStatus sonauto.StatusFunc) (string, error)
}

// SongStore persists finished generations.
type SongStore interface {
	CreateSong(song *model.Song) error
}

// SongCache keeps recently finished generations available for fast listing.
type SongCache interface {
	CacheSong(ctx context.Context, song *model.Song) error
}

// ArtifactStore mirrors generated audio files to object storage.
type ArtifactStore interface {
	UploadFile(ctx context.Context, objectName, filePath string) error
}

// Orchestrator drives the two-stage generation pipeline for one
// request: lyrics first, then audio, with status events relayed to the
// caller. Persistence collaborators are optional; when absent the
// pipeline still completes.
type Orchestrator struct {
	lyrics    LyricsGenerator
	audio     AudioGenerator
	songsDir  string
	songs     SongStore
	cache     SongCache
	artifacts ArtifactStore
}

// NewOrchestrator creates an orchestrator writing artifacts under songsDir.
func NewOrchestrator(lyricsGen LyricsGenerator, audioGen AudioGenerator, songsDir string) *Orchestrator {
	return &Orchestrator{
		lyrics:   lyricsGen,
		audio:    audioGen,
		songsDir: songsDir,
	}
}

// AttachStore enables song persistence.
func (o *Orchestrator) AttachStore(s SongStore) {
	o.songs = s
}

// AttachCache enables the recent-generations cache.
func (o *Orchestrator) AttachCache(c SongCache) {
	o.cache = c
}

// AttachArtifacts enables the object-storage mirror.
func (o *Orchestrator) AttachArtifacts(a ArtifactStore) {
	o.artifacts = a
}

// Run executes one generation. It emits status updates in a strictly
// ordered, single-forward-path sequence and returns either a result or
// a StageError; exactly one of the two. The emit callback must not be
// nil.
func (o *Orchestrator) Run(ctx context.Context, req model.GenerationRequest, emit func(model.StatusUpdate)) (*model.GenerationResult, error) {
	emit(model.StatusUpdate{Status: model.StatusGeneratingLyrics, Progress: 10, Message: "Creating lyrics with AI..."})

	lyricsText, err := o.lyrics.Generate(ctx, req.UserInput, req.Temperature)
	if err != nil {
		return nil, &StageError{Stage: StageLyrics, Err: err}
	}
	logger.Info("lyrics generated", logger.Int("length", len(lyricsText)))
	emit(model.StatusUpdate{Status: model.StatusLyricsComplete, Progress: 30, Message: "Lyrics generated successfully!"})

	// The audio prompt combines the original input with the generated
	// lyrics so the synthesized vocals follow them.
	ttsPrompt := fmt.Sprintf("%s\n\nLyrics:\n%s", req.UserInput, lyricsText)
	emit(model.StatusUpdate{Status: model.StatusPreparingAudio, Progress: 40, Message: "Preparing audio generation..."})

	generationID := uuid.NewString()
	outputDir := filepath.Join(o.songsDir, generationID)

	ttsLyrics, err := o.audio.Generate(ctx, sonauto.GenerateOptions{
		Prompt:          ttsPrompt,
		BPM:             req.BPM,
		BalanceStrength: req.Balance,
		OutputDir:       outputDir,
	}, sonauto.StatusFunc(emit))
	if err != nil {
		return nil, &StageError{Stage: StageAudio, Err: err}
	}

	audioFiles, err := listAudioFiles(outputDir)
	if err != nil {
		return nil, &StageError{Stage: StageAudio, Err: err}
	}

	emit(model.StatusUpdate{Status: model.StatusSuccess, Progress: 100, Message: "Song generation complete!"})

	result := &model.GenerationResult{
		GenerationID: generationID,
		Lyrics:       lyricsText,
		TTSLyrics:    ttsLyrics,
		AudioFiles:   audioFiles,
	}
	o.persist(ctx, req, result, outputDir)
	return result, nil
}

// listAudioFiles returns the generated file names in positional order.
// Names follow the song_<n>.mp3 pattern, so a shorter name always
// carries a smaller index; comparing length before value keeps
// song_10.mp3 after song_2.mp3.
func listAudioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: couldn't list output directory %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})
	return names, nil
}

// persist records the finished generation in the attached store, cache
// and artifact mirror. Persistence failures are logged, never fatal:
// the client already has a usable result.
func (o *Orchestrator) persist(ctx context.Context, req model.GenerationRequest, result *model.GenerationResult, outputDir string) {
	files, err := json.Marshal(result.AudioFiles)
	if err != nil {
		logger.Warn("couldn't encode audio file list", logger.ErrorField(err))
		return
	}
	song := &model.Song{
		GenerationID: result.GenerationID,
		Prompt:       req.UserInput,
		Lyrics:       result.Lyrics,
		TTSLyrics:    result.TTSLyrics,
		AudioFiles:   string(files),
		BPM:          req.BPM,
		Temperature:  req.Temperature,
		Balance:      req.Balance,
	}

	if o.songs != nil {
		if err := o.songs.CreateSong(song); err != nil {
			logger.Warn("couldn't persist song",
				logger.String("generationId", result.GenerationID),
				logger.ErrorField(err))
		}
	}
	if o.cache != nil {
		if err := o.cache.CacheSong(ctx, song); err != nil {
			logger.Warn("couldn't cache song",
				logger.String("generationId", result.GenerationID),
				logger.ErrorField(err))
		}
	}
	if o.artifacts != nil {
		for _, name := range result.AudioFiles {
			objectName := fmt.Sprintf("songs/%s/%s", result.GenerationID, name)
			if err := o.artifacts.UploadFile(ctx, objectName, filepath.Join(outputDir, name)); err != nil {
				logger.Warn("couldn't mirror artifact",
					logger.String("object", objectName),
					logger.ErrorField(err))
			}
		}
	}
}
