package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"VerseForge/core/sonauto"
	"VerseForge/model"
)

type fakeLyrics struct {
	text string
	err  error
}

func (f *fakeLyrics) Generate(ctx context.Context, userInput string, temperature float64) (string, error) {
	return f.text, f.err
}

type fakeAudio struct {
	ttsLyrics string
	err       error
	gotOpts   sonauto.GenerateOptions
	statuses  []string
}

func (f *fakeAudio) Generate(ctx context.Context, opts sonauto.GenerateOptions, onStatus sonauto.StatusFunc) (string, error) {
	f.gotOpts = opts
	if f.err != nil {
		return "", f.err
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", err
	}
	for i, status := range f.statuses {
		onStatus(model.StatusUpdate{Status: status, Progress: 50 + i, Message: "working"})
	}
	for n := 1; n <= 2; n++ {
		name := sonauto.SongFileName(n)
		if err := os.WriteFile(filepath.Join(opts.OutputDir, name), []byte(name), 0644); err != nil {
			return "", err
		}
	}
	return f.ttsLyrics, nil
}

type fakeStore struct {
	songs []*model.Song
}

func (f *fakeStore) CreateSong(song *model.Song) error {
	f.songs = append(f.songs, song)
	return nil
}

func TestRun_Success(t *testing.T) {
	lyricsGen := &fakeLyrics{text: "[Chorus]\nSnow is falling"}
	audioGen := &fakeAudio{
		ttsLyrics: "echoed",
		statuses:  []string{model.StatusPrompt, model.StatusGenerating, model.StatusSuccess},
	}
	store := &fakeStore{}

	o := NewOrchestrator(lyricsGen, audioGen, t.TempDir())
	o.AttachStore(store)

	var updates []model.StatusUpdate
	req := model.GenerationRequest{UserInput: "jazz song about christmas", Temperature: 0.8, BPM: 135, Balance: 1.0}
	result, err := o.Run(context.Background(), req, func(u model.StatusUpdate) {
		updates = append(updates, u)
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.GenerationID)
	require.Equal(t, "[Chorus]\nSnow is falling", result.Lyrics)
	require.Equal(t, "echoed", result.TTSLyrics)
	require.Equal(t, []string{"song_1.mp3", "song_2.mp3"}, result.AudioFiles)

	// Lyrics frames strictly before audio frames, terminal SUCCESS last.
	statuses := make([]string, len(updates))
	for i, u := range updates {
		statuses[i] = u.Status
	}
	require.Equal(t, []string{
		model.StatusGeneratingLyrics,
		model.StatusLyricsComplete,
		model.StatusPreparingAudio,
		model.StatusPrompt,
		model.StatusGenerating,
		model.StatusSuccess,
		model.StatusSuccess,
	}, statuses)
	require.Equal(t, 100, updates[len(updates)-1].Progress)

	// The audio prompt combines user input and generated lyrics.
	require.Equal(t, "jazz song about christmas\n\nLyrics:\n[Chorus]\nSnow is falling", audioGen.gotOpts.Prompt)
	require.Equal(t, 135, audioGen.gotOpts.BPM)

	// The finished song was handed to the store.
	require.Len(t, store.songs, 1)
	require.Equal(t, result.GenerationID, store.songs[0].GenerationID)
	require.Equal(t, `["song_1.mp3","song_2.mp3"]`, store.songs[0].AudioFiles)
}

func TestRun_LyricsFailure(t *testing.T) {
	lyricsGen := &fakeLyrics{err: errors.New("llm unreachable")}
	audioGen := &fakeAudio{}

	o := NewOrchestrator(lyricsGen, audioGen, t.TempDir())

	var updates []model.StatusUpdate
	_, err := o.Run(context.Background(), model.GenerationRequest{UserInput: "x"}, func(u model.StatusUpdate) {
		updates = append(updates, u)
	})

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageLyrics, stageErr.Stage)

	// No audio frame was emitted and the audio stage never ran.
	require.Len(t, updates, 1)
	require.Empty(t, audioGen.gotOpts.Prompt)
}

func TestRun_AudioFailure(t *testing.T) {
	lyricsGen := &fakeLyrics{text: "words"}
	audioGen := &fakeAudio{err: &sonauto.TaskError{Message: "engine exploded"}}

	o := NewOrchestrator(lyricsGen, audioGen, t.TempDir())

	_, err := o.Run(context.Background(), model.GenerationRequest{UserInput: "x"}, func(model.StatusUpdate) {})

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, StageAudio, stageErr.Stage)

	var taskErr *sonauto.TaskError
	require.ErrorAs(t, err, &taskErr)
	require.Equal(t, "engine exploded", taskErr.Message)
}

func TestListAudioFilesPositionalOrder(t *testing.T) {
	dir := t.TempDir()
	for n := 1; n <= 11; n++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, sonauto.SongFileName(n)), []byte("x"), 0644))
	}

	names, err := listAudioFiles(dir)
	require.NoError(t, err)

	want := make([]string, 11)
	for n := 1; n <= 11; n++ {
		want[n-1] = sonauto.SongFileName(n)
	}
	require.Equal(t, want, names)
}

func TestRun_UniqueOutputDirs(t *testing.T) {
	lyricsGen := &fakeLyrics{text: "words"}
	audioGen := &fakeAudio{statuses: []string{model.StatusSuccess}}

	o := NewOrchestrator(lyricsGen, audioGen, t.TempDir())

	r1, err := o.Run(context.Background(), model.GenerationRequest{UserInput: "x"}, func(model.StatusUpdate) {})
	require.NoError(t, err)
	dir1 := audioGen.gotOpts.OutputDir

	r2, err := o.Run(context.Background(), model.GenerationRequest{UserInput: "x"}, func(model.StatusUpdate) {})
	require.NoError(t, err)
	dir2 := audioGen.gotOpts.OutputDir

	require.NotEqual(t, r1.GenerationID, r2.GenerationID)
	require.NotEqual(t, dir1, dir2)
}
