package repository

import (
	"fmt"

	"VerseForge/model"

	"gorm.io/gorm"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	CreateSong(song *model.Song) error
	GetSongByGenerationID(generationID string) (*model.Song, error)
	GetRecentSongs(limit int) ([]*model.Song, error)
	DeleteSong(generationID string) error
}

// gormSongRepository implements SongRepository on GORM/MySQL.
type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository creates a new song repository.
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

// CreateSong records a finished generation.
func (r *gormSongRepository) CreateSong(song *model.Song) error {
	if err := r.db.Create(song).Error; err != nil {
		return fmt.Errorf("failed to create song record: %w", err)
	}
	return nil
}

// GetSongByGenerationID returns the song for a generation, or nil when
// none exists.
func (r *gormSongRepository) GetSongByGenerationID(generationID string) (*model.Song, error) {
	var song model.Song
	err := r.db.Where("generation_id = ?", generationID).First(&song).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song %s: %w", generationID, err)
	}
	return &song, nil
}

// GetRecentSongs returns the newest songs, most recent first.
func (r *gormSongRepository) GetRecentSongs(limit int) ([]*model.Song, error) {
	if limit <= 0 {
		limit = 20
	}
	var songs []*model.Song
	err := r.db.Order("created_at DESC").Limit(limit).Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent songs: %w", err)
	}
	return songs, nil
}

// DeleteSong removes the record for a generation.
func (r *gormSongRepository) DeleteSong(generationID string) error {
	err := r.db.Where("generation_id = ?", generationID).Delete(&model.Song{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete song %s: %w", generationID, err)
	}
	return nil
}
