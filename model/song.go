package model

import "time"

// Song is a persisted record of a finished generation, backing the
// "my songs" listing in the UI.
type Song struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	GenerationID string    `json:"generationId" gorm:"type:varchar(36);uniqueIndex"`
	Prompt       string    `json:"prompt" gorm:"type:text"`
	Lyrics       string    `json:"lyrics" gorm:"type:text"`
	TTSLyrics    string    `json:"ttsLyrics" gorm:"type:text"`
	AudioFiles   string    `json:"audioFiles" gorm:"type:text"` // JSON-encoded list of file names
	BPM          int       `json:"bpm"`
	Temperature  float64   `json:"temperature"`
	Balance      float64   `json:"balance"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName keeps the table name stable regardless of GORM pluralization rules.
func (Song) TableName() string {
	return "songs"
}
