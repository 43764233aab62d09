package model

import (
	"encoding/json"
	"time"
)

// Track represents an audio track in the player catalog.
// FilePath is the object key of the original audio inside the storage
// bucket; the API resolves it to a presigned URL before handing the
// track to a player session.
type Track struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Artist    string    `json:"artist" gorm:"size:255"`
	Album     string    `json:"album" gorm:"size:255"`
	FilePath  string    `json:"-" gorm:"size:512"`
	Duration  float64   `json:"duration"` // seconds, authoritative until the source reports
	Peaks     string    `json:"-" gorm:"type:json"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName keeps the legacy table name.
func (Track) TableName() string {
	return "tracks"
}

// PeakSamples decodes the stored amplitude samples. An empty or corrupt
// column yields nil so widgets fall back to on-the-fly rendering.
func (t *Track) PeakSamples() []float64 {
	if t.Peaks == "" {
		return nil
	}
	var peaks []float64
	if err := json.Unmarshal([]byte(t.Peaks), &peaks); err != nil {
		return nil
	}
	return peaks
}

// SetPeakSamples encodes amplitude samples into the peaks column.
func (t *Track) SetPeakSamples(peaks []float64) error {
	if len(peaks) == 0 {
		t.Peaks = ""
		return nil
	}
	data, err := json.Marshal(peaks)
	if err != nil {
		return err
	}
	t.Peaks = string(data)
	return nil
}
