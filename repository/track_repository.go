package repository

import (
	"errors"
	"fmt"

	"Bt1QPlay/model"

	"gorm.io/gorm"
)

// TrackRepository defines the interface for track catalog operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	ListTracks() ([]*model.Track, error)
	DeleteTrack(id int64) error
}

// gormTrackRepository implements TrackRepository on GORM/MySQL.
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a new instance of gormTrackRepository.
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// CreateTrack adds a new track to the catalog.
func (r *gormTrackRepository) CreateTrack(track *model.Track) (int64, error) {
	if err := r.db.Create(track).Error; err != nil {
		return 0, fmt.Errorf("failed to create track: %w", err)
	}
	return track.ID, nil
}

// GetTrackByID retrieves a track by its ID. Returns (nil, nil) when not found.
func (r *gormTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	var track model.Track
	err := r.db.First(&track, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query track %d: %w", id, err)
	}
	return &track, nil
}

// ListTracks retrieves the whole catalog, newest first.
func (r *gormTrackRepository) ListTracks() ([]*model.Track, error) {
	var tracks []*model.Track
	if err := r.db.Order("created_at DESC").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	return tracks, nil
}

// DeleteTrack removes a track from the catalog.
func (r *gormTrackRepository) DeleteTrack(id int64) error {
	if err := r.db.Delete(&model.Track{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete track %d: %w", id, err)
	}
	return nil
}
