package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Podcast struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	FileID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"file_id"`
	CreatedBy     uuid.UUID        `gorm:"type:uuid;not null" json:"created_by"`
	Title         string           `gorm:"size:255;not null" json:"title"`
	Slug          string           `gorm:"size:255" json:"slug"`
	Description   string           `gorm:"type:text" json:"description"`
	TotalDuration string           `gorm:"size:16" json:"total_duration"` // m:ss
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	Sections      []PodcastSection `gorm:"foreignKey:PodcastID;constraint:OnDelete:CASCADE;" json:"sections"`
}

// PodcastSection: AudioURL nil = chưa có audio; khác nil chỉ có nghĩa là "đã thử tạo", có thể 404.
type PodcastSection struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PodcastID   uuid.UUID `gorm:"type:uuid;not null;index" json:"podcast_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Content     string    `gorm:"type:text" json:"content"`
	Duration    string    `gorm:"size:16" json:"duration"` // thời lượng khai báo, m:ss
	DurationSec int       `json:"duration_sec"`
	AudioURL    *string   `gorm:"type:text" json:"audio_url"`
	AudioTier   string    `gorm:"size:20" json:"audio_tier"` // neural | vits | procedural | "" (lỗi)
	SortOrder   int       `gorm:"not null;default:0" json:"order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Podcast) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (s *PodcastSection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
