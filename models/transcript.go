package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Transcript struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FileID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"file_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (t *Transcript) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
