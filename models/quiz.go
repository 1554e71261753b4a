package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Mỗi file chỉ có 1 quiz (unique file_id)
type Quiz struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FileID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"file_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	Questions []QuizQuestion `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE;" json:"questions"`
}

type QuizQuestion struct {
	ID       uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID   uuid.UUID                   `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Question string                      `gorm:"type:text;not null" json:"question"`
	Options  datatypes.JSONSlice[string] `json:"options"`                       // luôn đủ 4 lựa chọn
	Answer   string                      `gorm:"size:1;not null" json:"answer"` // A | B | C | D
	Position int                         `gorm:"not null" json:"position"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
