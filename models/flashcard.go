package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FlashcardSet struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	FileID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"file_id"`
	Title     string      `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	Cards     []Flashcard `gorm:"foreignKey:SetID;constraint:OnDelete:CASCADE;" json:"cards"`
}

type Flashcard struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SetID     uuid.UUID `gorm:"type:uuid;not null;index" json:"set_id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *FlashcardSet) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (f *Flashcard) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
