package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File là tài liệu gốc người dùng tải lên, phần trích xuất chữ nằm ở Chunks.
type File struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	URL       string    `gorm:"type:text" json:"url"`     // link file gốc (supabase / http)
	FileType  string    `gorm:"size:50" json:"file_type"` // pdf | docx | txt
	FileSize  int64     `json:"file_size"`                // bytes
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Chunks []Chunk `json:"chunks,omitempty"`
}

// Chunk do bước ingest tạo ra, chỉ đọc.
type Chunk struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FileID    uuid.UUID `gorm:"type:uuid;not null;index:idx_chunk_file_ordinal,priority:1" json:"file_id"`
	Ordinal   int       `gorm:"not null;index:idx_chunk_file_ordinal,priority:2" json:"ordinal"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (c *Chunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
