package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/models"
	"github.com/vnkhanh/e-podcast-content/utils"
)

type AudioFileInfo struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	DurationSec float64   `json:"duration_sec"`
}

type FileService struct {
	db    *gorm.DB
	store utils.AudioStore
	log   *logger.Logger
}

func NewFileService(db *gorm.DB, store utils.AudioStore, log *logger.Logger) *FileService {
	return &FileService{db: db, store: store, log: log.With("service", "FileService")}
}

// DeleteFile xóa file cùng mọi artifact sinh ra từ nó trong một transaction,
// sau đó xóa file audio (lỗi chỉ ghi log).
func (s *FileService) DeleteFile(ctx context.Context, userID, fileID uuid.UUID) error {
	if _, err := findOwnedFile(ctx, s.db, userID, fileID); err != nil {
		return err
	}

	var audio []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		names, err := podcastAudioNames(tx, fileID)
		if err != nil {
			return err
		}
		audio = names

		for _, del := range []func(*gorm.DB, uuid.UUID) error{deletePodcasts, deleteQuiz, deleteFlashcards, deleteTranscript} {
			if err := del(tx, fileID); err != nil {
				return err
			}
		}
		if err := tx.Where("file_id = ?", fileID).Delete(&models.Chunk{}).Error; err != nil {
			return fmt.Errorf("xóa chunk: %w", err)
		}
		return tx.Where("id = ?", fileID).Delete(&models.File{}).Error
	})
	if err != nil {
		return err
	}

	for _, name := range audio {
		if err := s.store.Delete(context.WithoutCancel(ctx), name); err != nil {
			s.log.Warn("không xóa được file audio", "file", name, "error", err)
		}
	}
	s.log.Info("đã xóa file", "file_id", fileID, "audio_files", len(audio))
	return nil
}

// ListAudio liệt kê file audio đang lưu kèm thời lượng, file không đọc được thì duration = 0.
func (s *FileService) ListAudio(ctx context.Context) ([]AudioFileInfo, error) {
	objects, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	out := make([]AudioFileInfo, 0, len(objects))
	for _, obj := range objects {
		info := AudioFileInfo{
			Name:    obj.Name,
			URL:     utils.AudioURL(obj.Name),
			Size:    obj.Size,
			ModTime: obj.ModTime,
		}
		info.DurationSec = s.duration(ctx, obj.Name)
		out = append(out, info)
	}
	return out, nil
}

func (s *FileService) duration(ctx context.Context, name string) float64 {
	rc, _, err := s.store.Open(ctx, name)
	if err != nil {
		return 0
	}
	defer rc.Close()
	d, err := AudioDuration(name, rc)
	if err != nil {
		s.log.Debug("không tính được thời lượng audio", "file", name, "error", err)
		return 0
	}
	return d
}
