package utils

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/models"
	"gorm.io/gorm"
)

// AudioCleanupJob xóa file audio không còn section nào tham chiếu.
type AudioCleanupJob struct {
	db       *gorm.DB
	store    AudioStore
	interval time.Duration
	grace    time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewAudioCleanupJob(db *gorm.DB, store AudioStore, interval, grace time.Duration, log *logger.Logger) *AudioCleanupJob {
	return &AudioCleanupJob{
		db:       db,
		store:    store,
		interval: interval,
		grace:    grace,
		log:      log.With("job", "AudioCleanup"),
		now:      time.Now,
	}
}

// Sweep xóa file mồ côi cũ hơn grace, trả về danh sách file đã xóa.
// File có ModTime rỗng (không biết tuổi) thì giữ lại.
// Một section giữ cả tên trong audio_url lẫn tên hashed và legacy của nó,
// vì migrate đổi tên file mà không sửa audio_url.
func (j *AudioCleanupJob) Sweep(ctx context.Context) ([]string, error) {
	referenced, err := j.referencedNames(ctx)
	if err != nil {
		return nil, err
	}

	objects, err := j.store.List(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := j.now().Add(-j.grace)
	var removed []string
	for _, obj := range objects {
		if _, ok := referenced[obj.Name]; ok {
			continue
		}
		if obj.ModTime.IsZero() || obj.ModTime.After(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, obj.Name); err != nil {
			j.log.Warn("Không xóa được file audio mồ côi", "file", obj.Name, "error", err)
			continue
		}
		removed = append(removed, obj.Name)
	}
	if len(removed) > 0 {
		j.log.Info("Đã xóa file audio mồ côi", "count", len(removed))
	}
	return removed, nil
}

func (j *AudioCleanupJob) referencedNames(ctx context.Context) (map[string]struct{}, error) {
	var rows []struct {
		ID        uuid.UUID
		PodcastID uuid.UUID
		AudioURL  *string
	}
	if err := j.db.WithContext(ctx).Model(&models.PodcastSection{}).
		Select("id, podcast_id, audio_url").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	referenced := make(map[string]struct{}, len(rows)*3)
	for _, r := range rows {
		if r.AudioURL != nil {
			if name := AudioFilenameFromURL(*r.AudioURL); name != "" {
				referenced[name] = struct{}{}
			}
		}
		pid, sid := r.PodcastID.String(), r.ID.String()
		referenced[HashedAudioFilename(pid, sid)] = struct{}{}
		referenced[LegacyAudioFilename(pid, sid)] = struct{}{}
	}
	return referenced, nil
}

// Start chạy Sweep ngay rồi lặp theo interval cho tới khi ctx bị hủy.
func (j *AudioCleanupJob) Start(ctx context.Context) {
	if j.interval <= 0 {
		j.log.Info("Cleanup job audio bị tắt")
		return
	}
	j.log.Info("Cleanup job audio đã được khởi động", "interval", j.interval.String())

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
				j.log.Error("Cleanup audio thất bại", "error", err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
