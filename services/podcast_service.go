package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/models"
	"github.com/vnkhanh/e-podcast-content/utils"
)

const kindPodcast = "podcast"

type PodcastResult struct {
	Podcast *models.Podcast `json:"podcast"`
	// Degraded: không tạo được audio, audio_url chỉ là URL dự đoán (có thể 404)
	Degraded  bool   `json:"degraded"`
	AudioTier string `json:"audio_tier,omitempty"`
}

type PodcastService struct {
	db       *gorm.DB
	source   *SourceLoader
	speech   *SpeechPipeline
	store    utils.AudioStore
	locator  *utils.AudioLocator
	notifier Notifier
	timeout  time.Duration
	log      *logger.Logger
}

func NewPodcastService(db *gorm.DB, source *SourceLoader, speech *SpeechPipeline, store utils.AudioStore, locator *utils.AudioLocator, notifier Notifier, timeout time.Duration, log *logger.Logger) *PodcastService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &PodcastService{
		db:       db,
		source:   source,
		speech:   speech,
		store:    store,
		locator:  locator,
		notifier: notifier,
		timeout:  timeout,
		log:      log.With("service", "PodcastService"),
	}
}

// CreatePodcast tạo (hoặc thay thế) podcast một section cho file của userID.
func (s *PodcastService) CreatePodcast(ctx context.Context, userID, fileID uuid.UUID) (*PodcastResult, error) {
	file, err := findOwnedFile(ctx, s.db, userID, fileID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.source.PodcastChunks(ctx, file)
	if err != nil {
		return nil, err
	}
	plan := PlanSection(chunks, file.Name)
	s.notify(fileID, "started", nil)

	podcastID, sectionID := uuid.New(), uuid.New()
	filename := utils.HashedAudioFilename(podcastID.String(), sectionID.String())

	synthCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		synthCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := &PodcastResult{}
	var audioURL string
	saved := false
	// Ước tính theo số từ chỉ dùng khi không có audio thật
	duration, durationSec := plan.Duration, plan.DurationSec
	synth, err := s.speech.Synthesize(synthCtx, plan.SynthesisText)
	if err != nil {
		// Vẫn trả podcast, URL dự đoán theo locator
		s.log.Error("tổng hợp audio thất bại, trả podcast không có audio thật", "file_id", fileID, "error", err)
		result.Degraded = true
		audioURL = s.locator.GetAudioURL(ctx, podcastID.String(), sectionID.String())
	} else {
		audioURL, err = s.store.Save(ctx, filename, synth.Audio)
		if err != nil {
			s.notify(fileID, "failed", err)
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		saved = true
		result.AudioTier = synth.Tier
		duration, durationSec = FormatDuration(synth.DurationSec), int(synth.DurationSec)
	}

	podcast := &models.Podcast{
		ID:            podcastID,
		FileID:        file.ID,
		CreatedBy:     userID,
		Title:         fmt.Sprintf("%s - Audio Version", file.Name),
		Slug:          slug.Make(file.Name),
		Description:   fmt.Sprintf("Audio version of %s", file.Name),
		TotalDuration: duration,
		Sections: []models.PodcastSection{{
			ID:          sectionID,
			PodcastID:   podcastID,
			Title:       plan.Title,
			Description: plan.Description,
			Content:     plan.Content,
			Duration:    duration,
			DurationSec: durationSec,
			AudioURL:    &audioURL,
			AudioTier:   result.AudioTier,
			SortOrder:   0,
		}},
	}

	var oldAudio []string
	run := func() error {
		oldAudio = nil
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			names, err := podcastAudioNames(tx, fileID)
			if err != nil {
				return err
			}
			oldAudio = names
			if err := deletePodcasts(tx, fileID); err != nil {
				return err
			}
			return tx.Create(podcast).Error
		})
	}
	err = run()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = run()
	}
	if err != nil {
		if saved {
			if delErr := s.store.Delete(context.WithoutCancel(ctx), filename); delErr != nil {
				s.log.Warn("không dọn được file audio sau khi lưu podcast lỗi", "file", filename, "error", delErr)
			}
		}
		s.notify(fileID, "failed", err)
		return nil, fmt.Errorf("lưu podcast: %w", err)
	}

	s.removeAudio(ctx, oldAudio, filename)
	s.notify(fileID, "completed", nil)
	s.log.Info("tạo podcast thành công", "file_id", fileID, "podcast_id", podcastID, "tier", result.AudioTier, "degraded", result.Degraded)

	result.Podcast = podcast
	return result, nil
}

func (s *PodcastService) GetPodcast(ctx context.Context, fileID uuid.UUID) (*models.Podcast, error) {
	podcast, err := findByFile[models.Podcast](ctx, s.db, fileID, "Sections", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
	if err != nil {
		return nil, err
	}
	if podcast == nil {
		return nil, ErrArtifactNotFound
	}
	return podcast, nil
}

// FixAudioURLs dò lại file audio của từng section (tên hash trước, legacy sau).
// Section không còn file nào thì audio_url = null. Trả về số section đã đổi.
func (s *PodcastService) FixAudioURLs(ctx context.Context, fileID uuid.UUID) (*models.Podcast, int, error) {
	podcast, err := s.GetPodcast(ctx, fileID)
	if err != nil {
		return nil, 0, err
	}

	changed := 0
	for i := range podcast.Sections {
		sec := &podcast.Sections[i]
		var next *string
		if u, ok := s.locator.Resolve(ctx, podcast.ID.String(), sec.ID.String()); ok {
			next = &u
		}
		if sameURL(sec.AudioURL, next) {
			continue
		}
		if err := s.db.WithContext(ctx).Model(&models.PodcastSection{}).
			Where("id = ?", sec.ID).
			Update("audio_url", next).Error; err != nil {
			return nil, changed, err
		}
		sec.AudioURL = next
		changed++
	}
	s.log.Info("đã sửa audio url", "file_id", fileID, "changed", changed)
	return podcast, changed, nil
}

func (s *PodcastService) removeAudio(ctx context.Context, names []string, keep string) {
	for _, name := range names {
		if name == keep {
			continue
		}
		if err := s.store.Delete(context.WithoutCancel(ctx), name); err != nil {
			s.log.Warn("không xóa được file audio cũ", "file", name, "error", err)
		}
	}
}

func (s *PodcastService) notify(fileID uuid.UUID, stage string, err error) {
	ev := ProgressEvent{Kind: kindPodcast, Stage: stage}
	if err != nil {
		ev.Error = "Failed to create podcast."
	}
	s.notifier.NotifyProgress(fileID.String(), ev)
}

func sameURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func findOwnedFile(ctx context.Context, db *gorm.DB, userID, fileID uuid.UUID) (*models.File, error) {
	var file models.File
	err := db.WithContext(ctx).Where("id = ? AND user_id = ?", fileID, userID).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// podcastAudioNames: tên file audio đang được podcast của file tham chiếu.
func podcastAudioNames(tx *gorm.DB, fileID uuid.UUID) ([]string, error) {
	var urls []string
	ids := tx.Model(&models.Podcast{}).Select("id").Where("file_id = ?", fileID)
	if err := tx.Model(&models.PodcastSection{}).
		Where("podcast_id IN (?) AND audio_url IS NOT NULL", ids).
		Pluck("audio_url", &urls).Error; err != nil {
		return nil, err
	}
	names := make([]string, 0, len(urls))
	for _, u := range urls {
		if name := utils.AudioFilenameFromURL(u); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func deletePodcasts(tx *gorm.DB, fileID uuid.UUID) error {
	ids := tx.Model(&models.Podcast{}).Select("id").Where("file_id = ?", fileID)
	if err := tx.Where("podcast_id IN (?)", ids).Delete(&models.PodcastSection{}).Error; err != nil {
		return fmt.Errorf("xóa section cũ: %w", err)
	}
	if err := tx.Where("file_id = ?", fileID).Delete(&models.Podcast{}).Error; err != nil {
		return fmt.Errorf("xóa podcast cũ: %w", err)
	}
	return nil
}
