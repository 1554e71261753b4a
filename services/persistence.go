package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/models"
)

var ErrArtifactNotFound = errors.New("chưa có nội dung cho file này")

// ArtifactStore: mỗi file tối đa một bản ghi cho mỗi loại, unique index trên file_id là nguồn sự thật.
type ArtifactStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArtifactStore(db *gorm.DB, log *logger.Logger) *ArtifactStore {
	return &ArtifactStore{db: db, log: log.With("service", "ArtifactStore")}
}

func preloadQuestions(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }
func preloadCards(db *gorm.DB) *gorm.DB     { return db.Order("created_at ASC") }

func (s *ArtifactStore) FindQuiz(ctx context.Context, fileID uuid.UUID) (*models.Quiz, error) {
	return findByFile[models.Quiz](ctx, s.db, fileID, "Questions", preloadQuestions)
}

func (s *ArtifactStore) FindFlashcards(ctx context.Context, fileID uuid.UUID) (*models.FlashcardSet, error) {
	return findByFile[models.FlashcardSet](ctx, s.db, fileID, "Cards", preloadCards)
}

func (s *ArtifactStore) FindTranscript(ctx context.Context, fileID uuid.UUID) (*models.Transcript, error) {
	return findByFile[models.Transcript](ctx, s.db, fileID, "", nil)
}

// EnsureQuiz tạo quiz nếu chưa có, có rồi thì trả bản cũ (created=false), kể cả khi thua race unique index.
func (s *ArtifactStore) EnsureQuiz(ctx context.Context, fileID uuid.UUID, items []QuizItem) (*models.Quiz, bool, error) {
	return ensureByFile(ctx, s.db, fileID, newQuizRecord(fileID, items), s.FindQuiz)
}

func (s *ArtifactStore) EnsureFlashcards(ctx context.Context, fileID uuid.UUID, items []FlashcardItem) (*models.FlashcardSet, bool, error) {
	return ensureByFile(ctx, s.db, fileID, newFlashcardRecord(fileID, items), s.FindFlashcards)
}

func (s *ArtifactStore) EnsureTranscript(ctx context.Context, fileID uuid.UUID, content string) (*models.Transcript, bool, error) {
	return ensureByFile(ctx, s.db, fileID, newTranscriptRecord(fileID, content), s.FindTranscript)
}

// ReplaceQuiz xóa quiz cũ và tạo quiz mới trong cùng một transaction.
func (s *ArtifactStore) ReplaceQuiz(ctx context.Context, fileID uuid.UUID, items []QuizItem) (*models.Quiz, error) {
	record := newQuizRecord(fileID, items)
	err := replaceByFile(ctx, s.db, record, func(tx *gorm.DB) error {
		return deleteQuiz(tx, fileID)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *ArtifactStore) ReplaceFlashcards(ctx context.Context, fileID uuid.UUID, items []FlashcardItem) (*models.FlashcardSet, error) {
	record := newFlashcardRecord(fileID, items)
	err := replaceByFile(ctx, s.db, record, func(tx *gorm.DB) error {
		return deleteFlashcards(tx, fileID)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *ArtifactStore) ReplaceTranscript(ctx context.Context, fileID uuid.UUID, content string) (*models.Transcript, error) {
	record := newTranscriptRecord(fileID, content)
	err := replaceByFile(ctx, s.db, record, func(tx *gorm.DB) error {
		return deleteTranscript(tx, fileID)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func findByFile[T any](ctx context.Context, db *gorm.DB, fileID uuid.UUID, preload string, order func(*gorm.DB) *gorm.DB) (*T, error) {
	var out T
	q := db.WithContext(ctx)
	if preload != "" {
		q = q.Preload(preload, order)
	}
	err := q.Where("file_id = ?", fileID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func ensureByFile[T any](ctx context.Context, db *gorm.DB, fileID uuid.UUID, record *T, find func(context.Context, uuid.UUID) (*T, error)) (*T, bool, error) {
	existing, err := find(ctx, fileID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	// Create kèm association đã nằm trong transaction mặc định của gorm
	err = db.WithContext(ctx).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		existing, findErr := find(ctx, fileID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing != nil {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// replaceByFile thử lại một lần nếu request regenerate khác vừa commit bản ghi cùng file.
func replaceByFile[T any](ctx context.Context, db *gorm.DB, record *T, deleteOld func(tx *gorm.DB) error) error {
	run := func() error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := deleteOld(tx); err != nil {
				return err
			}
			return tx.Create(record).Error
		})
	}
	err := run()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = run()
	}
	return err
}

func deleteQuiz(tx *gorm.DB, fileID uuid.UUID) error {
	ids := tx.Model(&models.Quiz{}).Select("id").Where("file_id = ?", fileID)
	if err := tx.Where("quiz_id IN (?)", ids).Delete(&models.QuizQuestion{}).Error; err != nil {
		return fmt.Errorf("xóa câu hỏi cũ: %w", err)
	}
	if err := tx.Where("file_id = ?", fileID).Delete(&models.Quiz{}).Error; err != nil {
		return fmt.Errorf("xóa quiz cũ: %w", err)
	}
	return nil
}

func deleteFlashcards(tx *gorm.DB, fileID uuid.UUID) error {
	ids := tx.Model(&models.FlashcardSet{}).Select("id").Where("file_id = ?", fileID)
	if err := tx.Where("set_id IN (?)", ids).Delete(&models.Flashcard{}).Error; err != nil {
		return fmt.Errorf("xóa flashcard cũ: %w", err)
	}
	if err := tx.Where("file_id = ?", fileID).Delete(&models.FlashcardSet{}).Error; err != nil {
		return fmt.Errorf("xóa bộ flashcard cũ: %w", err)
	}
	return nil
}

func deleteTranscript(tx *gorm.DB, fileID uuid.UUID) error {
	if err := tx.Where("file_id = ?", fileID).Delete(&models.Transcript{}).Error; err != nil {
		return fmt.Errorf("xóa transcript cũ: %w", err)
	}
	return nil
}

func newQuizRecord(fileID uuid.UUID, items []QuizItem) *models.Quiz {
	quiz := &models.Quiz{ID: uuid.New(), FileID: fileID, Title: "Generated Quiz"}
	for i, it := range items {
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{
			ID:       uuid.New(),
			QuizID:   quiz.ID,
			Question: it.Question,
			Options:  it.Options,
			Answer:   it.Answer,
			Position: i,
		})
	}
	return quiz
}

func newFlashcardRecord(fileID uuid.UUID, items []FlashcardItem) *models.FlashcardSet {
	set := &models.FlashcardSet{ID: uuid.New(), FileID: fileID, Title: "Generated Flashcards"}
	for _, it := range items {
		set.Cards = append(set.Cards, models.Flashcard{
			ID:       uuid.New(),
			SetID:    set.ID,
			Question: it.Question,
			Answer:   it.Answer,
		})
	}
	return set
}

func newTranscriptRecord(fileID uuid.UUID, content string) *models.Transcript {
	return &models.Transcript{ID: uuid.New(), FileID: fileID, Title: "Generated Transcript", Content: content}
}
