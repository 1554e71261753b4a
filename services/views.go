package services

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/e-podcast-content/models"
)

// Kết quả trả cho client. Persisted=false nghĩa là đã sinh được nhưng lưu DB thất bại,
// khi đó ID có dạng "unsaved-<kind>-<n>" chứ không phải UUID.
type QuizView struct {
	ID        string             `json:"id"`
	FileID    string             `json:"file_id"`
	Title     string             `json:"title"`
	CreatedAt time.Time          `json:"created_at"`
	Questions []QuizQuestionView `json:"questions"`
	Persisted bool               `json:"persisted"`
}

type QuizQuestionView struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Position int      `json:"position"`
}

type FlashcardSetView struct {
	ID        string          `json:"id"`
	FileID    string          `json:"file_id"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
	Cards     []FlashcardView `json:"cards"`
	Persisted bool            `json:"persisted"`
}

type FlashcardView struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type TranscriptView struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Persisted bool      `json:"persisted"`
}

var unsavedSeq atomic.Int64

func unsavedID(kind ArtifactKind) string {
	return fmt.Sprintf("unsaved-%s-%d", kind, unsavedSeq.Add(1))
}

func quizView(q *models.Quiz) *QuizView {
	v := &QuizView{
		ID:        q.ID.String(),
		FileID:    q.FileID.String(),
		Title:     q.Title,
		CreatedAt: q.CreatedAt,
		Questions: make([]QuizQuestionView, 0, len(q.Questions)),
		Persisted: true,
	}
	for _, qq := range q.Questions {
		v.Questions = append(v.Questions, QuizQuestionView{
			ID:       qq.ID.String(),
			Question: qq.Question,
			Options:  []string(qq.Options),
			Answer:   qq.Answer,
			Position: qq.Position,
		})
	}
	return v
}

func unsavedQuizView(fileID uuid.UUID, items []QuizItem) *QuizView {
	id := unsavedID(KindQuiz)
	v := &QuizView{ID: id, FileID: fileID.String(), Title: "Generated Quiz", CreatedAt: time.Now()}
	for i, it := range items {
		v.Questions = append(v.Questions, QuizQuestionView{
			ID:       fmt.Sprintf("%s-q%d", id, i),
			Question: it.Question,
			Options:  it.Options,
			Answer:   it.Answer,
			Position: i,
		})
	}
	return v
}

func flashcardSetView(s *models.FlashcardSet) *FlashcardSetView {
	v := &FlashcardSetView{
		ID:        s.ID.String(),
		FileID:    s.FileID.String(),
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		Cards:     make([]FlashcardView, 0, len(s.Cards)),
		Persisted: true,
	}
	for _, c := range s.Cards {
		v.Cards = append(v.Cards, FlashcardView{ID: c.ID.String(), Question: c.Question, Answer: c.Answer})
	}
	return v
}

func unsavedFlashcardSetView(fileID uuid.UUID, items []FlashcardItem) *FlashcardSetView {
	id := unsavedID(KindFlashcards)
	v := &FlashcardSetView{ID: id, FileID: fileID.String(), Title: "Generated Flashcards", CreatedAt: time.Now()}
	for i, it := range items {
		v.Cards = append(v.Cards, FlashcardView{ID: fmt.Sprintf("%s-c%d", id, i), Question: it.Question, Answer: it.Answer})
	}
	return v
}

func transcriptView(t *models.Transcript) *TranscriptView {
	return &TranscriptView{
		ID:        t.ID.String(),
		FileID:    t.FileID.String(),
		Title:     t.Title,
		Content:   t.Content,
		CreatedAt: t.CreatedAt,
		Persisted: true,
	}
}

func unsavedTranscriptView(fileID uuid.UUID, content string) *TranscriptView {
	return &TranscriptView{
		ID:        unsavedID(KindTranscript),
		FileID:    fileID.String(),
		Title:     "Generated Transcript",
		Content:   content,
		CreatedAt: time.Now(),
	}
}
