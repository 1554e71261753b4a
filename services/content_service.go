package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vnkhanh/e-podcast-content/logger"
)

// ProgressEvent gửi qua websocket để client theo dõi tiến trình.
type ProgressEvent struct {
	Kind    string `json:"kind"`
	Stage   string `json:"stage"` // started | attempt_failed | completed | failed | unsaved
	Attempt int    `json:"attempt,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Notifier interface {
	NotifyProgress(fileID string, ev ProgressEvent)
}

type nopNotifier struct{}

func (nopNotifier) NotifyProgress(string, ProgressEvent) {}

type GenerateOptions struct {
	// Regenerate: sinh mới rồi thay bản cũ trong một transaction
	Regenerate bool
}

type AllContent struct {
	Quiz       *QuizView         `json:"quiz"`
	Flashcards *FlashcardSetView `json:"flashcards"`
	Transcript *TranscriptView   `json:"transcript"`
}

type ContentService struct {
	source   *SourceLoader
	store    *ArtifactStore
	gen      *Generator
	notifier Notifier
	timeout  time.Duration
	log      *logger.Logger
}

func NewContentService(source *SourceLoader, store *ArtifactStore, gen *Generator, notifier Notifier, timeout time.Duration, log *logger.Logger) *ContentService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ContentService{
		source:   source,
		store:    store,
		gen:      gen,
		notifier: notifier,
		timeout:  timeout,
		log:      log.With("service", "ContentService"),
	}
}

func (s *ContentService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *ContentService) request(fileID uuid.UUID, kind ArtifactKind, system, user string, params CompletionParams) GenerationRequest {
	return GenerationRequest{
		Kind:         kind,
		SystemPrompt: system,
		UserPrompt:   user,
		Params:       params,
		OnAttempt: func(attempt int, err error) {
			if err != nil {
				s.notifier.NotifyProgress(fileID.String(), ProgressEvent{Kind: string(kind), Stage: "attempt_failed", Attempt: attempt})
			}
		},
	}
}

func (s *ContentService) finish(fileID uuid.UUID, kind ArtifactKind, err error, persisted bool) {
	ev := ProgressEvent{Kind: string(kind), Stage: "completed"}
	switch {
	case err != nil:
		ev.Stage = "failed"
		ev.Error = UserMessage(kind, err)
	case !persisted:
		ev.Stage = "unsaved"
	}
	s.notifier.NotifyProgress(fileID.String(), ev)
}

func (s *ContentService) GenerateQuiz(ctx context.Context, fileID uuid.UUID, opts GenerateOptions) (*QuizView, error) {
	if !opts.Regenerate {
		existing, err := s.store.FindQuiz(ctx, fileID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return quizView(existing), nil
		}
	}

	content, err := s.source.ChunkText(ctx, fileID, generationChunkLimit)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyProgress(fileID.String(), ProgressEvent{Kind: string(KindQuiz), Stage: "started"})

	genCtx, cancel := s.withDeadline(ctx)
	defer cancel()
	items, err := Generate(genCtx, s.gen, s.request(fileID, KindQuiz, quizSystemPrompt, buildQuizPrompt(content), quizParams), parseQuiz)
	if err != nil {
		s.finish(fileID, KindQuiz, err, false)
		return nil, err
	}

	var saveErr error
	var saved *QuizView
	if opts.Regenerate {
		rec, err := s.store.ReplaceQuiz(ctx, fileID, items)
		if saveErr = err; err == nil {
			saved = quizView(rec)
		}
	} else {
		rec, _, err := s.store.EnsureQuiz(ctx, fileID, items)
		if saveErr = err; err == nil {
			saved = quizView(rec)
		}
	}
	if saveErr != nil {
		s.log.Error("lưu quiz thất bại, trả kết quả chưa lưu", "file_id", fileID, "error", saveErr)
		s.finish(fileID, KindQuiz, nil, false)
		return unsavedQuizView(fileID, items), nil
	}
	s.finish(fileID, KindQuiz, nil, true)
	return saved, nil
}

func (s *ContentService) GenerateFlashcards(ctx context.Context, fileID uuid.UUID, opts GenerateOptions) (*FlashcardSetView, error) {
	if !opts.Regenerate {
		existing, err := s.store.FindFlashcards(ctx, fileID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return flashcardSetView(existing), nil
		}
	}

	content, err := s.source.ChunkText(ctx, fileID, generationChunkLimit)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyProgress(fileID.String(), ProgressEvent{Kind: string(KindFlashcards), Stage: "started"})

	genCtx, cancel := s.withDeadline(ctx)
	defer cancel()
	items, err := Generate(genCtx, s.gen, s.request(fileID, KindFlashcards, flashcardSystemPrompt, buildFlashcardPrompt(content), flashcardParams), parseFlashcards)
	if err != nil {
		s.finish(fileID, KindFlashcards, err, false)
		return nil, err
	}

	var saveErr error
	var saved *FlashcardSetView
	if opts.Regenerate {
		rec, err := s.store.ReplaceFlashcards(ctx, fileID, items)
		if saveErr = err; err == nil {
			saved = flashcardSetView(rec)
		}
	} else {
		rec, _, err := s.store.EnsureFlashcards(ctx, fileID, items)
		if saveErr = err; err == nil {
			saved = flashcardSetView(rec)
		}
	}
	if saveErr != nil {
		s.log.Error("lưu flashcard thất bại, trả kết quả chưa lưu", "file_id", fileID, "error", saveErr)
		s.finish(fileID, KindFlashcards, nil, false)
		return unsavedFlashcardSetView(fileID, items), nil
	}
	s.finish(fileID, KindFlashcards, nil, true)
	return saved, nil
}

func (s *ContentService) GenerateTranscript(ctx context.Context, fileID uuid.UUID, opts GenerateOptions) (*TranscriptView, error) {
	if !opts.Regenerate {
		existing, err := s.store.FindTranscript(ctx, fileID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return transcriptView(existing), nil
		}
	}

	content, err := s.source.ChunkText(ctx, fileID, generationChunkLimit)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyProgress(fileID.String(), ProgressEvent{Kind: string(KindTranscript), Stage: "started"})

	genCtx, cancel := s.withDeadline(ctx)
	defer cancel()
	text, err := Generate(genCtx, s.gen, s.request(fileID, KindTranscript, transcriptSystemPrompt, buildTranscriptPrompt(content), transcriptParams), parseTranscript)
	if err != nil {
		s.finish(fileID, KindTranscript, err, false)
		return nil, err
	}

	var saveErr error
	var saved *TranscriptView
	if opts.Regenerate {
		rec, err := s.store.ReplaceTranscript(ctx, fileID, text)
		if saveErr = err; err == nil {
			saved = transcriptView(rec)
		}
	} else {
		rec, _, err := s.store.EnsureTranscript(ctx, fileID, text)
		if saveErr = err; err == nil {
			saved = transcriptView(rec)
		}
	}
	if saveErr != nil {
		s.log.Error("lưu transcript thất bại, trả kết quả chưa lưu", "file_id", fileID, "error", saveErr)
		s.finish(fileID, KindTranscript, nil, false)
		return unsavedTranscriptView(fileID, text), nil
	}
	s.finish(fileID, KindTranscript, nil, true)
	return saved, nil
}

// GenerateAllContent trả ngay nếu đã có đủ 3 loại, nếu không thì sinh song song các loại còn thiếu.
// Một loại thất bại thì cả lời gọi thất bại.
func (s *ContentService) GenerateAllContent(ctx context.Context, fileID uuid.UUID) (*AllContent, error) {
	quiz, err := s.store.FindQuiz(ctx, fileID)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.FindFlashcards(ctx, fileID)
	if err != nil {
		return nil, err
	}
	transcript, err := s.store.FindTranscript(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if quiz != nil && cards != nil && transcript != nil {
		return &AllContent{Quiz: quizView(quiz), Flashcards: flashcardSetView(cards), Transcript: transcriptView(transcript)}, nil
	}

	has, err := s.source.HasChunks(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrNoContent
	}

	out := &AllContent{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.GenerateQuiz(gctx, fileID, GenerateOptions{})
		out.Quiz = v
		return err
	})
	g.Go(func() error {
		v, err := s.GenerateFlashcards(gctx, fileID, GenerateOptions{})
		out.Flashcards = v
		return err
	})
	g.Go(func() error {
		v, err := s.GenerateTranscript(gctx, fileID, GenerateOptions{})
		out.Transcript = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ContentService) GetQuiz(ctx context.Context, fileID uuid.UUID) (*QuizView, error) {
	q, err := s.store.FindQuiz(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrArtifactNotFound
	}
	return quizView(q), nil
}

func (s *ContentService) GetFlashcards(ctx context.Context, fileID uuid.UUID) (*FlashcardSetView, error) {
	set, err := s.store.FindFlashcards(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, ErrArtifactNotFound
	}
	return flashcardSetView(set), nil
}

func (s *ContentService) GetTranscript(ctx context.Context, fileID uuid.UUID) (*TranscriptView, error) {
	t, err := s.store.FindTranscript(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrArtifactNotFound
	}
	return transcriptView(t), nil
}

// UserMessage: thông báo cho người dùng, không lộ chi tiết nội bộ.
func UserMessage(kind ArtifactKind, err error) string {
	switch {
	case errors.Is(err, ErrNoContent):
		return "No content found for this file."
	case errors.Is(err, ErrGenerationExhausted):
		switch kind {
		case KindQuiz:
			return "Failed to generate quiz questions from the file content. Please try again."
		case KindFlashcards:
			return "Failed to generate flashcards from the file content. Please try again."
		case KindTranscript:
			return "Failed to generate transcript from the file content. Please try again."
		}
		return "Failed to generate content. Please try again."
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "Generation timed out. Please try again."
	default:
		return "Failed to generate content."
	}
}
