package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/models"
)

var eventChunks = []string{
	"The Great Lantern Festival of Veloria began in 1821 when Mayor Ilsa Brandt lit the first lantern.",
	"Each year 4,000 lanterns are released over the Silverbend River on the second Saturday of May.",
	"In 1902 the festival was cancelled for the only time because of the Great Flood.",
}

func flashcardJSON(n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf(`{"question":"Who lit the first lantern in year %d?","answer":"Mayor Ilsa Brandt"}`, 1821+i))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

type contentFixture struct {
	db       *gorm.DB
	gateway  *scriptedGateway
	notifier *recordingNotifier
	svc      *ContentService
	store    *ArtifactStore
}

func newContentFixture(t *testing.T, gw *scriptedGateway) *contentFixture {
	t.Helper()
	db := newTestDB(t)
	log := logger.Nop()
	gen := NewGenerator(gw, 5, time.Second, log)
	gen.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }

	store := NewArtifactStore(db, log)
	notifier := &recordingNotifier{}
	svc := NewContentService(NewSourceLoader(db, nil, log), store, gen, notifier, time.Minute, log)
	return &contentFixture{db: db, gateway: gw, notifier: notifier, svc: svc, store: store}
}

func TestGenerateQuiz_HappyPath(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway(quizJSON(5)))
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	quiz, err := f.svc.GenerateQuiz(context.Background(), file.ID, GenerateOptions{})
	require.NoError(t, err)

	assert.True(t, quiz.Persisted)
	require.Len(t, quiz.Questions, 5)
	for _, q := range quiz.Questions {
		assert.Len(t, q.Options, 4)
		assert.Contains(t, []string{"A", "B", "C", "D"}, q.Answer)
	}
	assert.Equal(t, 1, f.gateway.Calls())
	assert.EqualValues(t, 1, countRows(t, f.db, &models.Quiz{}, "file_id = ?", file.ID))
	assert.EqualValues(t, 5, countRows(t, f.db, &models.QuizQuestion{}, ""))
	assert.Equal(t, []string{"started", "completed"}, f.notifier.stages("quiz"))

	stored, err := f.svc.GetQuiz(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.ID, stored.ID)
	assert.Equal(t, quiz.Questions[0].Question, stored.Questions[0].Question)
}

func TestGenerateQuiz_ReturnsExistingWithoutCalling(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway(quizJSON(5)))
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	first, err := f.svc.GenerateQuiz(context.Background(), file.ID, GenerateOptions{})
	require.NoError(t, err)
	second, err := f.svc.GenerateQuiz(context.Background(), file.ID, GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, f.gateway.Calls())
}

func TestGenerateFlashcards_FencedResponseUsesOneCall(t *testing.T) {
	resp := "Here are the flashcards you asked for:\n```json\n" + flashcardJSON(4) + "\n```\nGood luck studying!"
	f := newContentFixture(t, newScriptedGateway(resp))
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	set, err := f.svc.GenerateFlashcards(context.Background(), file.ID, GenerateOptions{})
	require.NoError(t, err)

	assert.Len(t, set.Cards, 4)
	assert.True(t, set.Persisted)
	assert.Equal(t, 1, f.gateway.Calls())
}

func TestGenerateTranscript_ExhaustedLeavesNoRow(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway("I'm sorry, I am unable to generate a transcript for this document."))
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	_, err := f.svc.GenerateTranscript(context.Background(), file.ID, GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationExhausted)
	assert.Equal(t, 5, f.gateway.Calls())
	assert.EqualValues(t, 0, countRows(t, f.db, &models.Transcript{}, "file_id = ?", file.ID))
	assert.Equal(t, "Failed to generate transcript from the file content. Please try again.", UserMessage(KindTranscript, err))

	stages := f.notifier.stages("transcript")
	assert.Equal(t, "failed", stages[len(stages)-1])
}

func TestGenerate_NoChunksIsNoContent(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway(quizJSON(5)))
	_, file := seedFile(t, f.db, "Empty")

	_, err := f.svc.GenerateQuiz(context.Background(), file.ID, GenerateOptions{})
	assert.ErrorIs(t, err, ErrNoContent)
	_, err = f.svc.GenerateAllContent(context.Background(), file.ID)
	assert.ErrorIs(t, err, ErrNoContent)
	assert.Equal(t, 0, f.gateway.Calls())
}

func TestGenerateQuiz_PersistenceFailureReturnsUnsaved(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway(quizJSON(5)))
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_quiz", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "quizzes" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	quiz, err := f.svc.GenerateQuiz(context.Background(), file.ID, GenerateOptions{})
	require.NoError(t, err)

	assert.False(t, quiz.Persisted)
	assert.True(t, strings.HasPrefix(quiz.ID, "unsaved-quiz-"), quiz.ID)
	assert.Len(t, quiz.Questions, 5)
	assert.True(t, strings.HasPrefix(quiz.Questions[0].ID, quiz.ID+"-q"))
	assert.EqualValues(t, 0, countRows(t, f.db, &models.Quiz{}, ""))
	assert.Contains(t, f.notifier.stages("quiz"), "unsaved")
}

func TestGenerateQuiz_RegenerateReplacesInOneStep(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway(quizJSON(5), quizJSON(3)))
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	first, err := f.svc.GenerateQuiz(context.Background(), file.ID, GenerateOptions{})
	require.NoError(t, err)
	second, err := f.svc.GenerateQuiz(context.Background(), file.ID, GenerateOptions{Regenerate: true})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, second.Questions, 3)
	assert.EqualValues(t, 1, countRows(t, f.db, &models.Quiz{}, "file_id = ?", file.ID))
	assert.EqualValues(t, 3, countRows(t, f.db, &models.QuizQuestion{}, ""))
}

func TestGenerateTranscript_RegenerateFailureKeepsOld(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway("Welcome to the Veloria episode.", "unable to generate"))
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	first, err := f.svc.GenerateTranscript(context.Background(), file.ID, GenerateOptions{})
	require.NoError(t, err)
	_, err = f.svc.GenerateTranscript(context.Background(), file.ID, GenerateOptions{Regenerate: true})
	require.ErrorIs(t, err, ErrGenerationExhausted)

	kept, err := f.svc.GetTranscript(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, kept.ID)
}

func TestGenerateAllContent(t *testing.T) {
	gw := newScriptedGateway()
	gw.byPrompt = map[string]string{
		"quiz creator":       quizJSON(5),
		"flashcard creator":  flashcardJSON(6),
		"transcript creator": "Welcome to today's episode about the Veloria lantern festival.",
	}
	f := newContentFixture(t, gw)
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	all, err := f.svc.GenerateAllContent(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Len(t, all.Quiz.Questions, 5)
	assert.Len(t, all.Flashcards.Cards, 6)
	assert.Contains(t, all.Transcript.Content, "Veloria")
	assert.Equal(t, 3, gw.Calls())

	again, err := f.svc.GenerateAllContent(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, all.Quiz.ID, again.Quiz.ID)
	assert.Equal(t, 3, gw.Calls())
}

func TestGenerateAllContent_OneKindFailsWholeCall(t *testing.T) {
	gw := newScriptedGateway()
	gw.byPrompt = map[string]string{
		"quiz creator":       quizJSON(5),
		"flashcard creator":  "no cards today",
		"transcript creator": "Welcome.",
	}
	f := newContentFixture(t, gw)
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	_, err := f.svc.GenerateAllContent(context.Background(), file.ID)
	assert.ErrorIs(t, err, ErrGenerationExhausted)
}

func TestGetArtifacts_NotFound(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway())
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	_, err := f.svc.GetQuiz(context.Background(), file.ID)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
	_, err = f.svc.GetFlashcards(context.Background(), file.ID)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
	_, err = f.svc.GetTranscript(context.Background(), file.ID)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestEnsureQuiz_Idempotent(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway())
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)
	ctx := context.Background()

	a := []QuizItem{{Question: "A?", Options: []string{"1", "2", "3", "4"}, Answer: "A"}}
	b := []QuizItem{{Question: "B?", Options: []string{"1", "2", "3", "4"}, Answer: "B"}}

	first, created, err := f.store.EnsureQuiz(ctx, file.ID, a)
	require.NoError(t, err)
	assert.True(t, created)
	second, created, err := f.store.EnsureQuiz(ctx, file.ID, b)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Questions, 1)
	assert.Equal(t, "A?", second.Questions[0].Question)
}

func TestEnsureTranscript_ConcurrentCallersShareOneRecord(t *testing.T) {
	f := newContentFixture(t, newScriptedGateway())
	_, file := seedFile(t, f.db, "Veloria", eventChunks...)

	const n = 4
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, _, err := f.store.EnsureTranscript(context.Background(), file.ID, fmt.Sprintf("version %d", i))
			errs[i] = err
			if rec != nil {
				ids[i] = rec.ID.String()
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.EqualValues(t, 1, countRows(t, f.db, &models.Transcript{}, "file_id = ?", file.ID))
}
