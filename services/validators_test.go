package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawItems(t *testing.T, items ...interface{}) []json.RawMessage {
	t.Helper()
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		b, err := json.Marshal(it)
		require.NoError(t, err)
		out = append(out, b)
	}
	return out
}

func quizJSON(n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf(`{"question":"Question %d about the event?","options":["A. one","B. two","C. three","D. four"],"answer":"%c"}`, i+1, 'A'+rune(i%4)))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestFilterQuizQuestions_DropsInvalid(t *testing.T) {
	four := []string{"a", "b", "c", "d"}
	three := []string{"a", "b", "c"}
	raw := rawItems(t,
		QuizItem{Question: "Q1", Options: four, Answer: "A"},
		QuizItem{Question: "Q2", Options: three, Answer: "B"},
		QuizItem{Question: "Q3", Options: four, Answer: " c "},
		QuizItem{Question: "Q4", Options: three, Answer: "D"},
		QuizItem{Question: "Q5", Options: four, Answer: "D"},
	)

	got := FilterQuizQuestions(raw)
	require.Len(t, got, 3)
	assert.Equal(t, "C", got[1].Answer)
}

func TestFilterQuizQuestions_RejectsBadAnswersAndEmptyQuestions(t *testing.T) {
	four := []string{"a", "b", "c", "d"}
	raw := rawItems(t,
		QuizItem{Question: "  ", Options: four, Answer: "A"},
		QuizItem{Question: "Q", Options: four, Answer: "E"},
		QuizItem{Question: "Q", Options: four, Answer: ""},
		"not an object",
	)
	assert.Empty(t, FilterQuizQuestions(raw))
}

func TestParseQuiz_AllFilteredIsValidationFailure(t *testing.T) {
	_, err := parseQuiz(`[{"question":"Q","options":["a","b","c"],"answer":"A"}]`)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = parseQuiz("no json here")
	assert.ErrorIs(t, err, ErrExtraction)

	items, err := parseQuiz(quizJSON(5))
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestFilterFlashcards_LengthThresholds(t *testing.T) {
	raw := rawItems(t,
		// câu hỏi đúng 10 ký tự: loại
		FlashcardItem{Question: "0123456789", Answer: "long enough answer"},
		// đáp án đúng 5 ký tự: loại
		FlashcardItem{Question: "01234567890", Answer: "12345"},
		FlashcardItem{Question: "01234567890", Answer: "123456"},
		FlashcardItem{Question: "  What is photosynthesis?  ", Answer: "  Light to sugar  "},
		FlashcardItem{Question: "Câu hỏi tiếng Việt?", Answer: "Trả lời"},
	)

	got := FilterFlashcards(raw)
	require.Len(t, got, 3)
	assert.Equal(t, "What is photosynthesis?", got[1].Question)
	assert.Equal(t, "Light to sugar", got[1].Answer)
}

func TestValidateTranscript(t *testing.T) {
	text, err := ValidateTranscript("  Welcome to the show.  ")
	require.NoError(t, err)
	assert.Equal(t, "Welcome to the show.", text)

	_, err = ValidateTranscript("   ")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ValidateTranscript("I'm unable to generate a transcript for this.")
	assert.ErrorIs(t, err, ErrValidation)
}
