package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

type QuizItem struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

type FlashcardItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var answerLetters = map[string]bool{"A": true, "B": true, "C": true, "D": true}

// FilterQuizQuestions giữ lại câu có nội dung, đúng 4 lựa chọn và đáp án A-D.
// Phần tử nào decode lỗi thì bỏ qua.
func FilterQuizQuestions(raw []json.RawMessage) []QuizItem {
	out := make([]QuizItem, 0, len(raw))
	for _, r := range raw {
		var q QuizItem
		if err := json.Unmarshal(r, &q); err != nil {
			continue
		}
		q.Question = strings.TrimSpace(q.Question)
		q.Answer = strings.ToUpper(strings.TrimSpace(q.Answer))
		if q.Question == "" || len(q.Options) != 4 || !answerLetters[q.Answer] {
			continue
		}
		out = append(out, q)
	}
	return out
}

// FilterFlashcards: câu hỏi > 10 ký tự, đáp án > 5 ký tự (đã trim).
func FilterFlashcards(raw []json.RawMessage) []FlashcardItem {
	out := make([]FlashcardItem, 0, len(raw))
	for _, r := range raw {
		var c FlashcardItem
		if err := json.Unmarshal(r, &c); err != nil {
			continue
		}
		c.Question = strings.TrimSpace(c.Question)
		c.Answer = strings.TrimSpace(c.Answer)
		if utf8.RuneCountInString(c.Question) <= 10 || utf8.RuneCountInString(c.Answer) <= 5 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ValidateTranscript đạt hoặc không đạt cả khối, không lọc bớt.
func ValidateTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: transcript rỗng", ErrValidation)
	}
	if IsFailurePhrase(text) {
		return "", fmt.Errorf("%w: model báo không tạo được transcript", ErrValidation)
	}
	return text, nil
}

func parseQuiz(raw string) ([]QuizItem, error) {
	arr, ok := ExtractJSONArray(raw)
	if !ok {
		return nil, ErrExtraction
	}
	items := FilterQuizQuestions(arr)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: không còn câu hỏi nào sau khi lọc (%d ứng viên)", ErrValidation, len(arr))
	}
	return items, nil
}

func parseFlashcards(raw string) ([]FlashcardItem, error) {
	arr, ok := ExtractJSONArray(raw)
	if !ok {
		return nil, ErrExtraction
	}
	items := FilterFlashcards(arr)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: không còn flashcard nào sau khi lọc (%d ứng viên)", ErrValidation, len(arr))
	}
	return items, nil
}

func parseTranscript(raw string) (string, error) {
	return ValidateTranscript(raw)
}
