package services

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?i:json)?\\s*(.*?)```")
	firstArrayRe  = regexp.MustCompile(`\[[\s\S]*?\]`)

	failurePhrases = []string{
		"unable to generate",
		"cannot create",
		"cannot generate",
		"unable to create",
	}
)

// ExtractJSONArray thử lần lượt từng cách bóc mảng JSON khỏi text của model.
// Trả ok=false (không panic, không error) nếu mọi cách đều thất bại.
func ExtractJSONArray(raw string) ([]json.RawMessage, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, false
	}

	// 1. Parse thẳng
	if arr, ok := parseArray(text); ok {
		return arr, true
	}

	// 2. Code block ```json ... ```
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		if arr, ok := parseArray(m[1]); ok {
			return arr, true
		}
	}

	// 3. Mảng đầu tiên, dừng ở dấu ] gần nhất
	if m := firstArrayRe.FindString(text); m != "" {
		if arr, ok := parseArray(m); ok {
			return arr, true
		}
	}

	// 4. Bỏ dấu ``` và phần chữ trước [ đầu tiên / sau ] cuối cùng
	cleaned := strings.ReplaceAll(text, "```", "")
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start >= 0 && end > start {
		if arr, ok := parseArray(cleaned[start : end+1]); ok {
			return arr, true
		}
	}

	return nil, false
}

func parseArray(s string) ([]json.RawMessage, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &arr); err != nil {
		return nil, false
	}
	if len(arr) == 0 {
		return nil, false
	}
	return arr, true
}

// IsFailurePhrase: model tự báo không làm được.
func IsFailurePhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range failurePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
