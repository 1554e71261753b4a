package services

import (
	"fmt"
	"strings"

	"github.com/vnkhanh/e-podcast-content/models"
)

// synthesisCharLimit: tầng TTS chỉ nhận tối đa 4000 ký tự.
const synthesisCharLimit = 4000

type PlannedSection struct {
	Title       string
	Description string
	Content     string
	// SynthesisText là phần nội dung thực sự được đọc thành audio
	SynthesisText string
	Duration      string
	DurationSec   int
}

// PlanSection gộp toàn bộ chunk thành đúng một section.
// Thời lượng khai báo là ước tính theo phần text sẽ được tổng hợp (sau khi cắt 4000 ký tự),
// cùng công thức với tầng procedural: 150 từ/phút, trong khoảng 10 giây tới 10 phút.
func PlanSection(chunks []models.Chunk, fileName string) PlannedSection {
	content := strings.TrimSpace(JoinChunks(chunks))
	synth := TruncateForSynthesis(content)
	seconds := SynthesisSeconds(synth)

	return PlannedSection{
		Title:         fmt.Sprintf("%s - Full Podcast Version", fileName),
		Description:   firstLines(content, 3),
		Content:       content,
		SynthesisText: synth,
		Duration:      FormatDuration(seconds),
		DurationSec:   int(seconds),
	}
}

func TruncateForSynthesis(text string) string {
	return strings.TrimSpace(truncateRunes(strings.TrimSpace(text), synthesisCharLimit))
}

// FormatDuration trả dạng m:ss
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func firstLines(text string, n int) string {
	lines := strings.SplitN(text, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
