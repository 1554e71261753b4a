package services

import (
	"regexp"
	"strings"
)

var (
	// Dòng chứa "Mục lục" hoặc "Table of Contents"
	reTOC = regexp.MustCompile(`(?im)^(.*mục lục.*|.*table of contents.*)$`)
	// Dòng chứa "Trang X" hoặc "Page X"
	rePageNumber = regexp.MustCompile(`(?im)^.*\b(trang|page)\b[^\d\n]*\d+[^\n]*$`)
	// Dòng chỉ có số, ký tự đặc biệt hoặc khoảng trắng
	reSpecialLines = regexp.MustCompile(`(?m)^[^\p{L}\n]*$`)
	reMultiNewLine = regexp.MustCompile(`\n{2,}`)
	reSpaces       = regexp.MustCompile(`[ \t]{2,}`)
)

// PreCleanText xử lý thô: loại mục lục, số trang, dòng rác, khoảng trắng thừa
func PreCleanText(text string) string {
	cleaned := strings.ReplaceAll(text, "\r\n", "\n")
	cleaned = reTOC.ReplaceAllString(cleaned, "")
	cleaned = rePageNumber.ReplaceAllString(cleaned, "")
	cleaned = reSpecialLines.ReplaceAllString(cleaned, "")
	cleaned = reSpaces.ReplaceAllString(cleaned, " ")
	cleaned = reMultiNewLine.ReplaceAllString(cleaned, "\n")
	return strings.TrimSpace(cleaned)
}
