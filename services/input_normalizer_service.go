package services

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

type InputType string

const (
	InputTXT  InputType = "txt"
	InputDOCX InputType = "docx"
	InputPDF  InputType = "pdf"
)

var ErrUnsupportedInput = errors.New("định dạng file không hỗ trợ")

// DetectInputType ưu tiên FileType lưu trong DB, sau đó tới đuôi file.
func DetectInputType(fileType, name string) (InputType, error) {
	t := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(fileType), "."))
	switch {
	case t == "pdf" || t == "application/pdf":
		return InputPDF, nil
	case t == "docx" || strings.Contains(t, "wordprocessingml"):
		return InputDOCX, nil
	case t == "txt" || strings.HasPrefix(t, "text/"):
		return InputTXT, nil
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return InputPDF, nil
	case ".docx":
		return InputDOCX, nil
	case ".txt", ".md", "":
		return InputTXT, nil
	default:
		return "", ErrUnsupportedInput
	}
}

// NormalizeBytes chuyển nội dung file gốc thành plain text đã làm sạch sơ bộ.
func NormalizeBytes(t InputType, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch t {
	case InputTXT:
		if !utf8.Valid(data) {
			data = []byte(strings.ToValidUTF8(string(data), ""))
		}
		text = string(data)
	case InputPDF:
		text, err = ExtractTextFromPDF(data)
	case InputDOCX:
		text, err = ExtractTextFromDOCX(data)
	default:
		return "", ErrUnsupportedInput
	}
	if err != nil {
		return "", err
	}
	return PreCleanText(text), nil
}
