package services

import "errors"

var (
	ErrNoContent           = errors.New("file không có nội dung")
	ErrFileNotFound        = errors.New("không tìm thấy file")
	ErrGenerationExhausted = errors.New("hết số lần thử sinh nội dung")
	ErrExtraction          = errors.New("không bóc được JSON từ phản hồi")
	ErrValidation          = errors.New("dữ liệu sinh ra không hợp lệ")
	ErrSynthesis           = errors.New("không tạo được audio")
	ErrStorage             = errors.New("lỗi lưu trữ audio")
	ErrNeuralUnavailable   = errors.New("neural TTS chưa cấu hình")
)
