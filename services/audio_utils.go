package services

import (
	"fmt"
	"io"
	"path"
	"strings"

	tcmp3 "github.com/tcolgate/mp3"
)

// AudioDuration tính thời lượng (giây) theo đuôi file: WAV đọc header, MP3 cộng dồn từng frame.
func AudioDuration(name string, r io.Reader) (float64, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".wav":
		data, err := io.ReadAll(r)
		if err != nil {
			return 0, err
		}
		info, _, err := ParseWAV(data)
		if err != nil {
			return 0, err
		}
		return info.DurationSeconds(), nil
	case ".mp3":
		return mp3Duration(r)
	default:
		return 0, fmt.Errorf("không hỗ trợ tính thời lượng cho %q", path.Ext(name))
	}
}

// Tính thời lượng MP3 từ stream, trả về số giây
func mp3Duration(r io.Reader) (float64, error) {
	var (
		dur     float64
		dec     = tcmp3.NewDecoder(r)
		frame   tcmp3.Frame
		skipped int
	)

	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		dur += frame.Duration().Seconds()
	}

	return dur, nil
}
