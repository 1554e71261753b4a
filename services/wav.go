package services

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	wavHeaderSize    = 44
	speechSampleRate = 44100
)

var ErrInvalidWAV = errors.New("dữ liệu không phải WAV PCM hợp lệ")

type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataSize      int
}

func (w WAVInfo) DurationSeconds() float64 {
	bytesPerSec := w.SampleRate * w.Channels * w.BitsPerSample / 8
	if bytesPerSec == 0 {
		return 0
	}
	return float64(w.DataSize) / float64(bytesPerSec)
}

// EncodeWAV bọc PCM 16-bit trong header 44 byte chuẩn (RIFF/WAVE, format 1).
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const bits = 16
	blockAlign := channels * bits / 8
	out := make([]byte, wavHeaderSize+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*blockAlign)) // byte rate
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bits)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)
	return out
}

// ParseWAV đọc lần lượt các chunk sau header RIFF, trả thông tin định dạng và phần PCM.
func ParseWAV(data []byte) (WAVInfo, []byte, error) {
	var info WAVInfo
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return info, nil, ErrInvalidWAV
	}

	var (
		pcm    []byte
		hasFmt bool
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if end > len(data) || end < body {
			end = len(data) // dữ liệu stream hay ghi size sai
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return info, nil, fmt.Errorf("%w: chunk fmt quá ngắn", ErrInvalidWAV)
			}
			if format := binary.LittleEndian.Uint16(data[body : body+2]); format != 1 {
				return info, nil, fmt.Errorf("%w: format tag %d", ErrInvalidWAV, format)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			hasFmt = true
		case "data":
			pcm = data[body:end]
		}

		if pcm != nil && hasFmt {
			break
		}
		pos = end + size%2 // chunk lẻ có 1 byte đệm
		if end == len(data) {
			break
		}
	}

	if !hasFmt || pcm == nil {
		return info, nil, fmt.Errorf("%w: thiếu chunk fmt hoặc data", ErrInvalidWAV)
	}
	if info.Channels == 0 || info.SampleRate == 0 || info.BitsPerSample == 0 {
		return info, nil, fmt.Errorf("%w: header rỗng", ErrInvalidWAV)
	}
	info.DataSize = len(pcm)
	return info, pcm, nil
}
