package services

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"unicode"
)

const (
	speechWordsPerMinute = 150
	minSynthSeconds      = 10.0
	maxSynthSeconds      = 600.0
)

// ProceduralTier tạo sóng âm tổng hợp mô phỏng nhịp nói, không phụ thuộc dịch vụ ngoài.
// Chỉ lỗi khi text rỗng hoặc ctx bị hủy.
type ProceduralTier struct{}

func (ProceduralTier) Name() string { return "procedural" }

// SynthesisSeconds: số từ / 150 phút, kẹp trong [10s, 600s].
func SynthesisSeconds(text string) float64 {
	words := float64(len(strings.Fields(text)))
	seconds := words / speechWordsPerMinute * 60
	return math.Min(math.Max(seconds, minSynthSeconds), maxSynthSeconds)
}

func (ProceduralTier) Synthesize(ctx context.Context, text string) ([]byte, error) {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil, errors.New("không có nội dung để tổng hợp")
	}

	duration := SynthesisSeconds(string(runes))
	samples := int(math.Floor(speechSampleRate * duration))
	pcm := make([]byte, samples*2)

	for i := 0; i < samples; i++ {
		if i%speechSampleRate == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		t := float64(i) / speechSampleRate
		ch := runes[int(t*8)%len(runes)]
		v := proceduralSample(t, duration, ch)
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(toPCM16(v)))
	}

	return EncodeWAV(pcm, speechSampleRate, 1), nil
}

func proceduralSample(t, duration float64, ch rune) float64 {
	lower := unicode.ToLower(ch)
	isVowel := strings.ContainsRune("aeiou", lower)
	isConsonant := strings.ContainsRune("bcdfghjklmnpqrstvwxyz", lower)

	base := t * 0.2
	cv := float64(ch) * 0.005

	var f1, f2, f3 float64
	switch {
	case isVowel:
		f1 = 300 + math.Sin(base*0.3)*80 + cv*30
		f2 = 800 + math.Sin(base*0.5)*120 + cv*60
		f3 = 1800 + math.Sin(base*0.7)*150 + cv*90
	case isConsonant:
		f1 = 500 + math.Sin(base*0.4)*150 + cv*70
		f2 = 1500 + math.Sin(base*0.6)*200 + cv*100
		f3 = 2500 + math.Sin(base*0.8)*250 + cv*150
	default:
		f1 = 400 + math.Sin(base*0.35)*100 + cv*40
		f2 = 1000 + math.Sin(base*0.55)*140 + cv*70
		f3 = 2000 + math.Sin(base*0.75)*180 + cv*110
	}

	a1, a2, a3 := 0.06, 0.03, 0.015
	if isVowel {
		a1, a2, a3 = 0.12, 0.06, 0.03
	}
	wave := math.Sin(2*math.Pi*f1*t)*a1 + math.Sin(2*math.Pi*f2*t)*a2 + math.Sin(2*math.Pi*f3*t)*a3

	breath := math.Sin(2*math.Pi*80*t) * 0.015
	variation := math.Sin(2*math.Pi*1.5*t) * 0.008
	consonant := 0.0
	if isConsonant {
		consonant = math.Sin(2*math.Pi*3000*t) * 0.02 * math.Sin(t*12)
	}
	combined := wave + breath + variation + consonant

	// attack / decay / sustain / release
	attack := math.Min(t/0.03, 1)
	decay := math.Exp(-t * 0.02)
	release := math.Exp(-(duration - t) * 0.05)
	envelope := attack * decay * 0.85 * release

	rhythm := math.Sin(t)*0.08 + 0.92
	pause := 1.0
	if ch == ' ' || ch == '.' || ch == ',' {
		pause = 0.5
	}
	emphasis := 1.0
	if ch == '.' || ch == '!' || ch == '?' {
		emphasis = 1.1
	}

	return combined * envelope * rhythm * pause * emphasis * 0.2
}

func toPCM16(v float64) int16 {
	s := math.Round(v * 32767)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}
