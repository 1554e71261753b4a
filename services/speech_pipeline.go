package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/metrics"
)

// SpeechTier là một tầng trong chuỗi fallback tổng hợp giọng nói.
type SpeechTier interface {
	Name() string
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type SynthesisResult struct {
	Audio       []byte
	Tier        string
	DurationSec float64
}

// SpeechPipeline thử lần lượt các tầng, tầng procedural luôn đứng cuối.
// Kết quả luôn là WAV hợp lệ không rỗng, nếu không thì trả lỗi bọc ErrSynthesis.
type SpeechPipeline struct {
	tiers []SpeechTier
	log   *logger.Logger
}

func NewSpeechPipeline(log *logger.Logger, tiers ...SpeechTier) *SpeechPipeline {
	chain := make([]SpeechTier, 0, len(tiers)+1)
	for _, t := range tiers {
		if t != nil {
			chain = append(chain, t)
		}
	}
	chain = append(chain, ProceduralTier{})
	return &SpeechPipeline{tiers: chain, log: log.With("service", "SpeechPipeline")}
}

func (p *SpeechPipeline) Synthesize(ctx context.Context, text string) (*SynthesisResult, error) {
	text = TruncateForSynthesis(text)
	if text == "" {
		return nil, fmt.Errorf("%w: không có nội dung để chuyển thành audio", ErrSynthesis)
	}

	var last error
	for _, tier := range p.tiers {
		audio, err := tier.Synthesize(ctx, text)
		if err == nil {
			var info WAVInfo
			info, _, err = ParseWAV(audio)
			if err == nil && info.DataSize > 0 {
				metrics.RecordTier(tier.Name(), "success")
				p.log.Info("tổng hợp audio thành công", "tier", tier.Name(), "bytes", len(audio), "seconds", info.DurationSeconds())
				return &SynthesisResult{Audio: audio, Tier: tier.Name(), DurationSec: info.DurationSeconds()}, nil
			}
			if err == nil {
				err = ErrInvalidWAV
			}
		}

		last = err
		outcome := "error"
		if errors.Is(err, ErrNeuralUnavailable) {
			outcome = "skipped"
		}
		metrics.RecordTier(tier.Name(), outcome)
		p.log.Warn("tầng tổng hợp thất bại, chuyển tầng tiếp theo", "tier", tier.Name(), "error", err)

		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrSynthesis, last)
}
