package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/metrics"
)

type ArtifactKind string

const (
	KindQuiz       ArtifactKind = "quiz"
	KindFlashcards ArtifactKind = "flashcards"
	KindTranscript ArtifactKind = "transcript"
)

type GenerationRequest struct {
	Kind         ArtifactKind
	SystemPrompt string
	UserPrompt   string
	Params       CompletionParams
	// OnAttempt được gọi sau mỗi lần thử, err nil nghĩa là thành công
	OnAttempt func(attempt int, err error)
}

// GenerationError là trạng thái cuối sau khi dùng hết số lần thử.
type GenerationError struct {
	Kind     ArtifactKind
	Attempts int
	Last     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("sinh %s thất bại sau %d lần thử: %v", e.Kind, e.Attempts, e.Last)
}

func (e *GenerationError) Unwrap() error { return ErrGenerationExhausted }

type Generator struct {
	gateway     TextGateway
	maxAttempts int
	backoff     time.Duration
	log         *logger.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewGenerator(gateway TextGateway, maxAttempts int, backoff time.Duration, log *logger.Logger) *Generator {
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	if backoff < 0 {
		backoff = 0
	}
	return &Generator{
		gateway:     gateway,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		log:         log.With("service", "Generator"),
		sleep:       sleepContext,
	}
}

func (g *Generator) MaxAttempts() int { return g.maxAttempts }

// Generate gọi gateway tối đa maxAttempts lần, dừng ngay khi parse trả kết quả hợp lệ.
// parse trả ErrExtraction / ErrValidation để phân loại lần thử thất bại.
func Generate[T any](ctx context.Context, g *Generator, req GenerationRequest, parse func(raw string) (T, error)) (T, error) {
	var zero T
	started := time.Now()
	defer func() {
		metrics.RecordGenerationDuration(string(req.Kind), time.Since(started).Seconds())
	}()

	log := g.log.With("kind", req.Kind)
	var last error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("sinh %s bị hủy ở lần thử %d: %w", req.Kind, attempt, err)
		}

		result, err := generateOnce(ctx, g.gateway, req, parse)
		if req.OnAttempt != nil {
			req.OnAttempt(attempt, err)
		}
		if err == nil {
			metrics.RecordAttempt(string(req.Kind), "success")
			log.Info("sinh nội dung thành công", "attempt", attempt)
			return result, nil
		}

		last = err
		metrics.RecordAttempt(string(req.Kind), outcomeLabel(err))
		log.Warn("lần thử thất bại", "attempt", attempt, "max_attempts", g.maxAttempts, "error", err)

		if attempt < g.maxAttempts {
			if err := g.sleep(ctx, g.backoff); err != nil {
				return zero, fmt.Errorf("sinh %s bị hủy khi chờ retry: %w", req.Kind, err)
			}
		}
	}

	return zero, &GenerationError{Kind: req.Kind, Attempts: g.maxAttempts, Last: last}
}

func generateOnce[T any](ctx context.Context, gateway TextGateway, req GenerationRequest, parse func(string) (T, error)) (T, error) {
	var zero T
	raw, err := gateway.Complete(ctx, req.SystemPrompt, req.UserPrompt, req.Params)
	if err != nil {
		return zero, err
	}
	return parse(raw)
}

func outcomeLabel(err error) string {
	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.Is(err, ErrExtraction):
		return "extraction_failed"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	default:
		return "error"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
