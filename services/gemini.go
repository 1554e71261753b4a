package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/vnkhanh/e-podcast-content/logger"
)

// CompletionParams: Model rỗng thì dùng model mặc định của gateway.
type CompletionParams struct {
	Model       string
	Temperature float32
	MaxTokens   int32
}

// TextGateway gửi đúng một request, không tự retry.
type TextGateway interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, params CompletionParams) (string, error)
}

// UpstreamError: lỗi mạng, lỗi từ provider hoặc nội dung rỗng.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

var errEmptyCompletion = errors.New("gemini không trả kết quả hợp lệ")

type GeminiGateway struct {
	client       *genai.Client
	defaultModel string
	limiter      *rate.Limiter
	log          *logger.Logger
}

// NewGeminiGateway tạo client một lần lúc khởi động. apiKey rỗng vẫn trả gateway,
// mọi lời gọi sau đó fail ngay với UpstreamError.
func NewGeminiGateway(ctx context.Context, apiKey, model string, requestsPerMinute int, log *logger.Logger) (*GeminiGateway, error) {
	g := &GeminiGateway{defaultModel: model, log: log.With("service", "GeminiGateway")}
	if g.defaultModel == "" {
		g.defaultModel = "gemini-2.0-flash"
	}
	if requestsPerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}
	if apiKey == "" {
		g.log.Warn("GEMINI_API_KEY chưa cấu hình, mọi request sinh nội dung sẽ lỗi")
		return g, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("không thể tạo Gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *GeminiGateway) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiGateway) Complete(ctx context.Context, systemPrompt, userPrompt string, params CompletionParams) (string, error) {
	if g.client == nil {
		return "", &UpstreamError{Provider: "gemini", Err: errors.New("chưa cấu hình API key")}
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", &UpstreamError{Provider: "gemini", Err: err}
		}
	}

	name := params.Model
	if name == "" {
		name = g.defaultModel
	}
	model := g.client.GenerativeModel(name)
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}
	model.SetTemperature(params.Temperature)
	if params.MaxTokens > 0 {
		model.SetMaxOutputTokens(params.MaxTokens)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", &UpstreamError{Provider: "gemini", Err: err}
	}
	text, err := responseText(resp)
	if err != nil {
		return "", &UpstreamError{Provider: "gemini", Err: err}
	}
	return text, nil
}

// Gom tất cả part dạng text của candidate đầu tiên
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errEmptyCompletion
	}
	cand := resp.Candidates[0]
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", errEmptyCompletion
	}
	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errEmptyCompletion
	}
	return text, nil
}
