package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const vitsMaxAudioBytes = 64 << 20

// VITSClient gọi server VITS tự host: GET <base>?text=...&speed=normal trả {"audio_url": ...},
// sau đó tải file WAV từ audio_url.
type VITSClient struct {
	baseURL string
	client  *http.Client
}

func NewVITSClient(baseURL string, client *http.Client) *VITSClient {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &VITSClient{baseURL: strings.TrimSpace(baseURL), client: client}
}

func (c *VITSClient) Name() string { return "vits" }

func (c *VITSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	audioURL, err := c.requestAudioURL(ctx, text)
	if err != nil {
		return nil, err
	}
	return c.download(ctx, audioURL)
}

func (c *VITSClient) requestAudioURL(ctx context.Context, text string) (string, error) {
	params := url.Values{}
	params.Add("text", text)
	params.Add("speed", "normal")

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lỗi gọi VITS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("VITS lỗi %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		AudioURL string `json:"audio_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("lỗi đọc JSON từ VITS: %w", err)
	}
	if data.AudioURL == "" {
		return "", fmt.Errorf("VITS không trả về audio_url")
	}

	// audio_url có thể là đường dẫn tương đối
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(data.AudioURL)
	if err != nil {
		return "", fmt.Errorf("audio_url không hợp lệ: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *VITSClient) download(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tải audio VITS: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tải audio VITS lỗi %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, vitsMaxAudioBytes))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("VITS trả về audio rỗng")
	}
	return data, nil
}
