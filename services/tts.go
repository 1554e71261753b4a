package services

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/vnkhanh/e-podcast-content/logger"
)

// Google giới hạn 5000 byte mỗi request
const neuralChunkBytes = 4500

type NeuralTTSConfig struct {
	CredentialsFile string
	Voice           string
	Language        string
	SpeakingRate    float64
}

// GoogleTTSTier là tầng neural TTS. Không có credential thì client nil và tầng bị bỏ qua ngay.
type GoogleTTSTier struct {
	client *texttospeech.Client
	cfg    NeuralTTSConfig
	log    *logger.Logger
}

func NewGoogleTTSTier(ctx context.Context, cfg NeuralTTSConfig, log *logger.Logger) (*GoogleTTSTier, error) {
	if cfg.Voice == "" {
		cfg.Voice = "en-US-Neural2-F"
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}
	if cfg.SpeakingRate <= 0 {
		cfg.SpeakingRate = 1.0
	}
	t := &GoogleTTSTier{cfg: cfg, log: log.With("service", "GoogleTTSTier")}
	if cfg.CredentialsFile == "" {
		t.log.Warn("GOOGLE_CREDENTIALS_JSON chưa cấu hình, bỏ qua tầng neural TTS")
		return t, nil
	}

	client, err := texttospeech.NewClient(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("không thể tạo TTS client: %w", err)
	}
	t.client = client
	return t, nil
}

func (t *GoogleTTSTier) Name() string { return "neural" }

func (t *GoogleTTSTier) Close() error {
	if t.client == nil {
		return nil
	}
	return t.client.Close()
}

// Synthesize đọc từng đoạn theo giới hạn byte, ghép PCM lại thành một file WAV.
func (t *GoogleTTSTier) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if t.client == nil {
		return nil, ErrNeuralUnavailable
	}

	chunks := splitTextToChunksByByte(text, neuralChunkBytes)
	var (
		pcm        []byte
		sampleRate = speechSampleRate
		channels   = 1
	)
	for idx, chunk := range chunks {
		t.log.Debug("synthesizing chunk", "index", idx+1, "total", len(chunks), "bytes", len(chunk))

		req := &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: t.cfg.Language,
				Name:         t.cfg.Voice,
			},
			AudioConfig: &texttospeechpb.AudioConfig{
				AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
				SampleRateHertz: speechSampleRate,
				SpeakingRate:    t.cfg.SpeakingRate,
			},
		}

		resp, err := t.client.SynthesizeSpeech(ctx, req)
		if err != nil {
			return nil, &UpstreamError{Provider: "google-tts", Err: err}
		}
		part, err := linear16PCM(resp.AudioContent)
		if err != nil {
			return nil, err
		}
		if part.info.SampleRate != 0 {
			sampleRate, channels = part.info.SampleRate, part.info.Channels
		}
		pcm = append(pcm, part.pcm...)
	}
	if len(pcm) == 0 {
		return nil, &UpstreamError{Provider: "google-tts", Err: fmt.Errorf("audio rỗng")}
	}
	return EncodeWAV(pcm, sampleRate, channels), nil
}

type pcmPart struct {
	info WAVInfo
	pcm  []byte
}

// LINEAR16 thường có sẵn header WAV, nếu không có thì coi cả khối là PCM thô.
func linear16PCM(audio []byte) (pcmPart, error) {
	if len(audio) >= 4 && string(audio[:4]) == "RIFF" {
		info, pcm, err := ParseWAV(audio)
		if err != nil {
			return pcmPart{}, err
		}
		return pcmPart{info: info, pcm: pcm}, nil
	}
	return pcmPart{pcm: audio}, nil
}

// splitTextToChunksByByte chia text theo giới hạn byte + dấu câu
func splitTextToChunksByByte(text string, maxBytes int) []string {
	var chunks []string
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= maxBytes {
			chunks = append(chunks, remaining)
			break
		}

		cutPos := maxBytes
		// Tìm dấu câu trong đoạn cắt được
		for i := cutPos; i > 0; i-- {
			if remaining[i-1] == '.' || remaining[i-1] == '!' || remaining[i-1] == '?' || remaining[i-1] == '\n' {
				cutPos = i
				break
			}
		}

		// Không có dấu câu thì lùi về đầu ký tự UTF-8 để không vượt giới hạn
		for cutPos > 0 && cutPos < len(remaining) && (remaining[cutPos]&0xC0) == 0x80 {
			cutPos--
		}
		if cutPos == 0 {
			cutPos = maxBytes
		}

		chunks = append(chunks, remaining[:cutPos])
		remaining = remaining[cutPos:]
	}

	return chunks
}
