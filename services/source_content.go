package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/models"
)

const (
	generationChunkLimit = 30
	podcastChunkLimit    = 20
	originTextLimit      = 5000                // số ký tự tối đa lấy từ file gốc
	originTextRangeBytes = originTextLimit * 4 // UTF-8 tối đa 4 byte/ký tự
	originMaxBytes       = 20 << 20
)

// SourceLoader đọc nội dung nguồn của một file: chunk trong DB, hoặc file gốc khi chưa có chunk.
type SourceLoader struct {
	db     *gorm.DB
	client *http.Client
	log    *logger.Logger
}

func NewSourceLoader(db *gorm.DB, client *http.Client, log *logger.Logger) *SourceLoader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &SourceLoader{db: db, client: client, log: log.With("service", "SourceLoader")}
}

// Chunks trả tối đa limit chunk theo thứ tự ingest.
func (l *SourceLoader) Chunks(ctx context.Context, fileID uuid.UUID, limit int) ([]models.Chunk, error) {
	var chunks []models.Chunk
	err := l.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("ordinal ASC").Order("created_at ASC").
		Limit(limit).
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("đọc chunk của file %s: %w", fileID, err)
	}
	return chunks, nil
}

// ChunkText nối chunk bằng một dòng trống, ErrNoContent nếu không có chữ nào.
func (l *SourceLoader) ChunkText(ctx context.Context, fileID uuid.UUID, limit int) (string, error) {
	chunks, err := l.Chunks(ctx, fileID, limit)
	if err != nil {
		return "", err
	}
	text := JoinChunks(chunks)
	if strings.TrimSpace(text) == "" {
		return "", ErrNoContent
	}
	return text, nil
}

func (l *SourceLoader) HasChunks(ctx context.Context, fileID uuid.UUID) (bool, error) {
	var n int64
	if err := l.db.WithContext(ctx).Model(&models.Chunk{}).Where("file_id = ?", fileID).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// PodcastChunks: chunk nếu có, không thì lấy tối đa 5000 ký tự đầu của file gốc.
func (l *SourceLoader) PodcastChunks(ctx context.Context, file *models.File) ([]models.Chunk, error) {
	chunks, err := l.Chunks(ctx, file.ID, podcastChunkLimit)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(JoinChunks(chunks)) != "" {
		return chunks, nil
	}

	l.log.Warn("file chưa có chunk, thử đọc file gốc", "file_id", file.ID)
	text, err := l.FetchOrigin(ctx, file)
	if err != nil {
		l.log.Warn("không đọc được file gốc", "file_id", file.ID, "error", err)
		return nil, ErrNoContent
	}
	return []models.Chunk{{FileID: file.ID, Content: text}}, nil
}

// FetchOrigin tải file gốc: file text chỉ xin một byte-range, pdf/docx phải tải cả file (giới hạn 20MB).
func (l *SourceLoader) FetchOrigin(ctx context.Context, file *models.File) (string, error) {
	if file.URL == "" {
		return "", errors.New("file không có URL gốc")
	}
	inputType, err := DetectInputType(file.FileType, file.Name)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return "", err
	}
	limit := int64(originMaxBytes)
	if inputType == InputTXT {
		req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", originTextRangeBytes-1))
		limit = originTextRangeBytes
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tải file gốc: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", fmt.Errorf("tải file gốc lỗi %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", fmt.Errorf("đọc file gốc: %w", err)
	}

	text, err := NormalizeBytes(inputType, data)
	if err != nil {
		return "", err
	}
	text = truncateRunes(text, originTextLimit)
	if strings.TrimSpace(text) == "" {
		return "", ErrNoContent
	}
	return text, nil
}

func JoinChunks(chunks []models.Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
