package utils

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/metrics"
)

const (
	hashedNameLen = 8
	// 8 ký tự hash + ".wav"
	hashedFilenameLen = hashedNameLen + 4
)

var audioExtensions = []string{".wav", ".mp3", ".m4a"}

// HashedAudioFilename: md5("<podcastID>-<sectionID>"), lấy 8 ký tự hex đầu.
func HashedAudioFilename(podcastID, sectionID string) string {
	sum := md5.Sum([]byte(podcastID + "-" + sectionID))
	return hex.EncodeToString(sum[:])[:hashedNameLen] + ".wav"
}

// LegacyAudioFilename là tên file cũ "<podcastID>-<sectionID>.wav".
func LegacyAudioFilename(podcastID, sectionID string) string {
	return podcastID + "-" + sectionID + ".wav"
}

func trimAudioExt(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range audioExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

func IsHashBasedFilename(name string) bool {
	return len(trimAudioExt(name)) == hashedNameLen
}

// ExtractIDsFromFilename tách podcastID/sectionID từ tên file kiểu cũ.
// Ưu tiên cặp UUID chuẩn, nếu không thì cắt tại dấu "-" đầu tiên.
func ExtractIDsFromFilename(name string) (podcastID, sectionID string, ok bool) {
	base := trimAudioExt(name)
	if len(base) == hashedNameLen {
		return "", "", false
	}

	const uuidLen = 36
	if len(base) == uuidLen*2+1 && base[uuidLen] == '-' {
		p, s := base[:uuidLen], base[uuidLen+1:]
		if _, err := uuid.Parse(p); err == nil {
			if _, err := uuid.Parse(s); err == nil {
				return p, s, true
			}
		}
	}

	idx := strings.Index(base, "-")
	if idx <= 0 || idx == len(base)-1 {
		return "", "", false
	}
	return base[:idx], base[idx+1:], true
}

// ExistenceChecker kiểm tra file audio có tồn tại hay không.
type ExistenceChecker interface {
	Has(ctx context.Context, filename string) bool
}

// HTTPChecker gửi HEAD tới <BaseURL>/api/audio/<filename>.
type HTTPChecker struct {
	BaseURL string
	Client  *http.Client
}

func (c HTTPChecker) Has(ctx context.Context, filename string) bool {
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, strings.TrimRight(c.BaseURL, "/")+AudioURL(filename), nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// StoreChecker hỏi trực tiếp AudioStore, dùng phía server.
type StoreChecker struct {
	Store AudioStore
}

func (c StoreChecker) Has(ctx context.Context, filename string) bool {
	ok, err := c.Store.Exists(ctx, filename)
	return err == nil && ok
}

// AudioLocator chọn tên file hash trước, legacy sau.
type AudioLocator struct {
	checker ExistenceChecker
}

func NewAudioLocator(checker ExistenceChecker) *AudioLocator {
	return &AudioLocator{checker: checker}
}

// GetAudioURL không bao giờ lỗi: nếu file hash không tìm thấy thì trả URL legacy.
func (l *AudioLocator) GetAudioURL(ctx context.Context, podcastID, sectionID string) string {
	hashed := HashedAudioFilename(podcastID, sectionID)
	if l.checker != nil && l.checker.Has(ctx, hashed) {
		return AudioURL(hashed)
	}
	return AudioURL(LegacyAudioFilename(podcastID, sectionID))
}

// Resolve trả URL của file thực sự tồn tại, ok=false nếu cả hai tên đều không có.
func (l *AudioLocator) Resolve(ctx context.Context, podcastID, sectionID string) (string, bool) {
	if l.checker == nil {
		return "", false
	}
	for _, name := range []string{
		HashedAudioFilename(podcastID, sectionID),
		LegacyAudioFilename(podcastID, sectionID),
	} {
		if l.checker.Has(ctx, name) {
			return AudioURL(name), true
		}
	}
	return "", false
}

type MigrationResult struct {
	From   string `json:"from"`
	To     string `json:"to,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type MigrationReport struct {
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Skipped int               `json:"skipped"`
	Results []MigrationResult `json:"results"`
}

const (
	migrationMigrated = "migrated"
	migrationSkipped  = "skipped"
	migrationFailed   = "failed"
)

// MigrateAudioFiles đổi tên file .wav kiểu cũ sang tên hash.
// Chạy lại nhiều lần an toàn: file đã đổi tên bị bỏ qua, lỗi từng file không dừng cả lượt.
func MigrateAudioFiles(ctx context.Context, store AudioStore, log *logger.Logger) (MigrationReport, error) {
	var report MigrationReport
	objects, err := store.List(ctx)
	if err != nil {
		return report, fmt.Errorf("liệt kê thư mục audio: %w", err)
	}

	record := func(r MigrationResult) {
		report.Results = append(report.Results, r)
		metrics.RecordMigration(r.Status)
		switch r.Status {
		case migrationMigrated:
			report.Success++
			log.Info("Đã migrate file audio", "from", r.From, "to", r.To)
		case migrationSkipped:
			report.Skipped++
		default:
			report.Failed++
			log.Warn("Migrate file audio thất bại", "file", r.From, "error", r.Error)
		}
	}

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := obj.Name
		if !strings.HasSuffix(strings.ToLower(name), ".wav") {
			continue
		}
		if len(name) == hashedFilenameLen {
			record(MigrationResult{From: name, Status: migrationSkipped})
			continue
		}

		podcastID, sectionID, ok := ExtractIDsFromFilename(name)
		if !ok {
			record(MigrationResult{From: name, Status: migrationFailed, Error: "không tách được ID từ tên file"})
			continue
		}

		target := HashedAudioFilename(podcastID, sectionID)
		if err := store.Rename(ctx, name, target); err != nil {
			msg := err.Error()
			if errors.Is(err, ErrAudioExists) {
				msg = "file đích đã tồn tại"
			}
			record(MigrationResult{From: name, To: target, Status: migrationFailed, Error: msg})
			continue
		}
		record(MigrationResult{From: name, To: target, Status: migrationMigrated})
	}
	return report, nil
}

// CheckMigrationNeeded: còn file .wav nào dài hơn tên hash không.
func CheckMigrationNeeded(ctx context.Context, store AudioStore) (bool, error) {
	objects, err := store.List(ctx)
	if err != nil {
		return false, err
	}
	for _, obj := range objects {
		if strings.HasSuffix(strings.ToLower(obj.Name), ".wav") && len(obj.Name) > hashedFilenameLen {
			return true, nil
		}
	}
	return false, nil
}
