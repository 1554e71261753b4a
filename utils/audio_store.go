package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrAudioNotFound   = errors.New("không tìm thấy file audio")
	ErrAudioExists     = errors.New("file audio đích đã tồn tại")
	ErrInvalidFilename = errors.New("tên file audio không hợp lệ")
)

const audioRoutePrefix = "/api/audio/"

type AudioObject struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// AudioStore là thư mục phẳng chứa file audio, định danh bằng tên file.
type AudioStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, AudioObject, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]AudioObject, error)
	Rename(ctx context.Context, from, to string) error
	Delete(ctx context.Context, name string) error
}

// ValidAudioFilename chỉ chấp nhận basename, không có thành phần đường dẫn.
func ValidAudioFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}

func AudioURL(name string) string {
	return audioRoutePrefix + name
}

// AudioFilenameFromURL lấy tên file từ URL dạng /api/audio/<name>, URL khác trả "".
func AudioFilenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	idx := strings.Index(u.Path, audioRoutePrefix)
	if idx < 0 {
		return ""
	}
	name := u.Path[idx+len(audioRoutePrefix):]
	if !ValidAudioFilename(name) {
		return ""
	}
	return name
}

func AudioContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	default:
		return "audio/wav"
	}
}

// LocalAudioStore lưu file trên đĩa, mặc định public/uploads/audio.
type LocalAudioStore struct {
	Dir string
}

func NewLocalAudioStore(dir string) *LocalAudioStore {
	return &LocalAudioStore{Dir: dir}
}

func (s *LocalAudioStore) path(name string) (string, error) {
	if !ValidAudioFilename(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return filepath.Join(s.Dir, name), nil
}

func (s *LocalAudioStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("tạo thư mục audio: %w", err)
	}

	// Ghi ra file tạm rồi rename để người đọc không thấy file dở dang
	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", err
	}
	return AudioURL(name), nil
}

func (s *LocalAudioStore) Open(ctx context.Context, name string) (io.ReadCloser, AudioObject, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, AudioObject{}, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, AudioObject{}, ErrAudioNotFound
	}
	if err != nil {
		return nil, AudioObject{}, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, AudioObject{}, err
	}
	if st.IsDir() {
		f.Close()
		return nil, AudioObject{}, ErrAudioNotFound
	}
	return f, AudioObject{Name: name, Size: st.Size(), ModTime: st.ModTime()}, nil
}

func (s *LocalAudioStore) Exists(ctx context.Context, name string) (bool, error) {
	p, err := s.path(name)
	if err != nil {
		return false, err
	}
	st, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !st.IsDir(), nil
}

func (s *LocalAudioStore) List(ctx context.Context) ([]AudioObject, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]AudioObject, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, AudioObject{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *LocalAudioStore) Rename(ctx context.Context, from, to string) error {
	src, err := s.path(from)
	if err != nil {
		return err
	}
	dst, err := s.path(to)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrAudioExists, to)
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrAudioNotFound
		}
		return err
	}
	return nil
}

func (s *LocalAudioStore) Delete(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// NewAudioStore chọn nơi lưu audio theo cấu hình AUDIO_STORAGE.
func NewAudioStore(kind, dir, supabaseURL, supabaseKey, bucket string) (AudioStore, error) {
	switch strings.ToLower(kind) {
	case "", "local":
		return NewLocalAudioStore(dir), nil
	case "supabase":
		if supabaseURL == "" || supabaseKey == "" {
			return nil, fmt.Errorf("AUDIO_STORAGE=supabase cần SUPABASE_URL và SUPABASE_KEY")
		}
		return NewSupabaseAudioStore(supabaseURL, supabaseKey, bucket), nil
	default:
		return nil, fmt.Errorf("AUDIO_STORAGE không hỗ trợ: %q", kind)
	}
}
