package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	storage "github.com/supabase-community/storage-go"
)

const supabaseAudioPrefix = "audio"

// SupabaseAudioStore lưu audio ở bucket Supabase, path: <bucket>/audio/<filename>.
// URL trả về vẫn là /api/audio/<filename>, route audio sẽ stream lại từ Supabase.
type SupabaseAudioStore struct {
	client *storage.Client
	bucket string
}

func NewSupabaseAudioStore(supabaseURL, supabaseKey, bucket string) *SupabaseAudioStore {
	if bucket == "" {
		bucket = "uploads"
	}
	return &SupabaseAudioStore{
		client: storage.NewClient(strings.TrimRight(supabaseURL, "/")+"/storage/v1", supabaseKey, nil),
		bucket: bucket,
	}
}

func (s *SupabaseAudioStore) objectPath(name string) (string, error) {
	if !ValidAudioFilename(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return supabaseAudioPrefix + "/" + name, nil
}

func (s *SupabaseAudioStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	objectPath, err := s.objectPath(name)
	if err != nil {
		return "", err
	}
	contentType := AudioContentType(name)
	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, objectPath, bytes.NewReader(data), options); err != nil {
		return "", fmt.Errorf("upload audio lên Supabase: %w", err)
	}
	return AudioURL(name), nil
}

func (s *SupabaseAudioStore) Open(ctx context.Context, name string) (io.ReadCloser, AudioObject, error) {
	objectPath, err := s.objectPath(name)
	if err != nil {
		return nil, AudioObject{}, err
	}
	data, err := s.client.DownloadFile(s.bucket, objectPath)
	if err != nil {
		if isSupabaseNotFound(err) {
			return nil, AudioObject{}, ErrAudioNotFound
		}
		return nil, AudioObject{}, err
	}
	return io.NopCloser(bytes.NewReader(data)), AudioObject{Name: name, Size: int64(len(data))}, nil
}

func (s *SupabaseAudioStore) Exists(ctx context.Context, name string) (bool, error) {
	if !ValidAudioFilename(name) {
		return false, fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	objects, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, o := range objects {
		if o.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *SupabaseAudioStore) List(ctx context.Context) ([]AudioObject, error) {
	const pageSize = 1000
	var out []AudioObject
	for offset := 0; ; offset += pageSize {
		files, err := s.client.ListFiles(s.bucket, supabaseAudioPrefix, storage.FileSearchOptions{
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("liệt kê audio trên Supabase: %w", err)
		}
		for _, f := range files {
			if f.Name == "" || strings.HasPrefix(f.Name, ".") {
				continue
			}
			obj := AudioObject{Name: f.Name, Size: metadataSize(f.Metadata)}
			if t, err := time.Parse(time.RFC3339Nano, f.UpdatedAt); err == nil {
				obj.ModTime = t
			}
			out = append(out, obj)
		}
		if len(files) < pageSize {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *SupabaseAudioStore) Rename(ctx context.Context, from, to string) error {
	src, err := s.objectPath(from)
	if err != nil {
		return err
	}
	dst, err := s.objectPath(to)
	if err != nil {
		return err
	}
	exists, err := s.Exists(ctx, to)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAudioExists, to)
	}
	if _, err := s.client.MoveFile(s.bucket, src, dst); err != nil {
		if isSupabaseNotFound(err) {
			return ErrAudioNotFound
		}
		return err
	}
	return nil
}

func (s *SupabaseAudioStore) Delete(ctx context.Context, name string) error {
	objectPath, err := s.objectPath(name)
	if err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("xóa file Supabase thất bại: %w", err)
	}
	return nil
}

// Supabase không có kiểu lỗi riêng, chỉ dựa vào nội dung message
func isSupabaseNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}

func metadataSize(meta interface{}) int64 {
	m, ok := meta.(map[string]interface{})
	if !ok {
		return 0
	}
	switch v := m["size"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	}
	return 0
}
