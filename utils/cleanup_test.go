package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/config"
	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/models"
)

func newCleanupDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestAudioCleanupJob_Sweep(t *testing.T) {
	db := newCleanupDB(t)
	dir := t.TempDir()
	store := NewLocalAudioStore(dir)
	now := time.Now()
	old := now.Add(-48 * time.Hour)

	keepURL := AudioURL("keep.wav")
	require.NoError(t, db.Create(&models.Podcast{
		FileID:    uuid.New(),
		CreatedBy: uuid.New(),
		Title:     "Lecture - Audio Version",
		Sections:  []models.PodcastSection{{Title: "Lecture", AudioURL: &keepURL}},
	}).Error)

	for _, name := range []string{"keep.wav", "orphan.wav", "fresh.wav"} {
		writeAudio(t, dir, name)
	}
	require.NoError(t, os.Chtimes(filepath.Join(dir, "keep.wav"), old, old))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "orphan.wav"), old, old))

	job := NewAudioCleanupJob(db, store, 0, 24*time.Hour, logger.Nop())
	job.now = func() time.Time { return now }

	removed, err := job.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan.wav"}, removed)

	objs, err := store.List(context.Background())
	require.NoError(t, err)
	var names []string
	for _, o := range objs {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"fresh.wav", "keep.wav"}, names)

	// lượt sau không còn gì để xóa
	removed, err = job.Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestAudioCleanupJob_SweepAfterMigrateKeepsSectionAudio(t *testing.T) {
	db := newCleanupDB(t)
	dir := t.TempDir()
	store := NewLocalAudioStore(dir)
	ctx := context.Background()
	now := time.Now()
	old := now.Add(-48 * time.Hour)

	podcast := &models.Podcast{
		ID:        uuid.New(),
		FileID:    uuid.New(),
		CreatedBy: uuid.New(),
		Title:     "Lecture - Audio Version",
	}
	require.NoError(t, db.Create(podcast).Error)
	pid := podcast.ID.String()
	sectionID := uuid.New()
	sid := sectionID.String()
	legacy := LegacyAudioFilename(pid, sid)
	legacyURL := AudioURL(legacy)
	require.NoError(t, db.Create(&models.PodcastSection{
		ID:        sectionID,
		PodcastID: podcast.ID,
		Title:     "Lecture",
		AudioURL:  &legacyURL,
	}).Error)

	writeAudio(t, dir, legacy)
	require.NoError(t, os.Chtimes(filepath.Join(dir, legacy), old, old))

	report, err := MigrateAudioFiles(ctx, store, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Success)

	// audio_url vẫn là tên legacy, file thật đã mang tên hashed
	hashed := HashedAudioFilename(pid, sid)
	require.NoError(t, os.Chtimes(filepath.Join(dir, hashed), old, old))

	job := NewAudioCleanupJob(db, store, 0, 24*time.Hour, logger.Nop())
	job.now = func() time.Time { return now }
	removed, err := job.Sweep(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed)

	url, found := NewAudioLocator(StoreChecker{Store: store}).Resolve(ctx, pid, sid)
	assert.True(t, found)
	assert.Equal(t, AudioURL(hashed), url)
}

func TestAudioCleanupJob_StartDisabled(t *testing.T) {
	dir := t.TempDir()
	writeAudio(t, dir, "orphan.wav")
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "orphan.wav"), old, old))

	// interval <= 0: không chạy goroutine nào, db nil cũng không sao
	NewAudioCleanupJob(nil, NewLocalAudioStore(dir), 0, time.Hour, logger.Nop()).Start(context.Background())

	_, err := os.Stat(filepath.Join(dir, "orphan.wav"))
	assert.NoError(t, err)
}
