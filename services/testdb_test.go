package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/config"
	"github.com/vnkhanh/e-podcast-content/models"
)

func newTestDB(t *testing.T) *gorm.DB {
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

// seedFile tạo user + file + chunk theo đúng thứ tự truyền vào.
func seedFile(t *testing.T, db *gorm.DB, name string, chunks ...string) (*models.User, *models.File) {
	t.Helper()
	user := &models.User{FullName: "Test User", Email: uuid.NewString() + "@example.com", Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)

	file := &models.File{UserID: user.ID, Name: name, FileType: "txt"}
	require.NoError(t, db.Create(file).Error)

	for i, c := range chunks {
		require.NoError(t, db.Create(&models.Chunk{FileID: file.ID, Ordinal: i, Content: c}).Error)
	}
	return user, file
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
