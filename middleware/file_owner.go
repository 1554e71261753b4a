package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/models"
)

// FileOwner chặn request tới /files/:id nếu file không thuộc user hiện tại.
// File của người khác trả 404 như file không tồn tại.
func FileOwner(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID file không hợp lệ"})
			c.Abort()
			return
		}
		userID, ok := CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Chưa đăng nhập"})
			c.Abort()
			return
		}

		var count int64
		if err := db.WithContext(c.Request.Context()).Model(&models.File{}).
			Where("id = ? AND user_id = ?", fileID, userID).
			Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống"})
			c.Abort()
			return
		}
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy file"})
			c.Abort()
			return
		}
		c.Set("file_id", fileID)
		c.Next()
	}
}

func CurrentFileID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get("file_id")
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
