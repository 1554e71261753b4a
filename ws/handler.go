package ws

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/models"
	"github.com/vnkhanh/e-podcast-content/utils"
)

// originChecker nhận request không có Origin (client ngoài trình duyệt),
// còn lại Origin phải nằm trong danh sách CORS hoặc danh sách có "*".
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

// HandleFileWebSocket: /ws/files/:id?token=..., chỉ chủ file được theo dõi tiến trình.
// Hub được khóa theo dạng chuẩn của UUID để khớp với ID mà service dùng khi notify.
func HandleFileWebSocket(h *Hub, verifier *utils.TokenVerifier, db *gorm.DB, allowedOrigins []string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID file không hợp lệ"})
			return
		}
		fileID := id.String()
		token := c.Query("token")

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu token"})
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
			return
		}

		var count int64
		if err := db.WithContext(c.Request.Context()).Model(&models.File{}).
			Where("id = ? AND user_id = ?", fileID, claims.UserID).
			Count(&count).Error; err != nil || count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy file"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn("WebSocket upgrade thất bại", "error", err)
			return
		}
		client := h.Register(fileID, conn)
		defer h.Unregister(fileID, conn)
		h.log.Debug("File WS connected", "file_id", fileID, "user_id", claims.UserID)

		hello, _ := json.Marshal(gin.H{"type": "connected", "message": "Connected to file " + fileID})
		client.Send <- hello

		// Chỉ đọc để phát hiện client đóng kết nối
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.log.Debug("File WS disconnected", "file_id", fileID, "user_id", claims.UserID)
	}
}
