package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/config"
	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/models"
	"github.com/vnkhanh/e-podcast-content/services"
	"github.com/vnkhanh/e-podcast-content/utils"
)

var _ services.Notifier = (*Hub)(nil)

const appOrigin = "http://app.test"

type wsFixture struct {
	hub      *Hub
	verifier *utils.TokenVerifier
	server   *httptest.Server
	owner    *models.User
	file     *models.File
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := config.InitDB(cfg)
	require.NoError(t, err)

	owner := &models.User{Email: uuid.NewString() + "@example.com"}
	require.NoError(t, db.Create(owner).Error)
	file := &models.File{UserID: owner.ID, Name: "lecture.pdf"}
	require.NoError(t, db.Create(file).Error)

	f := &wsFixture{
		hub:      NewHub(logger.Nop()),
		verifier: utils.NewTokenVerifier("ws-secret"),
		owner:    owner,
		file:     file,
	}
	r := gin.New()
	r.GET("/ws/files/:id", HandleFileWebSocket(f.hub, f.verifier, db, []string{appOrigin}))
	f.server = httptest.NewServer(r)
	t.Cleanup(func() {
		f.server.Close()
		closeDB(db)
	})
	return f
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (f *wsFixture) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := f.verifier.Sign(utils.Claims{
		UserID:           userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	require.NoError(t, err)
	return token
}

func (f *wsFixture) url(fileID, token string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/files/" + fileID + "?token=" + token
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestFileWebSocket_ReceivesProgress(t *testing.T) {
	f := newWSFixture(t)
	fileID := f.file.ID.String()

	conn, _, err := websocket.DefaultDialer.Dial(f.url(fileID, f.token(t, f.owner.ID)), nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readJSON(t, conn)
	assert.Equal(t, "connected", hello["type"])
	assert.Equal(t, 1, f.hub.ClientCount(fileID))

	f.hub.NotifyProgress(fileID, services.ProgressEvent{Kind: "quiz", Stage: "attempt_failed", Attempt: 2})
	// file khác không được gửi tới kết nối này
	f.hub.NotifyProgress(uuid.NewString(), services.ProgressEvent{Kind: "quiz", Stage: "started"})
	f.hub.NotifyProgress(fileID, services.ProgressEvent{Kind: "quiz", Stage: "completed"})

	msg := readJSON(t, conn)
	assert.Equal(t, fileID, msg["file_id"])
	assert.Equal(t, "quiz", msg["kind"])
	assert.Equal(t, "attempt_failed", msg["stage"])
	assert.EqualValues(t, 2, msg["attempt"])

	msg = readJSON(t, conn)
	assert.Equal(t, "completed", msg["stage"])

	conn.Close()
	assert.Eventually(t, func() bool { return f.hub.ClientCount(fileID) == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestFileWebSocket_RejectsStrangers(t *testing.T) {
	f := newWSFixture(t)
	fileID := f.file.ID.String()

	_, resp, err := websocket.DefaultDialer.Dial(f.url(fileID, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(f.url(fileID, f.token(t, uuid.New())), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, f.hub.ClientCount(fileID))
}

func TestFileWebSocket_NonCanonicalIDReceivesProgress(t *testing.T) {
	f := newWSFixture(t)
	fileID := f.file.ID.String()

	conn, _, err := websocket.DefaultDialer.Dial(f.url(strings.ToUpper(fileID), f.token(t, f.owner.ID)), nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readJSON(t, conn)
	assert.Equal(t, "Connected to file "+fileID, hello["message"])
	assert.Equal(t, 1, f.hub.ClientCount(fileID))

	f.hub.NotifyProgress(fileID, services.ProgressEvent{Kind: "podcast", Stage: "completed"})
	msg := readJSON(t, conn)
	assert.Equal(t, fileID, msg["file_id"])
	assert.Equal(t, "completed", msg["stage"])
}

func TestFileWebSocket_InvalidID(t *testing.T) {
	f := newWSFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.url("not-a-uuid", f.token(t, f.owner.ID)), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFileWebSocket_Origin(t *testing.T) {
	f := newWSFixture(t)
	fileID := f.file.ID.String()
	url := f.url(fileID, f.token(t, f.owner.ID))

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, f.hub.ClientCount(fileID))

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {appOrigin}})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "connected", readJSON(t, conn)["type"])
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{appOrigin}, "", true},
		{"listed", []string{appOrigin}, appOrigin, true},
		{"trailing slash in config", []string{appOrigin + "/"}, appOrigin, true},
		{"not listed", []string{appOrigin}, "http://evil.test", false},
		{"wildcard", []string{"*"}, "http://evil.test", true},
		{"empty list", nil, appOrigin, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws/files/x", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, originChecker(tt.allowed)(r))
		})
	}
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	h := NewHub(logger.Nop())
	assert.NotPanics(t, func() {
		h.NotifyProgress("none", services.ProgressEvent{Kind: "podcast", Stage: "started"})
		h.Unregister("none", nil)
	})
	assert.Equal(t, 0, h.ClientCount("none"))
}
