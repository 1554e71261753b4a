package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/config"
	"github.com/vnkhanh/e-podcast-content/models"
	"github.com/vnkhanh/e-podcast-content/utils"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

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

func createUser(t *testing.T, db *gorm.DB, role models.UserRole, active bool) *models.User {
	t.Helper()
	u := &models.User{Email: uuid.NewString() + "@example.com", Role: role, Status: &active}
	require.NoError(t, db.Create(u).Error)
	return u
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := utils.NewTokenVerifier(testSecret).Sign(utils.Claims{
		UserID:           userID,
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	require.NoError(t, err)
	return token
}

func newRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	api := r.Group("/api/user", AuthMiddleware(utils.NewTokenVerifier(testSecret), db))
	api.GET("/me", func(c *gin.Context) {
		id, _ := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.String(), "role": c.GetString("role")})
	})
	api.GET("/audio-files", RequireRoles(string(models.RoleAdmin), string(models.RoleLecturer)), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	files := api.Group("/files/:id", FileOwner(db))
	files.GET("", func(c *gin.Context) {
		id, _ := CurrentFileID(c)
		c.String(http.StatusOK, id.String())
	})
	return r
}

func do(r http.Handler, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_TokenSources(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, models.RoleUser, true)
	token := signToken(t, user.ID.String(), string(models.RoleUser))
	r := newRouter(db)

	sources := map[string]func(*http.Request){
		"authorization": func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) },
		"x-auth-token":  func(req *http.Request) { req.Header.Set("X-Auth-Token", token) },
		"x-auth-bearer": func(req *http.Request) { req.Header.Set("X-Auth-Token", "Bearer "+token) },
		"cookie":        func(req *http.Request) { req.AddCookie(&http.Cookie{Name: "auth_token", Value: token}) },
	}
	for name, mutate := range sources {
		t.Run(name, func(t *testing.T) {
			w := do(r, "/api/user/me", mutate)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), user.ID.String())
		})
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	db := newTestDB(t)
	locked := createUser(t, db, models.RoleUser, false)
	r := newRouter(db)

	w := do(r, "/api/user/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/api/user/me", func(req *http.Request) { req.Header.Set("Authorization", "Token abc") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/api/user/me", func(req *http.Request) { req.Header.Set("Authorization", "Bearer garbage") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	unknown := signToken(t, uuid.NewString(), "student")
	w = do(r, "/api/user/me", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+unknown) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	notUUID := signToken(t, "42", "student")
	w = do(r, "/api/user/me", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+notUUID) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	lockedToken := signToken(t, locked.ID.String(), "student")
	w = do(r, "/api/user/me", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+lockedToken) })
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoles(t *testing.T) {
	db := newTestDB(t)
	student := createUser(t, db, models.RoleUser, true)
	teacher := createUser(t, db, models.RoleLecturer, true)
	r := newRouter(db)

	w := do(r, "/api/user/audio-files", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+signToken(t, student.ID.String(), "student"))
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, "/api/user/audio-files", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+signToken(t, teacher.ID.String(), "teacher"))
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	// không có AuthMiddleware phía trước thì không có role
	bare := gin.New()
	bare.GET("/x", RequireRoles("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, do(bare, "/x", nil).Code)
}

func TestFileOwner(t *testing.T) {
	db := newTestDB(t)
	owner := createUser(t, db, models.RoleUser, true)
	other := createUser(t, db, models.RoleUser, true)
	file := &models.File{UserID: owner.ID, Name: "lecture.pdf", FileType: "pdf"}
	require.NoError(t, db.Create(file).Error)
	r := newRouter(db)

	as := func(u *models.User) func(*http.Request) {
		token := signToken(t, u.ID.String(), "student")
		return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }
	}

	w := do(r, "/api/user/files/"+file.ID.String(), as(owner))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, file.ID.String(), w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(r, "/api/user/files/"+file.ID.String(), as(other)).Code)
	assert.Equal(t, http.StatusNotFound, do(r, "/api/user/files/"+uuid.NewString(), as(owner)).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, "/api/user/files/not-a-uuid", as(owner)).Code)
}
