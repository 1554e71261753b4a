package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-podcast-content/controllers"
	"github.com/vnkhanh/e-podcast-content/middleware"
	"github.com/vnkhanh/e-podcast-content/models"
	"github.com/vnkhanh/e-podcast-content/utils"
	"github.com/vnkhanh/e-podcast-content/ws"
)

type Deps struct {
	DB             *gorm.DB
	Verifier       *utils.TokenVerifier
	Hub            *ws.Hub
	Content        *controllers.ContentController
	Podcast        *controllers.PodcastController
	Audio          *controllers.AudioController
	// AllowedOrigins giới hạn Origin được mở WebSocket, dùng chung với CORS
	AllowedOrigins []string
}

func SetupRouter(r *gin.Engine, d Deps) *gin.Engine {
	r.GET("/ping", controllers.Ping)
	r.GET("/health", controllers.HealthCheck(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws/files/:id", ws.HandleFileWebSocket(d.Hub, d.Verifier, d.DB, d.AllowedOrigins))

	api := r.Group("/api")

	// File audio công khai, tên file là định danh
	api.GET("/audio/:filename", d.Audio.ServeAudio)
	api.HEAD("/audio/:filename", d.Audio.ServeAudio)

	user := api.Group("/user")
	user.Use(middleware.AuthMiddleware(d.Verifier, d.DB))
	{
		user.GET("/audio-files", middleware.RequireRoles(string(models.RoleAdmin), string(models.RoleLecturer)), d.Podcast.ListAudio)

		files := user.Group("/files/:id")
		files.Use(middleware.FileOwner(d.DB))
		{
			files.POST("/quiz", d.Content.GenerateQuiz)
			files.POST("/flashcards", d.Content.GenerateFlashcards)
			files.POST("/transcript", d.Content.GenerateTranscript)
			files.POST("/content", d.Content.GenerateAll)

			files.GET("/quiz", d.Content.GetQuiz)
			files.GET("/flashcards", d.Content.GetFlashcards)
			files.GET("/transcript", d.Content.GetTranscript)

			files.POST("/podcast", d.Podcast.CreatePodcast)
			files.GET("/podcast", d.Podcast.GetPodcast)
			files.POST("/podcast/fix-audio-urls", d.Podcast.FixAudioURLs)

			files.DELETE("", d.Podcast.DeleteFile)
		}
	}

	return r
}
