package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/middleware"
	"github.com/vnkhanh/e-podcast-content/services"
)

type PodcastController struct {
	podcasts *services.PodcastService
	files    *services.FileService
	log      *logger.Logger
}

func NewPodcastController(podcasts *services.PodcastService, files *services.FileService, log *logger.Logger) *PodcastController {
	return &PodcastController{podcasts: podcasts, files: files, log: log.With("controller", "podcast")}
}

// CreatePodcast tạo lại podcast cho file, podcast cũ (nếu có) bị thay thế.
func (ctl *PodcastController) CreatePodcast(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	fileID, _ := middleware.CurrentFileID(c)

	result, err := ctl.podcasts.CreatePodcast(c.Request.Context(), userID, fileID)
	if err != nil {
		respondError(c, ctl.log, "podcast", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"podcast":    result.Podcast,
		"degraded":   result.Degraded,
		"audio_tier": result.AudioTier,
	})
}

func (ctl *PodcastController) GetPodcast(c *gin.Context) {
	fileID, _ := middleware.CurrentFileID(c)
	podcast, err := ctl.podcasts.GetPodcast(c.Request.Context(), fileID)
	if err != nil {
		respondError(c, ctl.log, "podcast", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"podcast": podcast})
}

func (ctl *PodcastController) FixAudioURLs(c *gin.Context) {
	fileID, _ := middleware.CurrentFileID(c)
	podcast, changed, err := ctl.podcasts.FixAudioURLs(c.Request.Context(), fileID)
	if err != nil {
		respondError(c, ctl.log, "podcast", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"podcast": podcast, "updated": changed})
}

func (ctl *PodcastController) DeleteFile(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	fileID, _ := middleware.CurrentFileID(c)
	if err := ctl.files.DeleteFile(c.Request.Context(), userID, fileID); err != nil {
		respondError(c, ctl.log, "file", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã xóa file và nội dung liên quan"})
}

func (ctl *PodcastController) ListAudio(c *gin.Context) {
	files, err := ctl.files.ListAudio(c.Request.Context())
	if err != nil {
		respondError(c, ctl.log, "audio", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "total": len(files)})
}
