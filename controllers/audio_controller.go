package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/utils"
)

// Tên file audio là định danh nội dung nên cache vĩnh viễn
const audioCacheControl = "public, max-age=31536000, immutable"

type AudioController struct {
	store utils.AudioStore
	log   *logger.Logger
}

func NewAudioController(store utils.AudioStore, log *logger.Logger) *AudioController {
	return &AudioController{store: store, log: log.With("controller", "audio")}
}

// ServeAudio phục vụ GET và HEAD /api/audio/:filename.
func (ctl *AudioController) ServeAudio(c *gin.Context) {
	name := c.Param("filename")
	if !utils.ValidAudioFilename(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filename."})
		return
	}

	rc, obj, err := ctl.store.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, utils.ErrAudioNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Audio file not found."})
			return
		}
		ctl.log.Error("đọc file audio thất bại", "file", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read audio file."})
		return
	}
	defer rc.Close()

	headers := map[string]string{
		"Cache-Control": audioCacheControl,
		"Accept-Ranges": "bytes",
	}
	contentType := utils.AudioContentType(name)

	if c.Request.Method == http.MethodHead {
		for k, v := range headers {
			c.Header(k, v)
		}
		c.Header("Content-Type", contentType)
		c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
		c.Status(http.StatusOK)
		return
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, rc, headers)
}
