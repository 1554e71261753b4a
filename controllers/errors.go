package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/services"
	"github.com/vnkhanh/e-podcast-content/utils"
)

// respondError đổi lỗi service thành HTTP status + thông báo ngắn, chi tiết chỉ ghi log.
func respondError(c *gin.Context, log *logger.Logger, kind string, err error) {
	status := http.StatusInternalServerError
	msg := "Internal server error"

	switch {
	case errors.Is(err, services.ErrNoContent):
		status, msg = http.StatusBadRequest, "No content found for this file."
	case errors.Is(err, services.ErrFileNotFound):
		status, msg = http.StatusNotFound, "File not found."
	case errors.Is(err, services.ErrArtifactNotFound):
		status, msg = http.StatusNotFound, "No "+kind+" found for this file."
	case errors.Is(err, services.ErrGenerationExhausted),
		errors.Is(err, context.DeadlineExceeded):
		msg = services.UserMessage(services.ArtifactKind(kind), err)
	case errors.Is(err, services.ErrStorage):
		msg = "Failed to store audio file."
	case errors.Is(err, utils.ErrInvalidFilename):
		status, msg = http.StatusBadRequest, "Invalid filename."
	case errors.Is(err, utils.ErrAudioNotFound):
		status, msg = http.StatusNotFound, "Audio file not found."
	}

	if status >= http.StatusInternalServerError {
		log.Error("request thất bại", "path", c.FullPath(), "kind", kind, "error", err)
	} else {
		log.Debug("request bị từ chối", "path", c.FullPath(), "kind", kind, "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}
