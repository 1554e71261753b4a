package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/middleware"
	"github.com/vnkhanh/e-podcast-content/services"
)

// ContentController phục vụ quiz / flashcards / transcript của một file.
// Các route đều đi sau middleware.FileOwner nên file_id đã được kiểm tra.
type ContentController struct {
	svc *services.ContentService
	log *logger.Logger
}

func NewContentController(svc *services.ContentService, log *logger.Logger) *ContentController {
	return &ContentController{svc: svc, log: log.With("controller", "content")}
}

func regenerateOption(c *gin.Context) services.GenerateOptions {
	regen, _ := strconv.ParseBool(c.DefaultQuery("regenerate", "false"))
	return services.GenerateOptions{Regenerate: regen}
}

func (ctl *ContentController) GenerateQuiz(c *gin.Context) {
	fileID, _ := middleware.CurrentFileID(c)
	quiz, err := ctl.svc.GenerateQuiz(c.Request.Context(), fileID, regenerateOption(c))
	if err != nil {
		respondError(c, ctl.log, string(services.KindQuiz), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz})
}

func (ctl *ContentController) GenerateFlashcards(c *gin.Context) {
	fileID, _ := middleware.CurrentFileID(c)
	set, err := ctl.svc.GenerateFlashcards(c.Request.Context(), fileID, regenerateOption(c))
	if err != nil {
		respondError(c, ctl.log, string(services.KindFlashcards), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flashcards": set})
}

func (ctl *ContentController) GenerateTranscript(c *gin.Context) {
	fileID, _ := middleware.CurrentFileID(c)
	t, err := ctl.svc.GenerateTranscript(c.Request.Context(), fileID, regenerateOption(c))
	if err != nil {
		respondError(c, ctl.log, string(services.KindTranscript), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": t})
}

func (ctl *ContentController) GenerateAll(c *gin.Context) {
	fileID, _ := middleware.CurrentFileID(c)
	all, err := ctl.svc.GenerateAllContent(c.Request.Context(), fileID)
	if err != nil {
		respondError(c, ctl.log, "content", err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (ctl *ContentController) GetQuiz(c *gin.Context) {
	fileID, _ := middleware.CurrentFileID(c)
	quiz, err := ctl.svc.GetQuiz(c.Request.Context(), fileID)
	if err != nil {
		respondError(c, ctl.log, string(services.KindQuiz), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz})
}

func (ctl *ContentController) GetFlashcards(c *gin.Context) {
	fileID, _ := middleware.CurrentFileID(c)
	set, err := ctl.svc.GetFlashcards(c.Request.Context(), fileID)
	if err != nil {
		respondError(c, ctl.log, string(services.KindFlashcards), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flashcards": set})
}

func (ctl *ContentController) GetTranscript(c *gin.Context) {
	fileID, _ := middleware.CurrentFileID(c)
	t, err := ctl.svc.GetTranscript(c.Request.Context(), fileID)
	if err != nil {
		respondError(c, ctl.log, string(services.KindTranscript), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": t})
}
