package handlers

import (
	"net/http"

	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UploadHandler struct {
	uploads *services.UploadService
	logger  *zap.Logger
}

func NewUploadHandler(uploads *services.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, logger: logger.Named("uploads")}
}

// Upload POST /api/uploads (multipart field "image")
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No file uploaded"})
		return
	}
	src, err := file.Open()
	if err != nil {
		respondError(c, h.logger, services.Internal("open upload", err))
		return
	}
	defer src.Close()

	url, err := h.uploads.Upload(c.Request.Context(), file.Filename, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Uploaded", gin.H{"url": url})
}

type removeUploadRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// Remove DELETE /api/uploads {url}
func (h *UploadHandler) Remove(c *gin.Context) {
	var req removeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.uploads.Remove(c.Request.Context(), req.URL); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Removed", nil)
}
