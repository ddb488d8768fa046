package handlers

import (
	"net/http"

	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TagHandler struct {
	tags   *services.TagService
	logger *zap.Logger
}

func NewTagHandler(tags *services.TagService, logger *zap.Logger) *TagHandler {
	return &TagHandler{tags: tags, logger: logger.Named("tags")}
}

func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", tags)
}

// Create adds a tag with no usages. The name is normalised.
func (h *TagHandler) Create(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tag, err := h.tags.CreateTag(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Tag created", tag)
}

func (h *TagHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tag, err := h.tags.UpdateTag(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Tag updated", tag)
}

func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.tags.DeleteTag(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Tag deleted", nil)
}
