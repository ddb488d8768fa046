package handlers

import (
	"net/http"

	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	comments *services.CommentService
	logger   *zap.Logger
}

func NewCommentHandler(comments *services.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger.Named("comments")}
}

type commentRequest struct {
	ParentType string `json:"parent_type" binding:"required,oneof=question answer"`
	ParentID   string `json:"parent_id" binding:"required,uuid"`
	Body       string `json:"body" binding:"required"`
}

type commentUpdateRequest struct {
	Body string `json:"body" binding:"required"`
}

// List GET /api/comments?parent_type=question&parent_id=
func (h *CommentHandler) List(c *gin.Context) {
	parent, err := services.ParseCommentParent(c.Query("parent_type"), c.Query("parent_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	comments, err := h.comments.List(c.Request.Context(), parent)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", comments)
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	parent, err := services.ParseCommentParent(req.ParentType, req.ParentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	cm, err := h.comments.Create(c.Request.Context(), currentUser(c).ID, parent, req.Body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Comment created", cm)
}

func (h *CommentHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req commentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cm, err := h.comments.Update(c.Request.Context(), id, currentUser(c).ID, req.Body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Comment updated", cm)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)
	if err := h.comments.Delete(c.Request.Context(), id, user.ID, user.IsAdmin()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Comment deleted", nil)
}
