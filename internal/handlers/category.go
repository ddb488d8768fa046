package handlers

import (
	"net/http"

	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CategoryHandler serves the public category list and its admin CRUD.
type CategoryHandler struct {
	categories *services.CategoryService
	logger     *zap.Logger
}

func NewCategoryHandler(categories *services.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger.Named("categories")}
}

type nameRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

func (h *CategoryHandler) List(c *gin.Context) {
	cats, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", cats)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := h.categories.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Category created", cat)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := h.categories.Update(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Category updated", cat)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Category deleted", nil)
}
