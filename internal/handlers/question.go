package handlers

import (
	"net/http"

	"askhub/internal/services"
	"askhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type QuestionHandler struct {
	questions *services.QuestionService
	logger    *zap.Logger
}

func NewQuestionHandler(questions *services.QuestionService, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{questions: questions, logger: logger.Named("questions")}
}

type questionRequest struct {
	Title          string   `json:"title" binding:"required,max=300"`
	Body           string   `json:"body" binding:"required"`
	CategoryID     string   `json:"category_id" binding:"omitempty,uuid"`
	Tags           []string `json:"tags" binding:"max=10"`
	AttachmentRefs []string `json:"attachment_refs"`
}

func (r questionRequest) input() services.QuestionInput {
	in := services.QuestionInput{
		Title:          r.Title,
		Body:           r.Body,
		Tags:           r.Tags,
		AttachmentRefs: r.AttachmentRefs,
	}
	if id, ok := utils.ParseUUID(r.CategoryID); ok {
		in.CategoryID = &id
	}
	return in
}

// List GET /api/questions?category=&tag=&user=&sort=new|votes|hot&limit=&offset=
func (h *QuestionHandler) List(c *gin.Context) {
	f := services.QuestionFilter{
		Tag:    c.Query("tag"),
		Sort:   c.Query("sort"),
		Limit:  utils.StringToInt(c.Query("limit"), 20),
		Offset: utils.StringToInt(c.Query("offset"), 0),
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if id, ok := utils.ParseUUID(c.Query("category")); ok {
		f.CategoryID = &id
	}
	if id, ok := utils.ParseUUID(c.Query("user")); ok {
		f.UserID = &id
	}

	questions, total, err := h.questions.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{
		"questions": questions,
		"total":     total,
		"limit":     f.Limit,
		"offset":    f.Offset,
	})
}

func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	q, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", q)
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := h.questions.Create(c.Request.Context(), currentUser(c).ID, req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Question created", q)
}

func (h *QuestionHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := h.questions.Update(c.Request.Context(), id, currentUser(c).ID, req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Question updated", q)
}

func (h *QuestionHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)
	if err := h.questions.Delete(c.Request.Context(), id, user.ID, user.IsAdmin()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Question deleted", nil)
}

// AdminDelete removes any question regardless of owner.
func (h *QuestionHandler) AdminDelete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.questions.Delete(c.Request.Context(), id, uuid.Nil, true); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Question deleted", nil)
}
