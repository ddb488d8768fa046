package handlers

import (
	"net/http"

	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AnswerHandler struct {
	answers *services.AnswerService
	ranking RankScheduler
	logger  *zap.Logger
}

func NewAnswerHandler(answers *services.AnswerService, ranking RankScheduler, logger *zap.Logger) *AnswerHandler {
	return &AnswerHandler{answers: answers, ranking: ranking, logger: logger.Named("answers")}
}

type answerRequest struct {
	Body           string   `json:"body" binding:"required"`
	AttachmentRefs []string `json:"attachment_refs"`
}

func (r answerRequest) input() services.AnswerInput {
	return services.AnswerInput{Body: r.Body, AttachmentRefs: r.AttachmentRefs}
}

// List GET /api/questions/:id/answers
func (h *AnswerHandler) List(c *gin.Context) {
	qid, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	answers, err := h.answers.ListByQuestion(c.Request.Context(), qid)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", answers)
}

// Create POST /api/questions/:id/answers
func (h *AnswerHandler) Create(c *gin.Context) {
	qid, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.answers.Create(c.Request.Context(), qid, currentUser(c).ID, req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	schedule(h.ranking, qid)
	respond(c, http.StatusCreated, "Answer created", a)
}

func (h *AnswerHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.answers.Update(c.Request.Context(), id, currentUser(c).ID, req.input())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Answer updated", a)
}

func (h *AnswerHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)
	if err := h.answers.Delete(c.Request.Context(), id, user.ID, user.IsAdmin()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Answer deleted", nil)
}

// Accept POST /api/answers/:id/accept (question owner only)
func (h *AnswerHandler) Accept(c *gin.Context) {
	h.transition(c, true)
}

// Unaccept POST /api/answers/:id/unaccept
func (h *AnswerHandler) Unaccept(c *gin.Context) {
	h.transition(c, false)
}

func (h *AnswerHandler) transition(c *gin.Context, accept bool) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	apply, msg := h.answers.Accept, "Answer accepted"
	if !accept {
		apply, msg = h.answers.Unaccept, "Answer unaccepted"
	}
	a, err := apply(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, msg, a)
}
