package handlers

import (
	"net/http"

	"askhub/internal/models"
	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type VoteHandler struct {
	votes   *services.VoteService
	ranking RankScheduler
	logger  *zap.Logger
}

func NewVoteHandler(votes *services.VoteService, ranking RankScheduler, logger *zap.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, ranking: ranking, logger: logger.Named("votes")}
}

type voteRequest struct {
	Value int `json:"value" binding:"required,oneof=1 -1"`
}

// VoteQuestion POST /api/questions/:id/vote
// Same value twice cancels the vote, the opposite value flips it.
func (h *VoteHandler) VoteQuestion(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := h.votes.VoteQuestion(c.Request.Context(), id, currentUser(c).ID, req.Value)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	schedule(h.ranking, q.ID)
	respond(c, http.StatusOK, "Vote recorded", q)
}

// VoteAnswer POST /api/answers/:id/vote
func (h *VoteHandler) VoteAnswer(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.votes.VoteAnswer(c.Request.Context(), id, currentUser(c).ID, req.Value)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Vote recorded", a)
}

func (h *VoteHandler) GetQuestionVote(c *gin.Context) {
	h.getVote(c, models.TargetQuestion)
}

func (h *VoteHandler) GetAnswerVote(c *gin.Context) {
	h.getVote(c, models.TargetAnswer)
}

func (h *VoteHandler) getVote(c *gin.Context, kind models.TargetKind) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	v, err := h.votes.GetUserVote(c.Request.Context(), kind, id, currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"value": v})
}
