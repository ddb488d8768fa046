package handlers

import (
	"net/http"

	"askhub/internal/middleware"
	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BotHandler serves the bot ingestion API. Routes sit behind
// middleware.APIKeyRequired; the key name is the bot application.
type BotHandler struct {
	bot     *services.BotService
	ranking RankScheduler
	logger  *zap.Logger
}

func NewBotHandler(bot *services.BotService, ranking RankScheduler, logger *zap.Logger) *BotHandler {
	return &BotHandler{bot: bot, ranking: ranking, logger: logger.Named("bot_api")}
}

type botUserPayload struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name"`
}

type botQuestionRequest struct {
	Data struct {
		Question struct {
			ID    string         `json:"id" binding:"required"`
			Title string         `json:"title" binding:"required"`
			Body  string         `json:"body" binding:"required"`
			User  botUserPayload `json:"user"`
		} `json:"question"`
	} `json:"data"`
}

type botAnswerRequest struct {
	Data struct {
		Answer struct {
			ID         string `json:"id" binding:"required"`
			Body       string `json:"body" binding:"required"`
			QuestionID string `json:"questionId" binding:"required"`
			User       struct {
				ID   string `json:"id" binding:"required"`
				Name string `json:"name" binding:"required"`
			} `json:"user"`
		} `json:"answer"`
	} `json:"data"`
}

type botAcceptRequest struct {
	Data struct {
		Answer struct {
			ID     string `json:"id" binding:"required"`
			Accept *bool  `json:"accept" binding:"required"`
			User   struct {
				ID   string `json:"id" binding:"required"`
				Name string `json:"name" binding:"required"`
			} `json:"user"`
		} `json:"answer"`
	} `json:"data"`
}

func (h *BotHandler) principal(c *gin.Context) (services.APIKeyPrincipal, bool) {
	p, ok := middleware.GetAPIKeyPrincipal(c)
	if !ok || p.Name == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   gin.H{"message": "Invalid API key configuration", "code": "INVALID_API_KEY"},
		})
		return services.APIKeyPrincipal{}, false
	}
	return *p, true
}

// CreateQuestion POST /api/bot/questions
func (h *BotHandler) CreateQuestion(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req botQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		botBadRequest(c, err)
		return
	}
	q := req.Data.Question

	res, err := h.bot.CreateQuestion(c.Request.Context(), p, services.BotQuestionInput{
		ExternalID: q.ID,
		Title:      q.Title,
		Body:       q.Body,
		User:       services.ExternalUser{ID: q.User.ID, Name: q.User.Name},
	})
	if err != nil {
		botError(c, h.logger, err, "Failed to create question")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"question": gin.H{
				"id":        res.Question.ID,
				"title":     res.Question.Title,
				"body":      res.Question.Body,
				"createdAt": res.Question.CreatedAt,
				"mapping": gin.H{
					"id":         res.Mapping.ID,
					"externalId": res.Mapping.ExternalQuestionID,
				},
				"url": res.URL,
			},
		},
	})
}

// CreateAnswer POST /api/bot/answers
func (h *BotHandler) CreateAnswer(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req botAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		botBadRequest(c, err)
		return
	}
	a := req.Data.Answer

	res, err := h.bot.CreateAnswer(c.Request.Context(), p, services.BotAnswerInput{
		ExternalID:         a.ID,
		ExternalQuestionID: a.QuestionID,
		Body:               a.Body,
		User:               services.ExternalUser{ID: a.User.ID, Name: a.User.Name},
	})
	if err != nil {
		botError(c, h.logger, err, "Failed to create answer")
		return
	}
	schedule(h.ranking, res.Answer.QuestionID)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"answer": gin.H{
				"id":        res.Answer.ID,
				"body":      res.Answer.Body,
				"createdAt": res.Answer.CreatedAt,
				"mapping": gin.H{
					"id":         res.Mapping.ID,
					"externalId": res.Mapping.ExternalAnswerID,
				},
				"url": res.URL,
			},
		},
	})
}

// Accept POST|PATCH /api/bot/accept
func (h *BotHandler) Accept(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req botAcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		botBadRequest(c, err)
		return
	}
	a := req.Data.Answer

	res, err := h.bot.AcceptAnswer(c.Request.Context(), p, services.BotAcceptInput{
		ExternalAnswerID: a.ID,
		Accept:           *a.Accept,
		User:             services.ExternalUser{ID: a.User.ID, Name: a.User.Name},
	})
	if err != nil {
		botError(c, h.logger, err, "Failed to accept answer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"answer": gin.H{
				"id":       res.Answer.ID,
				"accepted": res.Answer.Accepted,
				"acceptedBy": gin.H{
					"id":   res.AcceptedBy.ID,
					"name": res.AcceptedBy.Name,
				},
				"url": res.URL,
			},
		},
	})
}
