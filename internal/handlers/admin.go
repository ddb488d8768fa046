package handlers

import (
	"net/http"
	"time"

	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminHandler manages API keys, bot-user links and admin-created users.
// Routes are mounted behind middleware.AdminRequired.
type AdminHandler struct {
	keys     *services.APIKeyService
	botUsers *services.BotUserService
	auth     *services.AuthService
	logger   *zap.Logger
}

func NewAdminHandler(keys *services.APIKeyService, botUsers *services.BotUserService, auth *services.AuthService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{keys: keys, botUsers: botUsers, auth: auth, logger: logger.Named("admin")}
}

type apiKeyCreateRequest struct {
	Name      string     `json:"name" binding:"required,max=100"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type apiKeyUpdateRequest struct {
	Name        *string    `json:"name" binding:"omitempty,max=100"`
	IsActive    *bool      `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
}

type botUserRequest struct {
	BotAppName   string `json:"bot_app_name" binding:"required"`
	BotAppUserID string `json:"bot_app_user_id" binding:"required"`
	UserID       string `json:"user_id" binding:"required,uuid"`
}

type userCreateRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" binding:"omitempty,oneof=user admin"`
}

// ---- API keys ----

func (h *AdminHandler) ListAPIKeys(c *gin.Context) {
	keys, err := h.keys.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", keys)
}

// CreateAPIKey returns the generated key. Its name is the bot app name.
func (h *AdminHandler) CreateAPIKey(c *gin.Context) {
	var req apiKeyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	key, err := h.keys.Create(c.Request.Context(), req.Name, req.ExpiresAt)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "API key created", key)
}

func (h *AdminHandler) GetAPIKey(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	key, err := h.keys.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", key)
}

func (h *AdminHandler) UpdateAPIKey(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req apiKeyUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	key, err := h.keys.Update(c.Request.Context(), id, services.APIKeyUpdate{
		Name:        req.Name,
		IsActive:    req.IsActive,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "API key updated", key)
}

func (h *AdminHandler) DeleteAPIKey(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.keys.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "API key deleted", nil)
}

// ---- bot users ----

func (h *AdminHandler) ListBotUsers(c *gin.Context) {
	users, err := h.botUsers.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", users)
}

func (h *AdminHandler) CreateBotUser(c *gin.Context) {
	var req botUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bu, err := h.botUsers.Create(c.Request.Context(), services.BotUserInput{
		BotAppName:   req.BotAppName,
		BotAppUserID: req.BotAppUserID,
		UserID:       uuid.MustParse(req.UserID),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "Bot user created", bu)
}

func (h *AdminHandler) GetBotUser(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	bu, err := h.botUsers.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "", bu)
}

func (h *AdminHandler) UpdateBotUser(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req botUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	bu, err := h.botUsers.Update(c.Request.Context(), id, services.BotUserInput{
		BotAppName:   req.BotAppName,
		BotAppUserID: req.BotAppUserID,
		UserID:       uuid.MustParse(req.UserID),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Bot user updated", bu)
}

func (h *AdminHandler) DeleteBotUser(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.botUsers.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusOK, "Bot user deleted", nil)
}

// CreateUser registers a profile on behalf of someone, optionally as admin.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req userCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respond(c, http.StatusCreated, "User created", u)
}
