package handlers

import (
	"net/http"

	"askhub/internal/middleware"
	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   *services.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger.Named("auth")}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a regular account and logs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := middleware.Login(c, user.ID); err != nil {
		respondError(c, h.logger, services.Internal("save session", err))
		return
	}
	respond(c, http.StatusCreated, "Registered", user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if err := middleware.Login(c, user.ID); err != nil {
		respondError(c, h.logger, services.Internal("save session", err))
		return
	}
	respond(c, http.StatusOK, "Logged in", user)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.Logout(c); err != nil {
		h.logger.Warn("clear session failed", zap.Error(err))
	}
	respond(c, http.StatusOK, "Logged out", nil)
}

// Me returns the session user.
func (h *AuthHandler) Me(c *gin.Context) {
	respond(c, http.StatusOK, "", currentUser(c))
}
