package middleware

import (
	"context"
	"net/http"

	"askhub/internal/observ"
	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const APIKeyPrincipalKey = "api_key_principal"

// Authenticator validates an Authorization header value.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) (*services.APIKeyPrincipal, error)
}

// APIKeyRequired authenticates bot requests. A missing, unknown, inactive or
// expired key is answered 401 UNAUTHORIZED in the bot error envelope;
// INVALID_API_KEY is left for keys that authenticate but carry no name.
func APIKeyRequired(auth Authenticator, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("bot_auth")
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		principal, err := auth.Authenticate(c.Request.Context(), header)
		if err != nil {
			token, _ := services.BearerToken(header)
			logger.Info("bot request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("token", observ.MaskToken(token)),
				zap.String("reason", string(services.KindOf(err))))

			switch services.KindOf(err) {
			case services.KindUnauthenticated, services.KindInvalidAPIKey:
				abortBot(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
			default:
				logger.Error("api key authentication failed", zap.Error(err))
				abortBot(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify API key")
			}
			return
		}
		c.Set(APIKeyPrincipalKey, principal)
		c.Next()
	}
}

func abortBot(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"message": message,
			"code":    code,
		},
	})
}

func GetAPIKeyPrincipal(c *gin.Context) (*services.APIKeyPrincipal, bool) {
	v, exists := c.Get(APIKeyPrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*services.APIKeyPrincipal)
	return p, ok
}
