package middleware

import (
	"context"
	"net/http"

	"askhub/internal/models"
	"askhub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CheckUserKey   = "user"
	SessionUserKey = "user_id"
)

// UserLoader looks up the session user.
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// LoadUser retrieves user from session and sets to context
func LoadUser(users UserLoader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		raw, ok := session.Get(SessionUserKey).(string)
		if !ok {
			c.Next()
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			session.Delete(SessionUserKey)
			_ = session.Save()
			c.Next()
			return
		}

		user, err := users.GetUser(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(CheckUserKey, user)
		case services.KindOf(err) == services.KindNotFound:
			// 用户已被删除
			session.Delete(SessionUserKey)
			_ = session.Save()
		default:
			logger.Warn("load session user failed", zap.String("user_id", raw), zap.Error(err))
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in. LoadUser must run first.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Please log in",
			})
			return
		}
		c.Next()
	}
}

// AdminRequired ensures the logged in user has the admin role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Please log in",
			})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(CheckUserKey)
	if !exists {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok && u != nil
}

// Login stores the user id in the session.
func Login(c *gin.Context, userID uuid.UUID) error {
	session := sessions.Default(c)
	session.Set(SessionUserKey, userID.String())
	return session.Save()
}

func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}
