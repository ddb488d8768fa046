package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"askhub/internal/middleware"
	"askhub/internal/models"
	"askhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Web handlers answer with {success, message, data}; bot handlers use the
// bot envelope written by botError.

func respond(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func statusOf(kind services.Kind) int {
	switch kind {
	case services.KindUnauthenticated, services.KindInvalidAPIKey:
		return http.StatusUnauthorized
	case services.KindUnauthorized:
		return http.StatusForbidden
	case services.KindNotFound, services.KindBotUserNotFound, services.KindProfileNotFound:
		return http.StatusNotFound
	case services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes a web error envelope. Internal errors are logged and
// replaced by a generic message.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	kind := services.KindOf(err)
	status := statusOf(kind)
	body := gin.H{"success": false}

	var se *services.Error
	switch {
	case status == http.StatusInternalServerError:
		logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		body["message"] = "Something went wrong, please try again"
	case errors.As(err, &se):
		body["message"] = se.Message
		if kind == services.KindInvalidInput && len(se.Fields) > 0 {
			body["errors"] = se.Fields
		}
	default:
		body["message"] = http.StatusText(status)
	}
	c.JSON(status, body)
}

// badRequest answers a binding failure on the web API.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": "Invalid request data",
		"errors":  validationDetails(err),
	})
}

var botCodes = map[services.Kind]string{
	services.KindUnauthenticated: "UNAUTHORIZED",
	services.KindInvalidAPIKey:   "INVALID_API_KEY",
	services.KindInvalidInput:    "INVALID_REQUEST",
	services.KindBotUserNotFound: "BOT_USER_NOT_FOUND",
	services.KindProfileNotFound: "PROFILE_NOT_FOUND",
	services.KindNotFound:        "NOT_FOUND",
	services.KindConflict:        "CONFLICT",
}

// botError writes {success:false, error:{message, code, details}}.
// fallback is the message used for internal errors.
func botError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	kind := services.KindOf(err)
	code, ok := botCodes[kind]
	if !ok {
		logger.Error("bot request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   gin.H{"message": fallback, "code": "INTERNAL_ERROR"},
		})
		return
	}

	errBody := gin.H{"code": code}
	var se *services.Error
	if errors.As(err, &se) {
		errBody["message"] = se.Message
		if len(se.Fields) > 0 {
			errBody["details"] = se.Fields
		}
	} else {
		errBody["message"] = http.StatusText(statusOf(kind))
	}
	c.JSON(statusOf(kind), gin.H{"success": false, "error": errBody})
}

// botBadRequest answers a payload that failed schema validation.
func botBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"message": "Invalid request data",
			"code":    "INVALID_REQUEST",
			"details": validationDetails(err),
		},
	})
}

// validationDetails turns binding errors into a field -> rule map.
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			out[jsonPath(fe.Namespace())] = rule
		}
		return out
	}
	return map[string]string{"body": "invalid JSON"}
}

// jsonPath drops the root struct name from a validator namespace.
func jsonPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func init() {
	// Report json field names in validation errors.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// RankScheduler queues a question for hot score recomputation.
type RankScheduler interface {
	ScheduleUpdate(questionID uuid.UUID)
}

func schedule(r RankScheduler, questionID uuid.UUID) {
	if r != nil {
		r.ScheduleUpdate(questionID)
	}
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the session user. AuthRequired guarantees it on protected routes.
func currentUser(c *gin.Context) *models.User {
	u, _ := middleware.CurrentUser(c)
	return u
}
