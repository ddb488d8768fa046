package router

import (
	"net/http"

	"askhub/internal/handlers"
	"askhub/internal/middleware"
	"askhub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "askhub_session"

// Services is everything the HTTP layer needs.
type Services struct {
	DB         *gorm.DB
	Auth       *services.AuthService
	APIKeys    *services.APIKeyService
	BotUsers   *services.BotUserService
	Bot        *services.BotService
	Questions  *services.QuestionService
	Answers    *services.AnswerService
	Votes      *services.VoteService
	Comments   *services.CommentService
	Categories *services.CategoryService
	Tags       *services.TagService
	Uploads    *services.UploadService
	Ranking    *services.RankingService // optional
}

type Options struct {
	SessionSecret string
	SecureCookie  bool
}

// New builds the gin engine with middleware and all routes.
func New(svc Services, opts Options, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.AccessLog(logger))

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	RegisterRoutes(r, svc, logger)
	return r
}

func RegisterRoutes(r *gin.Engine, svc Services, logger *zap.Logger) {
	var ranking handlers.RankScheduler
	if svc.Ranking != nil {
		ranking = svc.Ranking
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(svc.DB, logger)
	botHandler := handlers.NewBotHandler(svc.Bot, ranking, logger)
	authHandler := handlers.NewAuthHandler(svc.Auth, logger)
	questionHandler := handlers.NewQuestionHandler(svc.Questions, logger)
	answerHandler := handlers.NewAnswerHandler(svc.Answers, ranking, logger)
	voteHandler := handlers.NewVoteHandler(svc.Votes, ranking, logger)
	commentHandler := handlers.NewCommentHandler(svc.Comments, logger)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, logger)
	tagHandler := handlers.NewTagHandler(svc.Tags, logger)
	uploadHandler := handlers.NewUploadHandler(svc.Uploads, logger)
	adminHandler := handlers.NewAdminHandler(svc.APIKeys, svc.BotUsers, svc.Auth, logger)

	r.GET("/healthz", healthHandler.Healthz)

	// 机器人接口 (Bot API), bearer API key
	bot := r.Group("/api/bot")
	bot.Use(middleware.APIKeyRequired(svc.APIKeys, logger))
	{
		bot.POST("/questions", botHandler.CreateQuestion)
		bot.POST("/answers", botHandler.CreateAnswer)
		bot.POST("/accept", botHandler.Accept)
		bot.PATCH("/accept", botHandler.Accept)
	}

	api := r.Group("/api")
	api.Use(middleware.LoadUser(svc.Auth, logger))

	// 公共路由 (Public Routes)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/questions", questionHandler.List)
	api.GET("/questions/:id", questionHandler.Get)
	api.GET("/questions/:id/answers", answerHandler.List)
	api.GET("/comments", commentHandler.List)
	api.GET("/categories", categoryHandler.List)
	api.GET("/tags", tagHandler.List)

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)

		authorized.POST("/questions", questionHandler.Create)
		authorized.PUT("/questions/:id", questionHandler.Update)
		authorized.DELETE("/questions/:id", questionHandler.Delete)
		authorized.POST("/questions/:id/vote", voteHandler.VoteQuestion)
		authorized.GET("/questions/:id/vote", voteHandler.GetQuestionVote)
		authorized.POST("/questions/:id/answers", answerHandler.Create)

		authorized.PUT("/answers/:id", answerHandler.Update)
		authorized.DELETE("/answers/:id", answerHandler.Delete)
		authorized.POST("/answers/:id/vote", voteHandler.VoteAnswer)
		authorized.GET("/answers/:id/vote", voteHandler.GetAnswerVote)
		authorized.POST("/answers/:id/accept", answerHandler.Accept)
		authorized.POST("/answers/:id/unaccept", answerHandler.Unaccept)

		authorized.POST("/comments", commentHandler.Create)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.POST("/uploads", uploadHandler.Upload)
		authorized.DELETE("/uploads", uploadHandler.Remove)
	}

	// 管理后台 (Admin Routes)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.POST("/categories", categoryHandler.Create)
		admin.PUT("/categories/:id", categoryHandler.Update)
		admin.DELETE("/categories/:id", categoryHandler.Delete)

		admin.POST("/tags", tagHandler.Create)
		admin.PUT("/tags/:id", tagHandler.Update)
		admin.DELETE("/tags/:id", tagHandler.Delete)

		admin.DELETE("/questions/:id", questionHandler.AdminDelete)

		admin.GET("/api-keys", adminHandler.ListAPIKeys)
		admin.POST("/api-keys", adminHandler.CreateAPIKey)
		admin.GET("/api-keys/:id", adminHandler.GetAPIKey)
		admin.PATCH("/api-keys/:id", adminHandler.UpdateAPIKey)
		admin.DELETE("/api-keys/:id", adminHandler.DeleteAPIKey)

		admin.GET("/bot-users", adminHandler.ListBotUsers)
		admin.POST("/bot-users", adminHandler.CreateBotUser)
		admin.GET("/bot-users/:id", adminHandler.GetBotUser)
		admin.PUT("/bot-users/:id", adminHandler.UpdateBotUser)
		admin.DELETE("/bot-users/:id", adminHandler.DeleteBotUser)

		admin.POST("/users", adminHandler.CreateUser)
	}
}
