package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"askhub/internal/router"
	"askhub/internal/services"
	"askhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	ingestLockTTL       = 30 * time.Second
	rankRefreshInterval = time.Hour
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var guard services.IngestGuard
	if cfg.Redis.URL != "" {
		client, err := services.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func(c *redis.Client) {
			if err := c.Close(); err != nil {
				logger.Warn("close redis", zap.Error(err))
			}
		}(client)
		guard = services.NewRedisIngestGuard(client, ingestLockTTL, logger)
		logger.Info("ingestion guard enabled")
	}

	var store services.BlobStore
	if cfg.Blob.Endpoint != "" {
		m, err := services.NewMinioBlobStore(ctx, cfg.Blob)
		if err != nil {
			return fmt.Errorf("connect blob store: %w", err)
		}
		store = m
		logger.Info("blob store enabled", zap.String("endpoint", cfg.Blob.Endpoint), zap.String("bucket", cfg.Blob.Bucket))
	} else {
		logger.Warn("blob store not configured, uploads disabled")
	}

	cache, err := utils.NewCache(256)
	if err != nil {
		return err
	}
	tags := services.NewTagService(a.db, cache, logger)
	ranking := services.NewRankingService(a.db, logger)
	rankCtx, stopRanking := context.WithCancel(ctx)
	rankDone := make(chan struct{})
	go func() {
		defer close(rankDone)
		ranking.Run(rankCtx, rankRefreshInterval)
	}()
	defer func() {
		stopRanking()
		<-rankDone
	}()
	svc := router.Services{
		DB:         a.db,
		Auth:       services.NewAuthService(a.db, logger),
		APIKeys:    services.NewAPIKeyService(a.db, logger),
		BotUsers:   services.NewBotUserService(a.db, logger),
		Bot:        services.NewBotService(a.db, guard, tags, cfg.BaseURL, logger),
		Questions:  services.NewQuestionService(a.db, tags, logger),
		Answers:    services.NewAnswerService(a.db, logger),
		Votes:      services.NewVoteService(a.db, logger),
		Comments:   services.NewCommentService(a.db, logger),
		Categories: services.NewCategoryService(a.db, cache, logger),
		Tags:       tags,
		Uploads:    services.NewUploadService(store, logger),
		Ranking:    ranking,
	}
	engine := router.New(svc, router.Options{
		SessionSecret: cfg.SessionSecret,
		SecureCookie:  cfg.Env == "production",
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
