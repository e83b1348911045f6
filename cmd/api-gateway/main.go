package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/studyplan-api/api/swagger"
	"github.com/noah-isme/studyplan-api/internal/handler"
	"github.com/noah-isme/studyplan-api/internal/middleware"
	"github.com/noah-isme/studyplan-api/internal/repository"
	"github.com/noah-isme/studyplan-api/internal/service"
	"github.com/noah-isme/studyplan-api/pkg/cache"
	"github.com/noah-isme/studyplan-api/pkg/config"
	"github.com/noah-isme/studyplan-api/pkg/database"
	"github.com/noah-isme/studyplan-api/pkg/jobs"
	"github.com/noah-isme/studyplan-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/studyplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/studyplan-api/pkg/middleware/requestid"
)

// @title Study Plan API
// @version 0.1.0
// @description Exams, study sessions and heuristic study plan suggestions
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	checks := map[string]handler.HealthCheck{"database": db.PingContext}

	var redisClient redis.UniversalClient
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			redisClient = client
			checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	examRepo := repository.NewExamRepository(db)
	sessionRepo := repository.NewStudySessionRepository(db)
	calendarRepo := repository.NewCalendarEventRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, redisClient != nil)
	defaults := service.PlannerDefaults{
		PreferredSlots:         cfg.Planner.PreferredSlots,
		Intervals:              cfg.Planner.Intervals,
		SessionDurationHours:   cfg.Planner.SessionDurationHours,
		MaxSessionsPerDeadline: cfg.Planner.MaxSessionsPerDeadline,
		Location:               cfg.Planner.Location,
		ProposalTTL:            cfg.Planner.ProposalTTL,
	}

	authSvc := service.NewAuthService(logr, service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Leeway: cfg.JWT.Leeway})
	examSvc := service.NewExamService(examRepo, sessionRepo, db, validate, logr)
	sessionSvc := service.NewStudySessionService(sessionRepo, examRepo, validate, logr)
	prefSvc := service.NewPreferenceService(prefRepo, cacheSvc, defaults, validate, logr)
	planSvc := service.NewStudyPlanService(examRepo, sessionRepo, calendarRepo, prefSvc, db, metrics, validate, logr, service.StudyPlanConfig{Defaults: defaults})

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.PreviewRPS,
		Burst:             cfg.RateLimit.PreviewBurst,
	})

	scheduler := jobs.NewScheduler(jobs.SchedulerConfig{Location: cfg.Planner.Location, Timeout: cfg.Jobs.Timeout, Logger: logr})
	if err := scheduler.Register("purge-plan-proposals", cfg.Jobs.PurgeSchedule, planSvc.PurgeExpired); err != nil {
		logr.Fatal("invalid job schedule", zap.Error(err))
	}
	if err := scheduler.Register("sweep-rate-limiter", "@every 10m", func(context.Context) error {
		limiter.Sweep()
		return nil
	}); err != nil {
		logr.Fatal("invalid job schedule", zap.Error(err))
	}
	scheduler.Start()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	examHandler := handler.NewExamHandler(examSvc)
	sessionHandler := handler.NewStudySessionHandler(sessionSvc)
	prefHandler := handler.NewPreferenceHandler(prefSvc)
	planHandler := handler.NewPlanHandler(planSvc)

	api := r.Group(cfg.APIPrefix, middleware.JWT(authSvc))
	{
		api.GET("/exams", examHandler.List)
		api.POST("/exams", examHandler.Create)
		api.GET("/exams/:id", examHandler.Get)
		api.PATCH("/exams/:id", examHandler.Update)
		api.DELETE("/exams/:id", examHandler.Delete)

		api.GET("/sessions", sessionHandler.List)
		api.POST("/sessions", sessionHandler.Create)
		api.PATCH("/sessions/:id", sessionHandler.Update)
		api.DELETE("/sessions/:id", sessionHandler.Delete)

		api.GET("/preferences", prefHandler.Get)
		api.PUT("/preferences", prefHandler.Upsert)

		api.POST("/plan/preview", limiter.Handler(), planHandler.Preview)
		api.POST("/plan/accept", planHandler.Accept)
		api.GET("/plan/proposals/:id", planHandler.Proposal)
		api.GET("/plan/proposals/:id/export", planHandler.Export)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	scheduler.Stop(shutdownCtx)
}
