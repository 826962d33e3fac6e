package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/atelier-labs/commission-api/api/swagger"
	"github.com/atelier-labs/commission-api/internal/audit"
	"github.com/atelier-labs/commission-api/internal/handler"
	"github.com/atelier-labs/commission-api/internal/middleware"
	"github.com/atelier-labs/commission-api/internal/repository"
	"github.com/atelier-labs/commission-api/internal/service"
	"github.com/atelier-labs/commission-api/pkg/cache"
	"github.com/atelier-labs/commission-api/pkg/config"
	"github.com/atelier-labs/commission-api/pkg/database"
	"github.com/atelier-labs/commission-api/pkg/logger"
	corsmiddleware "github.com/atelier-labs/commission-api/pkg/middleware/cors"
	reqidmiddleware "github.com/atelier-labs/commission-api/pkg/middleware/requestid"
)

// @title Commission API
// @version 1.0.0
// @description Commission request management backend
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	portfolioRepo := repository.NewPortfolioRepository(db)

	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "commission-api",
	})

	auditWriter := audit.NewWriter(userRepo, audit.Config{Workers: 2, Logger: logr})
	auditWriter.Start(context.Background())
	defer auditWriter.Stop()

	commissionSvc := service.NewCommissionService(commissionRepo, auditWriter, validate, logr,
		service.WithStatsCache(cacheRepo, cfg.Admin.StatsCacheTTL))

	portfolioSvc := service.NewPortfolioService(portfolioRepo, cacheRepo, cfg.Portfolio.CacheTTL, logr)
	exportSvc := service.NewExportService(commissionRepo, cfg.Admin.ExportMaxRows)
	metricsSvc := service.NewMetricsService()

	authHandler := handler.NewAuthHandler(authSvc)
	profileHandler := handler.NewProfileHandler(authSvc)
	commissionHandler := handler.NewCommissionHandler(commissionSvc)
	adminHandler := handler.NewAdminCommissionHandler(commissionSvc, exportSvc, metricsSvc)
	portfolioHandler := handler.NewPortfolioHandler(portfolioSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	profile := api.Group("/profile", middleware.JWT(authSvc))
	{
		profile.PATCH("", profileHandler.Update)
		profile.POST("/onboarding", profileHandler.CompleteOnboarding)
	}

	portfolio := api.Group("/portfolio")
	{
		portfolio.GET("/categories", portfolioHandler.Categories)
		portfolio.GET("/projects", portfolioHandler.ListProjects)
		portfolio.GET("/projects/:id", portfolioHandler.GetProject)
	}

	commissions := api.Group("/commissions", middleware.JWT(authSvc))
	{
		commissions.POST("", commissionHandler.Create)
		commissions.GET("", commissionHandler.List)
		commissions.GET("/:id", commissionHandler.Get)
		commissions.PATCH("/:id", commissionHandler.Update)
		commissions.DELETE("/:id", commissionHandler.Delete)
		commissions.POST("/:id/archive", commissionHandler.Archive)
		commissions.POST("/:id/resubmit", commissionHandler.Resubmit)
	}

	admin := api.Group("/admin/commissions", middleware.JWT(authSvc), middleware.RequireAdmin())
	{
		admin.GET("", adminHandler.List)
		admin.GET("/:id", commissionHandler.Get)
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/export", adminHandler.Export)
		admin.POST("/:id/review", adminHandler.MarkInReview)
		admin.POST("/:id/accept", adminHandler.Accept)
		admin.POST("/:id/reject", adminHandler.Reject)
		admin.PUT("/:id/status", adminHandler.OverrideStatus)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
