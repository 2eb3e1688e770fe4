package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewhub/database"
	"reviewhub/internal/config"
	"reviewhub/internal/handler"
	"reviewhub/internal/logging"
	"reviewhub/internal/mailer"
	"reviewhub/internal/middleware"
	"reviewhub/internal/repository"
	"reviewhub/internal/service"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logging.New(cfg)

	// Open GORM DB and apply the schema
	gdb, err := database.OpenGorm(cfg, logger)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	// Redis holds the confirmation codes
	rdb, err := database.NewRedis(cfg, logger)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer rdb.Close()

	// Repositories
	userRepo := repository.NewUserRepository(gdb)
	categoryRepo := repository.NewCategoryRepository(gdb)
	genreRepo := repository.NewGenreRepository(gdb)
	titleRepo := repository.NewTitleRepository(gdb)
	reviewRepo := repository.NewReviewRepository(gdb)
	commentRepo := repository.NewCommentRepository(gdb)
	codeRepo := repository.NewCodeRepository(rdb, cfg.ConfirmationCodeTTL)

	// Services
	mail := mailer.NewMailer(cfg, logger)
	authService := service.NewAuthService(userRepo, codeRepo, mail, cfg)
	userService := service.NewUserService(userRepo)
	catalogService := service.NewCatalogService(categoryRepo, genreRepo, titleRepo, reviewRepo)
	reviewService := service.NewReviewService(reviewRepo, titleRepo)
	commentService := service.NewCommentService(commentRepo, reviewRepo)

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := gdb.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMW := middleware.AuthMiddleware(authService)
	adminMW := middleware.RequireAdmin()

	api := r.Group("/api/v1")

	// Auth routes sit behind the rate limiter
	authGroup := api.Group("")
	authGroup.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	handler.NewAuthHandler(authService).RegisterRoutes(authGroup)

	handler.NewUserHandler(userService).RegisterRoutes(api, authMW, adminMW)
	handler.NewCategoryHandler(catalogService).RegisterRoutes(api, authMW, adminMW)
	handler.NewGenreHandler(catalogService).RegisterRoutes(api, authMW, adminMW)
	handler.NewTitleHandler(catalogService).RegisterRoutes(api, authMW, adminMW)
	handler.NewReviewHandler(reviewService).RegisterRoutes(api, authMW)
	handler.NewCommentHandler(commentService).RegisterRoutes(api, authMW)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("server starting", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
