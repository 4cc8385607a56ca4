package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fleamarket/internal/config"
	"fleamarket/internal/database"
	"fleamarket/internal/domain"
	custommiddleware "fleamarket/internal/middleware"
	"fleamarket/internal/repository"
	"fleamarket/internal/service"
	"fleamarket/internal/storage"
	"fleamarket/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger, db database.Service) (*Server, error) {
	blobs, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob storage: %w", err)
	}
	itemBlobs := storage.Scoped(blobs, storage.ItemImages)
	userBlobs := storage.Scoped(blobs, storage.UserImages)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Create router
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Initialize repositories
	sqlDB := db.DB()
	tx := repository.NewTransactor(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)
	profileRepo := repository.NewProfileRepository(sqlDB)
	itemRepo := repository.NewItemRepository(sqlDB)
	imageRepo := repository.NewItemImageRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	refRepo := repository.NewReferenceRepository(sqlDB)
	commentRepo := repository.NewCommentRepository(sqlDB)
	favoriteRepo := repository.NewFavoriteRepository(sqlDB)
	purchaseRepo := repository.NewPurchaseRepository(sqlDB)

	// Initialize services
	accountService := service.NewAccountService(tx, userRepo, profileRepo, refreshTokenRepo, cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshExpiry)*24*time.Hour,
	)
	itemService := service.NewItemService(tx, itemRepo, imageRepo, categoryRepo, refRepo, commentRepo, purchaseRepo, itemBlobs, logger)
	favoriteService := service.NewFavoriteService(favoriteRepo, itemRepo, logger)
	purchaseService := service.NewPurchaseService(purchaseRepo, itemRepo, refRepo, cfg.Purchase.StrictStatus, logger)
	profileService := service.NewProfileService(tx, userRepo, profileRepo, imageRepo, refreshTokenRepo, userBlobs, itemBlobs, logger)
	commentService := service.NewCommentService(commentRepo, itemRepo, logger)
	referenceService := service.NewReferenceService(categoryRepo, refRepo)

	// Authenticated routes also require one of the seeded roles
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	requireMember := custommiddleware.RequireRole([]string{domain.RoleUser, domain.RoleAdmin}, logger)
	guards := transport.Guards{
		Auth: func(next http.Handler) http.Handler {
			return authMiddleware(requireMember(next))
		},
		OptionalAuth: custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, logger),
	}
	if cfg.RateLimit.Requests > 0 {
		guards.RateLimit = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit:fleamarket",
		}, logger)
	}

	// Register routes
	transport.NewAccountHandler(accountService, logger).RegisterRoutes(router, guards)
	transport.NewItemHandler(itemService, logger).RegisterRoutes(router, guards)
	transport.NewFavoriteHandler(favoriteService, logger).RegisterRoutes(router, guards)
	transport.NewCommentHandler(commentService, logger).RegisterRoutes(router, guards)
	transport.NewPurchaseHandler(purchaseService, logger).RegisterRoutes(router, guards)
	transport.NewProfileHandler(profileService, logger).RegisterRoutes(router, guards)
	transport.NewReferenceHandler(referenceService, logger).RegisterRoutes(router, guards)
	transport.NewImageHandler(itemBlobs, userBlobs, logger).RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
