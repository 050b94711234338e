package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"craftbid/internal/catalog"
	"craftbid/internal/config"
	custommiddleware "craftbid/internal/middleware"
	"craftbid/internal/repository"
	"craftbid/internal/service"
	"craftbid/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env == "development"))

	// Redis backs the rate limiter and the catalog snapshot cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 100,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit",
	}, logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db)
	bidRepo := repository.NewBidRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Catalog store: upstream HTTP source with a redis last-known-good snapshot
	catalogSource := catalog.NewHTTPSource(cfg.Catalog.URL, cfg.Catalog.FetchTimeout)
	catalogStore := catalog.NewStore(catalogSource, redisClient, cfg.Catalog.CacheTTL, logger)

	// Initialize services
	commissionRates := service.NewCommissionRates(settingsRepo, logger)
	projectService := service.NewProjectService(projectRepo, bidRepo, reviewRepo, catalogStore, commissionRates, logger)
	bidService := service.NewBidService(bidRepo, projectRepo)

	// Initialize handlers
	projectHandler := transport.NewProjectHandler(projectService, logger)
	bidHandler := transport.NewBidHandler(bidService, projectService, logger)
	catalogHandler := transport.NewCatalogHandler(catalogStore, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

	// Register routes
	projectHandler.RegisterRoutes(router, authMiddleware)
	bidHandler.RegisterRoutes(router, authMiddleware)
	catalogHandler.RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
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
