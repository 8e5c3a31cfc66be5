package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stockwave/internal/alert"
	"stockwave/internal/config"
	"stockwave/internal/database"
	custommiddleware "stockwave/internal/middleware"
	"stockwave/internal/repository"
	"stockwave/internal/service"
	"stockwave/internal/session"
	"stockwave/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
	alerts alert.Publisher
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		alerts: newAlertPublisher(cfg, logger),
	}

	if cfg.RedisEnabled() {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			// the limiter fails open, so a missing Redis only disables it
			logger.Warn("Redis is not reachable", zap.String("addr", cfg.RedisAddr()), zap.Error(err))
		}
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	cfg, logger := s.config, s.logger

	registry := prometheus.NewRegistry()
	httpMetrics := custommiddleware.NewHTTPMetrics(registry)

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, !cfg.IsProduction()))
	router.Use(httpMetrics.Middleware)

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	))

	sqlDB := s.db.DB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	saleRepo := repository.NewSaleRepository(sqlDB)
	dashboardRepo := repository.NewDashboardRepository(sqlDB)
	planRepo := repository.NewPlanRepository(sqlDB)
	paymentRepo := repository.NewPaymentRepository(sqlDB)

	sessions := session.NewMaker(cfg.JWT.Secret, cfg.JWT.SessionExpiry)

	// Initialize services
	userService := service.NewUserService(userRepo, sessions)
	productService := service.NewProductService(productRepo, logger)
	saleService := service.NewSaleService(saleRepo, s.alerts, logger)
	dashboardService := service.NewDashboardService(dashboardRepo, productRepo)
	billingService := service.NewBillingService(planRepo, paymentRepo, logger)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, sessions, cfg.IsProduction(), logger)
	productHandler := transport.NewProductHandler(productService, logger)
	saleHandler := transport.NewSaleHandler(saleService, logger)
	dashboardHandler := transport.NewDashboardHandler(dashboardService, logger)
	billingHandler := transport.NewBillingHandler(billingService, logger)

	authMiddleware := custommiddleware.AuthMiddleware(sessions, logger)

	var authLimiter func(http.Handler) http.Handler
	if s.redis != nil {
		authLimiter = custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit:auth",
		}, logger)
	}

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware, authLimiter)
	productHandler.RegisterRoutes(router, authMiddleware)
	saleHandler.RegisterRoutes(router, authMiddleware)
	dashboardHandler.RegisterRoutes(router, authMiddleware)
	billingHandler.RegisterRoutes(router, authMiddleware)

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	health := s.db.Health(r.Context())

	status := http.StatusOK
	if health["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	custommiddleware.RespondWithJSON(w, status, health)
}

// newAlertPublisher connects to the broker when one is configured. Alerts are
// best effort, so a broker that cannot be reached falls back to logging.
func newAlertPublisher(cfg *config.Config, logger *zap.Logger) alert.Publisher {
	if cfg.AMQP.URL == "" {
		return alert.NewLogPublisher(logger)
	}

	publisher, err := alert.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
	if err != nil {
		logger.Error("Failed to connect alert publisher, logging alerts instead", zap.Error(err))
		return alert.NewLogPublisher(logger)
	}
	return publisher
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.alerts.Close(); err != nil {
		s.logger.Error("Failed to close alert publisher", zap.Error(err))
	}

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
