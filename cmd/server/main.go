package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/backend"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/config"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/events"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/handler"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/logger"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/metrics"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/middleware"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/session"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/storage"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/validation"
	"github.com/Sourchax/CMPE356-Project-sub000/internal/weather"
)

// cachedRoutes are the anonymous listing routes served from Redis
var cachedRoutes = []string{
	"/api/stations/active",
	"/api/voyages/future",
	"/api/announcements",
	"/api/weather",
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	m := metrics.Default()

	// Initialize Redis client
	redisClient, err := setupRedis(cfg, zapLogger)
	if err != nil {
		zapLogger.Error("Failed to set up Redis", zap.Error(err))
		// Continue without Redis
	}

	auditor := setupAuditor(cfg, zapLogger, m)

	archive, err := storage.NewArchive(cfg.Storage)
	if err != nil {
		zapLogger.Error("Failed to set up ticket archive, archiving disabled", zap.Error(err))
		archive = storage.Disabled{}
	}

	var weatherClient *weather.Client
	if cfg.Weather.APIKey != "" {
		weatherClient = weather.NewClient(cfg.Weather.URL, cfg.Weather.APIKey, 10*time.Second, zapLogger)
	}

	api := backend.NewAPI(backend.NewClient(
		cfg.Backend.URL,
		cfg.Backend.Timeout,
		session.Policy(cfg.Session.MissingToken),
		zapLogger,
		m,
	))
	v := validation.New(time.Now)
	opts := handler.Options{
		PageSize:    cfg.UI.PageSize,
		MaxPageSize: cfg.UI.MaxPageSize,
		Now:         time.Now,
		Metrics:     m,
		Logger:      zapLogger,
	}

	handlers := &handler.Handlers{
		Public:        handler.NewPublicHandler(api, v, weatherClient, opts),
		Tickets:       handler.NewTicketHandler(api, v, archive, opts),
		Notifications: handler.NewNotificationHandler(api, v, opts),
		Admin:         handler.NewAdminHandler(api, v, opts),
		Manager:       handler.NewManagerHandler(api, v, opts),
	}

	var audits sync.WaitGroup
	router := setupRouter(handlers, cfg, zapLogger, m, redisClient, auditor, &audits)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zapLogger.Info("Starting ferry console gateway",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", cfg.Backend.URL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if err := middleware.WaitAudits(ctx, &audits); err != nil {
		zapLogger.Warn("Audit events still in flight at shutdown", zap.Error(err))
	}

	if err := auditor.Close(); err != nil {
		zapLogger.Warn("Failed to close audit producer", zap.Error(err))
	}

	if redisClient != nil {
		redisClient.Close()
	}

	zapLogger.Info("Server exited properly")
}

// setupRedis connects to Redis when a URL is configured
func setupRedis(cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}

	redisOptions, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Failed to parse Redis URL", zap.Error(err))
		redisOptions = &redis.Options{
			Addr: cfg.Redis.URL,
			DB:   0,
		}
	}

	client := redis.NewClient(redisOptions)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("Connected to Redis", zap.String("addr", redisOptions.Addr))
	return client, nil
}

// setupAuditor publishes audit events to Kafka when brokers are configured
func setupAuditor(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) events.Auditor {
	brokers := cfg.Kafka.BrokerList()
	if len(brokers) == 0 {
		logger.Info("Kafka brokers not configured, audit events disabled")
		return events.Nop{}
	}

	producer := events.NewProducer(brokers, cfg.Kafka.ClientID, logger)
	logger.Info("Initialized Kafka producer",
		zap.Strings("brokers", brokers),
		zap.String("topic", cfg.Kafka.Topic))
	return events.NewKafkaAuditor(producer, cfg.Kafka.Topic, logger, m)
}

func setupRouter(
	handlers *handler.Handlers,
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	redisClient *redis.Client,
	auditor events.Auditor,
	audits *sync.WaitGroup,
) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Error("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Session(cfg.Session.CookieName, logger))
	router.Use(middleware.Metrics(m))

	if cfg.RateLimit.Enabled {
		if redisClient != nil {
			router.Use(middleware.RedisRateLimit(redisClient, middleware.RedisRateLimitConfig{
				RequestsPerMinute:  cfg.RateLimit.RequestsPerMinute,
				BurstSize:          cfg.RateLimit.BurstSize,
				ClientIPHeaderName: cfg.RateLimit.ClientIPHeaderName,
				Prefix:             cfg.Cache.Prefix,
			}, logger))
		} else {
			// Fallback to in-memory rate limiter if Redis is not available
			router.Use(middleware.RateLimit(
				middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize),
				cfg.RateLimit.ClientIPHeaderName,
			))
		}
	}

	if redisClient != nil && cfg.Cache.Enabled {
		router.Use(middleware.RedisCache(redisClient, middleware.CacheConfig{
			Duration:   cfg.Cache.TTL,
			PrefixKey:  cfg.Cache.Prefix,
			CookieName: cfg.Session.CookieName,
			Paths:      cachedRoutes,
		}, logger))
		router.Use(middleware.InvalidateCache(redisClient, cfg.Cache.Prefix, logger))
	}

	router.Use(middleware.Audit(auditor, audits))

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"

		if redisClient != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			defer cancel()

			if _, err := redisClient.Ping(ctx).Result(); err != nil {
				status = "degraded"
				logger.Warn("Redis health check failed", zap.Error(err))
			}
		}

		_, kafkaEnabled := auditor.(*events.KafkaAuditor)
		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"redis":  redisClient != nil,
			"kafka":  kafkaEnabled,
		})
	})

	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	handlers.Register(router)

	return router
}
