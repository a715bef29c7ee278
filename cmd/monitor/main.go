package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chatguard/fraud-monitor/internal/alerts"
	"github.com/chatguard/fraud-monitor/internal/fraud"
	"github.com/chatguard/fraud-monitor/migrations"
	"github.com/chatguard/fraud-monitor/pkg/common"
	"github.com/chatguard/fraud-monitor/pkg/config"
	"github.com/chatguard/fraud-monitor/pkg/database"
	"github.com/chatguard/fraud-monitor/pkg/eventbus"
	"github.com/chatguard/fraud-monitor/pkg/logger"
	"github.com/chatguard/fraud-monitor/pkg/middleware"
	"github.com/chatguard/fraud-monitor/pkg/redis"
	"github.com/chatguard/fraud-monitor/pkg/resilience"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load("monitor")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply schema migrations before opening the pool
	if err := database.Migrate(&cfg.Database, migrations.FS, "."); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to PostgreSQL
	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL database")

	repo := fraud.NewRepository(db)

	// Load the detection rules once at startup. Rule changes require a restart.
	keywords, err := repo.LoadKeywords(ctx)
	if err != nil {
		logger.Fatal("Failed to load keyword rules", zap.Error(err))
	}
	brands, err := repo.LoadBrands(ctx)
	if err != nil {
		logger.Fatal("Failed to load brand rules", zap.Error(err))
	}
	rules := fraud.RuleSnapshot{Keywords: keywords, Brands: brands}
	logger.Info("Loaded detection rules", zap.Int("keywords", len(keywords)), zap.Int("brands", len(brands)))

	engineCfg := fraud.DefaultEngineConfig()
	engineCfg.OCRWeightFactor = cfg.Fraud.OCRWeightFactor
	engine, err := fraud.NewEngine(rules, engineCfg)
	if err != nil {
		logger.Fatal("Failed to build scoring engine", zap.Error(err))
	}

	gate, err := alerts.NewGatekeeper(alerts.Config{
		ScoreThreshold: cfg.Fraud.ScoreThreshold,
		RateLimit:      cfg.Alerting.RateLimit,
		Cooldown:       time.Duration(cfg.Alerting.CooldownSeconds) * time.Second,
		Window:         time.Duration(cfg.Alerting.WindowSeconds) * time.Second,
		StateRetention: time.Duration(cfg.Alerting.StateRetentionSeconds) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to build alert gatekeeper", zap.Error(err))
	}
	go gate.Run(ctx)

	service := fraud.NewService(engine, gate, repo, rules)

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Connected to Redis")
	service.SetScoreCache(redisClient, time.Duration(cfg.Redis.ScoreCacheTTL)*time.Second)

	// Connect to NATS if enabled
	if cfg.NATS.Enabled {
		bus, err := eventbus.Connect(cfg.NATS.URL)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer bus.Close()
		logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
		service.SetEventBus(bus)
	}

	// Alert webhook delivery, guarded by a circuit breaker
	if cfg.Alerting.WebhookURL != "" {
		breaker := resilience.NewCircuitBreaker(
			resilience.BuildSettings("alert-webhook", 60, 30, 5, 1))
		service.SetNotifier(alerts.NewWebhookNotifier(cfg.Alerting.WebhookURL, breaker))
		logger.Info("Alert webhook configured")
	}

	handler := fraud.NewHandler(service)

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.Metrics(cfg.Server.ServiceName))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	router.GET("/healthz", common.HealthCheckWithDeps(cfg.Server.ServiceName, version, map[string]func() error{
		"postgres": func() error { return db.Ping(context.Background()) },
		"redis":    func() error { return redisClient.Ping(context.Background()).Err() },
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		api.POST("/messages/analyze", handler.AnalyzeMessage)
		api.GET("/detections/:chat_id", handler.GetDetections)
		api.GET("/stats", handler.GetStats)
		api.GET("/rules", handler.GetRules)
	}

	// Start server
	addr := ":" + cfg.Server.Port
	logger.Info("Fraud monitor starting", zap.String("port", cfg.Server.Port))
	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
