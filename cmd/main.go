package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Jyothika2406/cricket-app/internal/auth"
	"github.com/Jyothika2406/cricket-app/internal/cache"
	"github.com/Jyothika2406/cricket-app/internal/config"
	"github.com/Jyothika2406/cricket-app/internal/database"
	"github.com/Jyothika2406/cricket-app/internal/events"
	"github.com/Jyothika2406/cricket-app/internal/handlers"
	"github.com/Jyothika2406/cricket-app/internal/jobs"
	"github.com/Jyothika2406/cricket-app/internal/logger"
	"github.com/Jyothika2406/cricket-app/internal/metrics"
	"github.com/Jyothika2406/cricket-app/internal/middleware"
	"github.com/Jyothika2406/cricket-app/internal/repository"
	"github.com/Jyothika2406/cricket-app/internal/services"
	"github.com/Jyothika2406/cricket-app/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.New("cricket-api", cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	if err := utils.RegisterValidators(); err != nil {
		lg.Fatal("failed to register validators", zap.Error(err))
	}

	// Connect to database
	db, err := database.Connect(cfg.GetDSN(), lg)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.AutoMigrate(db, lg); err != nil {
		lg.Fatal("failed to run migrations", zap.Error(err))
	}

	// Match list cache is optional
	var matchCache services.MatchCache
	if cfg.Redis.Addr != "" {
		rdb, err := cache.ConnectRedis(cfg.Redis.Addr)
		if err != nil {
			lg.Warn("redis unavailable, match cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			matchCache = cache.NewMatchCache(rdb, cfg.Redis.MatchTTL)
			lg.Info("match cache enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// Event publishing is optional
	var publisher events.Publisher = events.NopPublisher{}
	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		kp := events.NewKafkaPublisher(brokers, events.Topics{
			Bets:         cfg.Kafka.BetsTopic,
			Settlements:  cfg.Kafka.SettlementsTopic,
			Transactions: cfg.Kafka.TransactionsTopic,
		})
		defer func() {
			if err := kp.Close(); err != nil {
				lg.Warn("failed to close kafka writers", zap.Error(err))
			}
		}()
		publisher = kp
		lg.Info("kafka publishing enabled", zap.Strings("brokers", brokers))
	}

	// Initialize repository and services
	repo := repository.NewRepository(db)
	adminService := services.NewAdminService(db, lg)
	settingsService := services.NewSettingsService(db, adminService, cfg.Betting)
	marketService := services.NewMarketService(db, adminService, matchCache, lg)
	betService := services.NewBetService(repo, marketService, settingsService, publisher, lg)
	settlementService := services.NewSettlementService(repo, marketService, adminService, publisher, lg)
	txService := services.NewTransactionService(repo, adminService, settingsService, cfg.Betting, publisher, lg)
	kycService := services.NewKYCService(db, adminService, lg)
	authService := services.NewAuthService(db, lg)
	userService := services.NewUserService(repo)

	// Background jobs
	statusJob := jobs.NewMarketStatusJob(marketService, cfg.Jobs.SweepInterval, lg)
	go statusJob.Start()
	defer statusJob.Stop()
	reconciler := jobs.NewSettlementReconciler(settlementService, cfg.Jobs.ReconcileInterval, lg)
	go reconciler.Start()
	defer reconciler.Stop()

	betLimiter := middleware.NewRateLimiter(2, 10)
	go betLimiter.Cleanup(ctx)

	healthFn := func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
	metricsSrv := metrics.StartMetricsServer(cfg.Metrics.Port, healthFn)

	// Set up Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(lg))

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if cfg.Server.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.Server.FrontendURL)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := healthFn(c.Request.Context()); err != nil {
			status = "degraded"
		}
		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handlers.SetupRoutes(router, handlers.Handlers{
		Auth:        handlers.NewAuthHandler(authService, userService),
		User:        handlers.NewUserHandler(userService, kycService),
		Match:       handlers.NewMatchHandler(marketService),
		Bet:         handlers.NewBetHandler(betService, settlementService),
		Transaction: handlers.NewTransactionHandler(txService, settingsService),
		Admin:       handlers.NewAdminHandler(adminService, settingsService, kycService),
	}, betLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server shutdown failed", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		lg.Error("metrics server shutdown failed", zap.Error(err))
	}
}

func requestLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			lg.Error("request", fields...)
			return
		}
		lg.Info("request", fields...)
	}
}
