package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yashrajoria/bistro-backend/cache"
	"github.com/yashrajoria/bistro-backend/common/auth"
	apperrors "github.com/yashrajoria/bistro-backend/common/errors"
	"github.com/yashrajoria/bistro-backend/common/logger"
	commonmw "github.com/yashrajoria/bistro-backend/common/middleware"
	"github.com/yashrajoria/bistro-backend/controllers"
	"github.com/yashrajoria/bistro-backend/database"
	aws_pkg "github.com/yashrajoria/bistro-backend/pkg/aws"
	"github.com/yashrajoria/bistro-backend/repository"
	"github.com/yashrajoria/bistro-backend/repository/memory"
	"github.com/yashrajoria/bistro-backend/routes"
	"github.com/yashrajoria/bistro-backend/services"
)

const serviceName = "bistro"

type stores struct {
	users    repository.UserRepository
	menu     repository.MenuRepository
	reviews  repository.ReviewRepository
	carts    repository.CartRepository
	payments repository.PaymentRepository
	ping     controllers.Pinger
	mongo    *mongo.Client
}

func main() {
	// Load .env file (optional, falls back to system env)
	_ = godotenv.Load()

	log := logger.Initialize(os.Getenv("APP_ENV"))
	zap.ReplaceGlobals(log)

	// Money leaves the API as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := LoadConfig()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	if cfg.LogsEnabled {
		if shipper, err := newLogShipper(startCtx, cfg); err != nil {
			zap.L().Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
		} else {
			log = logger.InitializeWithWriter(cfg.Env, shipper)
			zap.ReplaceGlobals(log)
		}
	}
	defer func() {
		_ = log.Sync()
		_ = logger.Flush()
	}()

	st, err := openStores(startCtx, cfg)
	if err != nil {
		cancelStart()
		zap.L().Fatal("Failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(startCtx, cfg.RedisURL)
		if err != nil {
			zap.L().Warn("Redis unavailable, menu cache disabled", zap.Error(err))
			redisClient = nil
		}
	}
	menuCache := cache.NewMenuCache(redisClient, cfg.MenuCacheTTL)

	var (
		publisher     aws_pkg.SNSPublisher
		metricsClient *aws_pkg.MetricsClient
		recorder      aws_pkg.MetricsRecorder
	)
	if cfg.PaymentTopicArn != "" || cfg.MetricsEnabled {
		awsCfg, err := aws_pkg.LoadAWSConfig(startCtx)
		if err != nil {
			zap.L().Warn("AWS config unavailable, events and metrics disabled", zap.Error(err))
		} else {
			if cfg.PaymentTopicArn != "" {
				publisher = aws_pkg.NewSNSClient(awsCfg)
			}
			metricsClient = aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)
			if metricsClient.IsEnabled() {
				recorder = metricsClient
			}
		}
	}
	cancelStart()

	tokens := auth.NewTokenManager(cfg.AccessSecret)
	gate := services.NewAccessGate(tokens, st.users)

	authService := services.NewAuthService(tokens, st.users)
	catalogService := services.NewCatalogService(st.menu, st.reviews, menuCache, recorder)
	cartService := services.NewCartService(st.carts)
	settlementService := services.NewSettlementService(st.payments, st.carts, publisher, cfg.PaymentTopicArn, recorder)
	statsService := services.NewStatsService(st.users, st.menu, st.payments)
	gateway := services.NewStripeGateway(cfg.PaymentSecret, cfg.PaymentCurrency, cfg.WebhookSecret)

	handlers := routes.Handlers{
		Auth:     controllers.NewAuthController(authService, gate),
		Menu:     controllers.NewMenuController(catalogService),
		Carts:    controllers.NewCartController(cartService),
		Payments: controllers.NewPaymentController(gateway, settlementService),
		Stats:    controllers.NewStatsController(statsService),
		Health:   controllers.Health(st.ping),
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(log))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORS(cfg.AllowedOrigins))
	r.Use(commonmw.RateLimitMiddleware(commonmw.NewRateLimiter(rate.Limit(20), 40, 10*time.Minute)))
	r.Use(commonmw.RequestTimeout(cfg.RequestTimeout))
	r.Use(commonmw.MetricsMiddleware(metricsClient, serviceName))
	r.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(r, gate, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Bistro service starting",
			zap.String("port", cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.Bool("menu_cache", menuCache != nil),
			zap.Bool("metrics", metricsClient.IsEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for an interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down bistro service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Server forced to shutdown", zap.Error(err))
	}
	if err := database.Close(st.mongo); err != nil {
		zap.L().Error("Failed to close MongoDB", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zap.L().Error("Failed to close Redis", zap.Error(err))
		}
	}

	zap.L().Info("Bistro service stopped gracefully")
}

// openStores picks the persistence backend. The memory driver keeps the
// same contracts and is meant for local runs and demos.
func openStores(ctx context.Context, cfg *Config) (*stores, error) {
	if cfg.StoreDriver == "memory" {
		mem := memory.NewStore()
		return &stores{
			users:    mem.Users,
			menu:     mem.Menu,
			reviews:  mem.Reviews,
			carts:    mem.Carts,
			payments: mem.Payments,
		}, nil
	}

	client, db, err := database.Connect(ctx, cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureIndexes(ctx, db); err != nil {
		zap.L().Warn("Failed to ensure indexes", zap.Error(err))
	}
	return &stores{
		users:    repository.NewUserRepository(db),
		menu:     repository.NewMenuRepository(db),
		reviews:  repository.NewReviewRepository(db),
		carts:    repository.NewCartRepository(db),
		payments: repository.NewPaymentRepository(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		mongo: client,
	}, nil
}

func newLogShipper(ctx context.Context, cfg *Config) (*aws_pkg.LogShipper, error) {
	awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}
	return aws_pkg.NewLogShipper(ctx, awsCfg, cfg.LogGroup, serviceName)
}
