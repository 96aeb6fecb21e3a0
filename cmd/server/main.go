package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sustainability-council/internal/auth"
	"sustainability-council/internal/config"
	"sustainability-council/internal/handler"
	"sustainability-council/internal/messaging"
	"sustainability-council/internal/service"
	"sustainability-council/internal/web"
	sharedLogger "sustainability-council/shared/logger"
	sharedMiddleware "sustainability-council/shared/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Стандартный log - только до инициализации zap
	log.Println("Starting Sustainability Council...")

	// .env еще не прочитан, поэтому уровень берется из окружения процесса
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    os.Getenv("LOG_LEVEL"),
		Encoding: os.Getenv("LOG_ENCODING"),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig(".env", logger)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	keys, err := auth.DeriveKeys(cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("derive session keys: %w", err)
	}

	tokens := service.NewTiktokenCounter(cfg.AIModel)
	aiClient, err := service.NewAIClient(ctx, cfg, tokens, logger)
	if err != nil {
		return fmt.Errorf("create AI client: %w", err)
	}

	store, closeStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, closePublisher := newUsagePublisher(ctx, cfg, logger)
	defer closePublisher()

	authenticator, err := auth.NewAuthenticator(store, keys.JWT, cfg.SessionTTL, logger)
	if err != nil {
		return fmt.Errorf("create authenticator: %w", err)
	}
	councilService := service.NewCouncilService(cfg, aiClient, publisher, tokens, logger)

	renderer, err := web.NewTemplateRenderer(cfg.TemplatesDir, logger)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	h := handler.NewCouncilHandler(authenticator, councilService, keys.Flash, cfg, logger)
	router := newRouter(cfg, logger, renderer, h)

	// WriteTimeout не задан: вызов модели и WebSocket чата длятся дольше обычного запроса
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server listen error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newRouter(cfg *config.Config, logger *zap.Logger, renderer *web.TemplateRenderer, h *handler.CouncilHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(handler.CustomErrorMiddleware(logger))

	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "HX-Request", "HX-Target", "HX-Current-URL"}
		corsConfig.AllowCredentials = true
		corsConfig.MaxAge = 12 * time.Hour
		router.Use(cors.New(corsConfig))
	}

	router.HTMLRender = renderer

	// Метрики подключаются до маршрутов, иначе middleware не попадет в их цепочки
	p := ginprometheus.NewPrometheus("gin")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		if path := c.FullPath(); path != "" {
			return path
		}
		return "unmatched"
	}
	p.Use(router)

	h.RegisterRoutes(router)
	return router
}

// newSessionStore выбирает Redis при заданном REDIS_ADDR, иначе память процесса.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (auth.SessionStore, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, sessions are kept in memory")
		return auth.NewMemorySessionStore(), func() {}, nil
	}
	client, err := setupRedis(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close Redis client", zap.Error(err))
		}
	}
	return auth.NewRedisSessionStore(client, logger), closeFn, nil
}

// setupRedis подключается к Redis с повторными попытками.
func setupRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	const (
		maxRetries = 5
		retryDelay = 2 * time.Second
	)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Info("Connected to Redis", zap.String("address", opts.Addr), zap.Int("db", opts.DB), zap.Int("attempt", attempt))
			return client, nil
		}
		_ = client.Close()
		lastErr = err
		logger.Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// newUsagePublisher подключается к RabbitMQ при заданном RABBITMQ_URL.
// Недоступный брокер не мешает запуску: события просто не отправляются.
func newUsagePublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (messaging.UsageEventPublisher, func()) {
	noop := messaging.NewNoopUsagePublisher()
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, usage events are disabled")
		return noop, func() {}
	}

	conn, err := messaging.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, 5, 3*time.Second, logger)
	if err != nil {
		logger.Error("RabbitMQ unavailable, usage events are disabled", zap.Error(err))
		return noop, func() {}
	}
	publisher, err := messaging.NewRabbitMQUsagePublisher(conn, cfg.EventsQueueName, logger)
	if err != nil {
		logger.Error("Failed to create usage event publisher", zap.Error(err))
		_ = conn.Close()
		return noop, func() {}
	}
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close usage event publisher", zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}
}
