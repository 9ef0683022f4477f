package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"minutri/internal/aiclient"
	"minutri/internal/config"
	"minutri/internal/content"
	"minutri/internal/handler"
	"minutri/internal/httpserver"
	"minutri/internal/progression"
	"minutri/internal/service"
	"minutri/internal/store"
	"minutri/pkg/db"
	"minutri/pkg/logger"
	"minutri/pkg/mq"
	redisclient "minutri/pkg/redis"
	"minutri/pkg/util"
)

const (
	// guardSlack covers store reads and writes around a generation run.
	guardSlack      = 2 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logger.NewLogger(cfg.Logging.Development)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httpserver.ReadinessCheck{}

	// Store backend
	var (
		st  store.RoadmapStore
		rdb *goredis.Client
	)
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := db.NewConnection(ctx, cfg.DB, logger)
		if err != nil {
			logger.Fatal("DB initialization failed", zap.Error(err))
		}
		defer pool.Close()
		if err := store.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("DB schema setup failed", zap.Error(err))
		}
		st = store.NewPostgresStore(pool, logger)
		checks["postgres"] = pool.Ping
	case "redis":
		rdb = redisclient.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := redisclient.Ping(ctx, rdb); err != nil {
			logger.Fatal("Redis initialization failed", zap.Error(err))
		}
		st = store.NewRedisStore(rdb, logger)
		checks["redis"] = func(ctx context.Context) error { return redisclient.Ping(ctx, rdb) }
	default:
		st = store.NewMemoryStore(logger)
	}

	// AI capabilities
	menu, text := aiCapabilities(ctx, cfg, logger)
	guarded := aiclient.NewGuarded(menu, text, aiclient.GuardConfig{
		Timeout: cfg.AI.Timeout(),
		Breaker: cfg.BreakerConfig(),
	}, logger)
	pipeline := content.NewPipeline(guarded.Menu(), guarded.Text(), content.Options{CallTimeout: cfg.AI.Timeout()}, logger)

	// Generation guard, held for the longest run the pipeline can take
	var guard service.GenerationGuard = util.NewLocalDeduper()
	if rdb != nil {
		guard = util.NewDeduper(rdb, pipeline.MaxDuration()+guardSlack, logger)
	}

	// Module lifecycle events
	var events progression.EventPublisher
	if cfg.MQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			logger.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()
		events = publisher
		checks["rabbitmq"] = publisher.Ready
	}

	svc := service.NewRoadmapService(st, pipeline, guard, events, logger)
	roadmapHandler := handler.NewRoadmapHandler(svc, logger)
	router := httpserver.NewRouter(roadmapHandler, cfg.JWT.Secret, checks, logger)

	server := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting MiNutri roadmap server",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Backend),
			zap.String("ai_provider", cfg.AI.Provider),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server start failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	// let in-flight content generation finish before the store closes
	done := make(chan struct{})
	go func() {
		svc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("content generation still running at shutdown")
	}
}

// aiCapabilities builds the raw menu and text generators for the configured
// provider. Either may be nil, in which case the pipeline uses fallbacks.
func aiCapabilities(ctx context.Context, cfg *config.Config, logger *zap.Logger) (content.MenuGenerator, content.TextGenerator) {
	var genaiClient *aiclient.GenAIClient
	if cfg.AI.APIKey != "" && cfg.AI.Provider != "none" {
		c, err := aiclient.NewGenAIClient(ctx, cfg.AI.APIKey, cfg.AI.Model, logger)
		if err != nil {
			logger.Error("GenAI client unavailable, using fallback content", zap.Error(err))
		} else {
			genaiClient = c
		}
	}

	switch cfg.AI.Provider {
	case "genai":
		if genaiClient == nil {
			return nil, nil
		}
		return genaiClient, genaiClient
	case "menu_service":
		menu := aiclient.NewMenuServiceClient(cfg.AI.MenuServiceURL, cfg.AI.Timeout())
		if genaiClient == nil {
			return menu, nil
		}
		return menu, genaiClient
	default:
		logger.Info("AI provider disabled, all content uses fallbacks")
		return nil, nil
	}
}
