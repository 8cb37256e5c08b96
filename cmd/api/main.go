package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-planner/internal/api"
	"meal-planner/internal/core/ai/openrouter"
	"meal-planner/internal/core/ai/provider"
	"meal-planner/internal/core/ai/queue"
	"meal-planner/internal/core/ai/service"
	"meal-planner/internal/core/image"
	"meal-planner/internal/core/page"
	"meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/cache"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/infrastructure/persistence"
	"meal-planner/internal/infrastructure/persistence/memory"
	"meal-planner/internal/infrastructure/persistence/mongo"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel, cfg.LogMode, cfg.LogDir); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("openrouter_api_key", common.MaskSecret(cfg.OpenRouter.APIKey)),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
		zap.String("fetch_renderer", cfg.Fetch.Renderer),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	if cfg.OpenRouter.APIKey == "" {
		common.LogWarn("OPENROUTER_API_KEY 未設定，匯入與換算將無法使用")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewMetrics()

	// AI 服務：OpenRouter → 隊列 → 斷路器
	client := openrouter.NewClient(cfg.OpenRouter)
	defer client.Close()

	queueManager := queue.NewManager(cfg.Queue)
	defer queueManager.Close()

	aiService := service.NewService(client, queueManager, cfg.Breaker, metrics)

	// 頁面抓取與快取
	fetcher, err := page.NewFetcher(cfg.Fetch)
	if err != nil {
		common.LogFatal("Failed to initialize page fetcher", zap.Error(err))
	}

	pageCache, err := cache.NewStore(cfg.Cache, cfg.Redis)
	if err != nil {
		common.LogFatal("Failed to initialize page cache", zap.Error(err))
	}
	if pageCache != nil {
		defer pageCache.Close()
	}

	importer := recipe.NewImporter(
		aiService,
		page.NewCachedFetcher(fetcher, pageCache, metrics),
		image.NewService(cfg.ImageSearch),
		recipe.ImporterConfig{
			FetchTimeout:    cfg.Fetch.Timeout,
			MaxContentChars: cfg.Fetch.MaxContentChars,
			Completion: provider.Options{
				Model:       cfg.OpenRouter.Model,
				Temperature: cfg.OpenRouter.Temperature,
				MaxTokens:   cfg.OpenRouter.ExtractMaxTokens,
			},
		},
		metrics,
	)

	scaler := recipe.NewScaler(aiService, provider.Options{
		Model:       cfg.OpenRouter.Model,
		Temperature: cfg.OpenRouter.Temperature,
		MaxTokens:   cfg.OpenRouter.ScaleMaxTokens,
	}, metrics)

	store, err := openStore(ctx, cfg.Mongo)
	if err != nil {
		common.LogFatal("Failed to initialize store", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			common.LogError("Failed to close store", zap.Error(err))
		}
	}()

	go logChanges(ctx, store)

	router := api.SetupRouter(cfg, api.Dependencies{
		Importer: importer,
		Scaler:   scaler,
		Store:    store,
		AI:       aiService,
		Metrics:  metrics,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogError("Failed to start server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	common.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

// openStore 有設定 MongoDB 時使用，否則使用記憶體儲存
func openStore(ctx context.Context, cfg config.MongoConfig) (persistence.Store, error) {
	if cfg.URI == "" {
		common.LogWarn("MONGO_URI 未設定，使用記憶體儲存，重新啟動後資料會遺失")
		return memory.NewStore(), nil
	}
	return mongo.NewStore(ctx, cfg)
}

// logChanges 記錄儲存層的變更事件；Watch 不可用時（例如非 replica set）只記錄一次警告
func logChanges(ctx context.Context, store persistence.Store) {
	events, err := store.Watch(ctx)
	if err != nil {
		common.LogWarn("Change feed unavailable", zap.Error(err))
		return
	}
	for ev := range events {
		common.LogInfo("資料變更",
			zap.String("collection", ev.Collection),
			zap.String("op", ev.Op),
			zap.String("id", ev.ID),
		)
	}
}
