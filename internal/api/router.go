package api

import (
	"context"
	"net/http"
	"time"

	"meal-planner/internal/api/handlers/health"
	recipeHandler "meal-planner/internal/api/handlers/recipe"
	"meal-planner/internal/api/middleware"
	recipeService "meal-planner/internal/core/recipe"
	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/infrastructure/monitoring"
	"meal-planner/internal/infrastructure/persistence"
	"meal-planner/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultRequestTimeout = 120 * time.Second

// Dependencies 路由需要的服務
type Dependencies struct {
	Importer *recipeService.Importer
	Scaler   *recipeService.Scaler
	Store    persistence.Store
	AI       health.AIStatus
	Metrics  *monitoring.Metrics
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger(deps.Metrics))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	router.Use(middleware.BodySizeLimit(maxBody))
	router.Use(requestTimeout(cfg.Server.RequestTimeout))

	healthHandler := health.NewHandler(cfg.App.Version, deps.Store, deps.AI)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	h := recipeHandler.NewHandler(deps.Importer, deps.Scaler, deps.Store, deps.Metrics)
	mutate := middleware.RequireMutate()

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.Auth))
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.NewDeduplicator(cfg.DedupWindow).Middleware())
	{
		recipes := api.Group("/recipes")
		{
			recipes.POST("/import/url", mutate, h.HandleImportURL)
			recipes.POST("/import/text", mutate, h.HandleImportText)
			recipes.GET("", h.HandleListRecipes)
			recipes.GET("/:id", h.HandleGetRecipe)
			recipes.PUT("/:id", mutate, h.HandleReplaceRecipe)
			recipes.DELETE("/:id", mutate, h.HandleDeleteRecipe)
			recipes.POST("/:id/scale", mutate, h.HandleScaleRecipe)
		}

		meals := api.Group("/meals")
		{
			meals.POST("", mutate, h.HandleComposeMeal)
			meals.GET("", h.HandleListMeals)
			meals.GET("/:id", h.HandleGetMeal)
			meals.PUT("/:id", mutate, h.HandleReplaceMeal)
			meals.DELETE("/:id", mutate, h.HandleDeleteMeal)
			meals.POST("/:id/scale", mutate, h.HandleScaleMeal)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Bool("rate_limit_enabled", cfg.RateLimit.Enabled),
		zap.Int64("max_body_size", maxBody),
	)

	return router
}

// requestTimeout 為每個請求設定逾時；逾時且尚未回應時回 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeGatewayTimeout,
				Message: "Request timeout",
			})
		}
	}
}
