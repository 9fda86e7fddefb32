package api

import (
	"context"
	"errors"
	"time"

	"smartlist/internal/api/handlers"
	"smartlist/internal/api/handlers/health"
	listHandler "smartlist/internal/api/handlers/lists"
	recipeHandler "smartlist/internal/api/handlers/recipe"
	"smartlist/internal/api/middleware"
	"smartlist/internal/core/ai/cache"
	"smartlist/internal/core/ai/provider"
	"smartlist/internal/core/lists"
	"smartlist/internal/core/recipe"
	"smartlist/internal/infrastructure/config"
	"smartlist/internal/infrastructure/storage"
	"smartlist/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps 路由所需的服務
type Deps struct {
	Recipes   *recipe.Service
	Lists     *lists.Service
	Store     storage.Store
	Generator provider.Generator
	Cache     *cache.Manager
}

// Router HTTP 引擎與需要關閉的資源
type Router struct {
	*gin.Engine
	dedup *middleware.Deduplicator
}

// Close 停止中間件的背景協程
func (r *Router) Close() {
	if r.dedup != nil {
		r.dedup.Close()
	}
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Deps) (*Router, error) {
	if deps.Recipes == nil || deps.Lists == nil || deps.Store == nil {
		return nil, errors.New("router requires recipe, list and storage services")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 註冊基礎中間件
	engine.Use(middleware.Recovery())
	engine.Use(requestid.New())
	engine.Use(middleware.Logger())

	// CORS 設置
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	// 請求體大小限制
	if cfg.Server.MaxBodyBytes > 0 {
		engine.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}

	// 請求超時
	if cfg.Server.RequestTimeout > 0 {
		engine.Use(requestTimeout(cfg.Server.RequestTimeout))
	}

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, deps.Store, deps.Generator, deps.Cache)
	engine.GET("/health", healthHandler.HealthCheck)
	engine.GET("/ready", healthHandler.ReadinessCheck)
	engine.GET("/live", healthHandler.LivenessCheck)

	r := &Router{Engine: engine}

	// API 路由組
	api := engine.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	{
		rh := recipeHandler.NewHandler(deps.Recipes)

		recipeGroup := api.Group("/recipe")
		if cfg.DedupWindow > 0 {
			r.dedup = middleware.NewDeduplicator(cfg.DedupWindow)
			recipeGroup.Use(r.dedup.Middleware())
		}
		recipeGroup.POST("/parse", rh.HandleParse)

		usageGroup := api.Group("/usage")
		usageGroup.GET("", rh.HandleUsage)
		usageGroup.GET("/quota", rh.HandleQuota)
		usageGroup.PUT("/premium", rh.HandleSetPremium)

		lh := listHandler.NewHandler(deps.Lists)
		listGroup := api.Group("/lists")
		listGroup.GET("", lh.HandleAll)
		listGroup.POST("", lh.HandleCreate)
		listGroup.GET("/active", lh.HandleActive)
		listGroup.PUT("/active", lh.HandleSetActive)
		listGroup.GET("/:id", lh.HandleGet)
		listGroup.DELETE("/:id", lh.HandleDelete)
		listGroup.POST("/:id/items", lh.HandleAddItems)
		listGroup.POST("/:id/items/:itemID/toggle", lh.HandleToggleItem)
		listGroup.DELETE("/:id/items/:itemID", lh.HandleDeleteItem)
	}

	engine.NoRoute(func(c *gin.Context) {
		handlers.RespondError(c, common.ErrNotFound)
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("dedup_window", cfg.DedupWindow),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return r, nil
}

// requestTimeout 為每個請求設置超時
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			common.LogWarn("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
		}
	}
}
