package health

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"smartlist/internal/core/ai/cache"
	"smartlist/internal/core/ai/provider"
	"smartlist/internal/infrastructure/config"
	"smartlist/internal/infrastructure/storage"
	"smartlist/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// readinessKey 就緒檢查時讀取的鍵，不存在也視為正常
const readinessKey = "__readiness_probe"

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Model     string                 `json:"model"`
	Storage   string                 `json:"storage"`
	Cache     cache.Stats            `json:"cache"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// Handler 健康檢查處理器
type Handler struct {
	cfg       *config.Config
	store     storage.Store
	generator provider.Generator
	cache     *cache.Manager
}

// NewHandler 創建健康檢查處理器
func NewHandler(cfg *config.Config, store storage.Store, generator provider.Generator, cacheManager *cache.Manager) *Handler {
	return &Handler{cfg: cfg, store: store, generator: generator, cache: cacheManager}
}

// HealthCheck 健康檢查
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	model := "disabled"
	if h.generator != nil {
		model = h.generator.Model()
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Model:     model,
		Storage:   h.cfg.Storage.Driver,
		Cache:     h.cache.GetStats(),
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：存儲可讀
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.store.Get(ctx, readinessKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		common.LogWarn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
