package app

import (
	"context"
	"fmt"

	"smartlist/internal/core/ai/cache"
	"smartlist/internal/core/ai/gemini"
	"smartlist/internal/core/ai/provider"
	"smartlist/internal/core/extract"
	"smartlist/internal/core/grocery"
	"smartlist/internal/core/lists"
	"smartlist/internal/core/recipe"
	"smartlist/internal/core/usage"
	"smartlist/internal/infrastructure/config"
	"smartlist/internal/infrastructure/storage"
	"smartlist/internal/pkg/common"

	"go.uber.org/zap"
)

// App 組裝完成的服務集合，供 HTTP 服務與 CLI 共用
type App struct {
	Config    *config.Config
	Store     storage.Store
	Generator provider.Generator
	Cache     *cache.Manager
	Meter     *usage.Meter
	Recipes   *recipe.Service
	Lists     *lists.Service
}

// New 依設定建立存儲、AI 客戶端、快取與各服務
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	gen, err := gemini.New(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("init gemini: %w", err)
	}

	common.LogInfo("載入設定",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("model", gen.Model()),
		zap.String("key", common.MaskAPIKey(cfg.Gemini.APIKey)),
		zap.Int("max_free_uses", cfg.Usage.MaxFreeUses),
	)

	cacheManager := cache.NewManager(cfg.Cache)
	ids := grocery.NewIDSource()
	meter := usage.NewMeter(store, cfg.Usage)
	extractor := extract.NewAIExtractor(gen, cacheManager, cfg.Gemini.Timeout)

	return &App{
		Config:    cfg,
		Store:     store,
		Generator: gen,
		Cache:     cacheManager,
		Meter:     meter,
		Recipes:   recipe.NewService(meter, extractor, ids),
		Lists:     lists.NewService(store, ids),
	}, nil
}

// Close 依建立的反向順序釋放資源
func (a *App) Close() {
	if err := a.Cache.Close(); err != nil {
		common.LogWarn("關閉快取失敗", zap.Error(err))
	}
	if err := a.Generator.Close(); err != nil {
		common.LogWarn("關閉 AI 客戶端失敗", zap.Error(err))
	}
	if err := a.Store.Close(); err != nil {
		common.LogWarn("關閉存儲失敗", zap.Error(err))
	}
}
