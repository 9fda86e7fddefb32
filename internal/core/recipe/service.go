package recipe

import (
	"context"
	"strings"
	"time"

	"smartlist/internal/core/grocery"
	"smartlist/internal/core/usage"
	"smartlist/internal/pkg/common"

	"go.uber.org/zap"
)

// Extractor 食材抽取器介面
type Extractor interface {
	Extract(ctx context.Context, recipeText string) ([]string, error)
}

// Service 食譜解析服務：配額檢查、抽取、分類、記錄使用
type Service struct {
	meter     *usage.Meter
	extractor Extractor
	ids       *grocery.IDSource
}

// NewService 創建新的食譜服務
func NewService(meter *usage.Meter, extractor Extractor, ids *grocery.IDSource) *Service {
	if ids == nil {
		ids = grocery.NewIDSource()
	}
	return &Service{
		meter:     meter,
		extractor: extractor,
		ids:       ids,
	}
}

// ParseRecipe 將食譜文字轉為已分類的購物項目
func (s *Service) ParseRecipe(ctx context.Context, recipeText string) ([]grocery.Item, error) {
	if strings.TrimSpace(recipeText) == "" {
		return nil, common.NewValidationError("recipe text is required")
	}

	reservation, quota, err := s.meter.Reserve(ctx)
	if reservation == nil {
		common.LogInfo("Recipe parse denied", zap.Int("uses_left", quota.UsesLeft))
		return nil, &common.QuotaExceededError{UsesLeft: quota.UsesLeft, Err: err}
	}

	start := time.Now()
	ingredients, err := s.extractor.Extract(ctx, recipeText)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		reservation.Release()
		common.LogInfo("Recipe parse cancelled", zap.Error(err))
		return nil, err
	}

	items := s.buildItems(ingredients)

	// 呼叫者已拿到結果，記錄使用不受其取消影響
	if err := reservation.Commit(context.WithoutCancel(ctx)); err != nil {
		common.LogWarn("使用次數未能記錄", zap.Error(err))
	}

	common.LogInfo("Recipe parsed",
		zap.Int("items", len(items)),
		zap.Duration("duration", time.Since(start)),
		zap.Bool("premium", s.meter.IsPremium()),
	)
	return items, nil
}

// buildItems 依序建立項目，空白名稱略過
func (s *Service) buildItems(ingredients []string) []grocery.Item {
	items := make([]grocery.Item, 0, len(ingredients))
	for _, raw := range ingredients {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		items = append(items, grocery.Item{
			ID:         s.ids.Next(),
			Name:       name,
			Completed:  false,
			Category:   grocery.Categorize(name),
			FromRecipe: true,
		})
	}
	return items
}

// Stats 使用量統計
func (s *Service) Stats(ctx context.Context) usage.Stats {
	return s.meter.Stats(ctx)
}

// CheckQuota 檢查配額
func (s *Service) CheckQuota(ctx context.Context) usage.QuotaStatus {
	return s.meter.CheckQuota(ctx)
}

// SetPremium 設定付費狀態
func (s *Service) SetPremium(premium bool) {
	s.meter.SetPremium(premium)
}
