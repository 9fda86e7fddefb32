package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartlist/internal/core/ai/cache"
	"smartlist/internal/core/ai/provider"
	"smartlist/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const promptTemplate = `Extract ingredients from this recipe and return them as a JSON array. Each ingredient should be a string with quantity and name. Recipe: "%s"

Example format: ["2 lbs chicken breast", "1/4 cup olive oil", "3 cloves garlic", "Salt and pepper to taste"]

Only return the JSON array, nothing else:`

// BuildPrompt 組合送給模型的提示詞
func BuildPrompt(recipeText string) string {
	return fmt.Sprintf(promptTemplate, recipeText)
}

// AIExtractor 以文字生成模型抽取食材，任何失敗都退回 Local
type AIExtractor struct {
	generator provider.Generator
	cache     *cache.Manager
	timeout   time.Duration
	group     singleflight.Group
}

// NewAIExtractor 創建 AI 抽取器；cache 可為 nil
func NewAIExtractor(generator provider.Generator, cacheManager *cache.Manager, timeout time.Duration) *AIExtractor {
	if generator == nil {
		generator = provider.Disabled{}
	}
	return &AIExtractor{
		generator: generator,
		cache:     cacheManager,
		timeout:   timeout,
	}
}

// Extract 回傳非空的食材列表。唯一的錯誤是呼叫者 context 被取消。
func (e *AIExtractor) Extract(ctx context.Context, recipeText string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if items, ok := e.cache.Get(recipeText); ok {
		return items, nil
	}

	ch := e.group.DoChan(recipeText, func() (interface{}, error) {
		return e.generate(context.WithoutCancel(ctx), recipeText)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			common.LogWarn("AI 抽取失敗，改用本地規則",
				zap.Error(res.Err),
				zap.String("model", e.generator.Model()),
			)
			return Local(recipeText), nil
		}
		items := res.Val.([]string)
		return append([]string(nil), items...), nil
	}
}

// generate 呼叫模型並解析回覆，成功結果寫入快取
func (e *AIExtractor) generate(ctx context.Context, recipeText string) ([]string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	reply, err := e.generator.Generate(ctx, BuildPrompt(recipeText))
	if err != nil {
		return nil, classify(err)
	}
	if strings.TrimSpace(reply) == "" {
		return nil, &ExtractionError{Kind: KindNoText}
	}

	items, err := ParseReply(reply)
	if err != nil {
		return nil, err
	}

	e.cache.Set(recipeText, items)
	return items, nil
}

// classify 將生成器錯誤轉為 ExtractionError
func classify(err error) error {
	var statusErr *provider.StatusError
	switch {
	case errors.Is(err, provider.ErrDisabled):
		return &ExtractionError{Kind: KindDisabled, Err: err}
	case errors.Is(err, provider.ErrNoText):
		return &ExtractionError{Kind: KindNoText, Err: err}
	case errors.As(err, &statusErr):
		return &ExtractionError{Kind: KindStatus, Err: err}
	default:
		return &ExtractionError{Kind: KindTransport, Err: err}
	}
}
