package gemini

import (
	"context"
	"fmt"
	"time"

	"smartlist/internal/core/ai/provider"
	"smartlist/internal/infrastructure/config"
	"smartlist/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Part 內容片段
type Part struct {
	Text string `json:"text,omitempty"`
}

// Content 一則內容
type Content struct {
	Parts []Part `json:"parts"`
}

// Request generateContent 請求
type Request struct {
	Contents []Content `json:"contents"`
}

// Candidate 候選回應
type Candidate struct {
	Content *Content `json:"content,omitempty"`
}

// Response generateContent 回應，任何層級都可能缺少
type Response struct {
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Text 取出第一個候選的第一段文字
func (r *Response) Text() (string, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return "", false
	}
	c := r.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 || c.Parts[0].Text == "" {
		return "", false
	}
	return c.Parts[0].Text, true
}

// Client 透過 REST 呼叫 Gemini generateContent
type Client struct {
	client *resty.Client
	apiKey string
	model  string
}

// NewClient 創建 REST 客戶端
func NewClient(cfg config.GeminiConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		client: client,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

// Generate 實現 provider.Generator 介面
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := &Request{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetPathParam("model", c.model).
		SetBody(req).
		Post("/models/{model}:generateContent")
	if err != nil {
		common.LogAICall(c.model, time.Since(start), err)
		return "", fmt.Errorf("failed to send request to Gemini: %w", err)
	}

	if !resp.IsSuccess() {
		statusErr := &provider.StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
		common.LogAICall(c.model, time.Since(start), statusErr)
		return "", statusErr
	}
	common.LogAICall(c.model, time.Since(start), nil)

	var result Response
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		common.LogDebug("Gemini 回應無法解析", zap.Error(err))
		return "", provider.ErrNoText
	}

	text, ok := result.Text()
	if !ok {
		common.LogDebug("Gemini 回應缺少文字", zap.Int("candidates", len(result.Candidates)))
		return "", provider.ErrNoText
	}
	return text, nil
}

// Model 實現 provider.Generator 介面
func (c *Client) Model() string {
	return c.model
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

// New 依設定選擇傳輸方式；AI 不可用時回傳 provider.Disabled
func New(ctx context.Context, cfg *config.Config) (provider.Generator, error) {
	if !cfg.AIAvailable() {
		common.LogInfo("AI extraction disabled, using local heuristics")
		return provider.Disabled{}, nil
	}

	common.LogInfo("Gemini generator initialized",
		zap.String("transport", cfg.Gemini.Transport),
		zap.String("model", cfg.Gemini.Model),
		zap.String("key", common.MaskAPIKey(cfg.Gemini.APIKey)),
	)

	switch cfg.Gemini.Transport {
	case "sdk":
		sdk, err := NewSDKClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return sdk, nil
	default:
		return NewClient(cfg.Gemini), nil
	}
}
