package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smartlist/internal/core/ai/provider"
	"smartlist/internal/infrastructure/config"
	"smartlist/internal/pkg/common"

	"google.golang.org/genai"
)

// SDKClient 透過 google.golang.org/genai 呼叫 Gemini
type SDKClient struct {
	client *genai.Client
	model  string
}

// NewSDKClient 創建 SDK 客戶端
func NewSDKClient(ctx context.Context, cfg config.GeminiConfig) (*SDKClient, error) {
	return newSDKClient(ctx, cfg, genai.HTTPOptions{})
}

func newSDKClient(ctx context.Context, cfg config.GeminiConfig, httpOptions genai.HTTPOptions) (*SDKClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &SDKClient{client: client, model: cfg.Model}, nil
}

// Generate 實現 provider.Generator 介面
func (c *SDKClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	common.LogAICall(c.model, time.Since(start), err)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code != 0 {
			return "", &provider.StatusError{StatusCode: apiErr.Code, Body: apiErr.Message}
		}
		return "", fmt.Errorf("genai generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", provider.ErrNoText
	}
	return text, nil
}

// Model 實現 provider.Generator 介面
func (c *SDKClient) Model() string {
	return c.model
}

// Close SDK 客戶端無需釋放資源
func (c *SDKClient) Close() error {
	return nil
}
