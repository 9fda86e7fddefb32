package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrDisabled 未設定 API 金鑰或已停用 AI 功能
var ErrDisabled = errors.New("text generation disabled")

// ErrNoText 回應中沒有候選文字
var ErrNoText = errors.New("response has no text")

// StatusError 非 2xx 的 HTTP 回應
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation endpoint returned status %d", e.StatusCode)
}

// Generator 定義文字生成提供者介面
type Generator interface {
	// Generate 送出提示詞並回傳模型輸出的原始文字
	Generate(ctx context.Context, prompt string) (string, error)

	// Model 當前使用的模型名稱
	Model() string

	// Close 關閉提供者連接
	Close() error
}

// Disabled 永遠回傳 ErrDisabled 的生成器
type Disabled struct{}

// Generate 實現 Generator 介面
func (Disabled) Generate(ctx context.Context, prompt string) (string, error) {
	return "", ErrDisabled
}

// Model 實現 Generator 介面
func (Disabled) Model() string { return "disabled" }

// Close 實現 Generator 介面
func (Disabled) Close() error { return nil }
