package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code     string `json:"code"`                // 錯誤代碼
	Message  string `json:"message"`             // 錯誤信息
	UsesLeft *int   `json:"uses_left,omitempty"` // 剩餘免費次數（僅配額錯誤）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// ValidationError 表示輸入驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// QuotaExceededError 免費次數用盡
type QuotaExceededError struct {
	UsesLeft int   // 剩餘次數，用於升級提示
	Err      error // 導致拒絕的存儲錯誤（可為 nil）
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("Free recipe parsing limit reached. You have %d uses remaining. Upgrade to Premium for unlimited access!", e.UsesLeft)
}

func (e *QuotaExceededError) Unwrap() error {
	return e.Err
}

// IsQuotaExceeded 檢查是否為配額錯誤，並回傳剩餘次數
func IsQuotaExceeded(err error) (int, bool) {
	var target *QuotaExceededError
	if errors.As(err, &target) {
		return target.UsesLeft, true
	}
	return 0, false
}

// 預定義錯誤代碼
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"     // 400
	ErrCodeQuotaExceeded      = "QUOTA_EXCEEDED"      // 402
	ErrCodeNotFound           = "NOT_FOUND"           // 404
	ErrCodeRequestTimeout     = "REQUEST_TIMEOUT"     // 408
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"   // 429
	ErrCodeClientClosed       = "CLIENT_CLOSED"       // 499
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
)

// ErrNotFound 路由不存在
var ErrNotFound = NewError(ErrCodeNotFound, "resource not found", http.StatusNotFound, nil)
