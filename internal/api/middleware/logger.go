package middleware

import (
	"net/http"
	"time"

	"smartlist/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 處理器寫入、存取日誌讀取的 context 鍵
const (
	keyItemCount = "smartlist.item_count"
	keyUsesLeft  = "smartlist.uses_left"
	keyListID    = "smartlist.list_id"
)

// AnnotateParse 記錄本次解析產生的項目數與剩餘免費次數
func AnnotateParse(c *gin.Context, items, usesLeft int) {
	c.Set(keyItemCount, items)
	c.Set(keyUsesLeft, usesLeft)
}

// AnnotateList 記錄本次操作的清單
func AnnotateList(c *gin.Context, listID string) {
	c.Set(keyListID, listID)
}

// Logger 存取日誌中間件；路由以模板記錄，清單 ID 另存欄位
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.Int("bytes", c.Writer.Size()),
			zap.String("request_id", requestid.Get(c)),
		}
		if v, ok := c.Get(keyItemCount); ok {
			fields = append(fields, zap.Any("items", v))
		}
		if v, ok := c.Get(keyUsesLeft); ok {
			fields = append(fields, zap.Any("uses_left", v))
		}
		if v, ok := c.Get(keyListID); ok {
			fields = append(fields, zap.Any("list_id", v))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			common.LogError("伺服器錯誤", fields...)
		case status == http.StatusPaymentRequired:
			common.LogInfo("免費次數已用完", fields...)
		case status == http.StatusTooManyRequests:
			common.LogInfo("請求被限流或重複", fields...)
		case status >= http.StatusBadRequest:
			common.LogWarn("用戶端錯誤", fields...)
		default:
			common.LogInfo("請求完成", fields...)
		}
	}
}

// Recovery 恢復中間件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				common.LogError("Panic recovered",
					zap.Any("error", err),
					zap.String("route", c.FullPath()),
					zap.String("method", c.Request.Method),
					zap.String("request_id", requestid.Get(c)),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, common.ErrorResponse{
					Code:    common.ErrCodeInternalError,
					Message: "internal server error",
				})
			}
		}()

		c.Next()
	}
}
