package middleware

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"smartlist/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deduplicator 在時間窗內拒絕相同的 POST 請求，避免重複送出消耗免費次數
type Deduplicator struct {
	window   time.Duration
	mu       sync.Mutex
	requests map[string]time.Time
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewDeduplicator 創建去重器並啟動清理協程，需呼叫 Close 停止
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	d := &Deduplicator{
		window:   window,
		requests: make(map[string]time.Time),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go d.cleanupLoop(10 * window)
	return d
}

func (d *Deduplicator) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.cleanup()
		case <-d.stop:
			return
		}
	}
}

func (d *Deduplicator) cleanup() {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.requests {
		if now.Sub(t) > d.window {
			delete(d.requests, k)
		}
	}
}

// Close 停止清理協程
func (d *Deduplicator) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// seen 記錄指紋並回傳是否在時間窗內出現過
func (d *Deduplicator) seen(fingerprint string) bool {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}

// Middleware 請求去重中間件，只處理 POST
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogWarn("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}
			bodyHash = common.HashString(string(body))
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		// 生成請求指紋
		fingerprint := c.ClientIP() + ":" + c.Request.URL.Path + ":" + bodyHash

		if d.seen(fingerprint) {
			common.LogInfo("Duplicate request rejected", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: "duplicate request",
			})
			return
		}

		c.Next()
	}
}
