package cache

import (
	"sync"
	"time"

	"smartlist/internal/infrastructure/config"
	"smartlist/internal/pkg/common"

	"go.uber.org/zap"
)

// Manager AI 食材清單快取，以食譜文字的 SHA-256 為鍵
type Manager struct {
	cfg   config.CacheConfig
	mu    sync.Mutex
	store map[string]cacheEntry
	stats Stats
	now   func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// cacheEntry 緩存條目
type cacheEntry struct {
	items       []string
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// Stats 快取統計
type Stats struct {
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// NewManager 創建新的緩存管理器；停用時回傳 nil，nil 管理器的所有方法皆為空操作
func NewManager(cfg config.CacheConfig) *Manager {
	if !cfg.Enabled || cfg.MaxSize <= 0 {
		common.LogInfo("Cache disabled")
		return nil
	}

	m := &Manager{
		cfg:   cfg,
		store: make(map[string]cacheEntry),
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	// 啟動清理過期緩存的協程
	go m.startCleanup()

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)

	return m
}

// Get 獲取緩存值
func (m *Manager) Get(recipeText string) ([]string, bool) {
	if m == nil {
		return nil, false
	}

	key := generateKey(recipeText)

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.Misses++
		common.LogCacheMiss("ingredients")
		return nil, false
	}

	now := m.now()
	if now.After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.Evictions++
		m.stats.Misses++
		common.LogDebug("快取已過期", zap.String("鍵", key))
		return nil, false
	}

	entry.lastAccess = now
	entry.accessCount++
	m.store[key] = entry
	m.stats.Hits++
	common.LogCacheHit("ingredients")

	return append([]string(nil), entry.items...), true
}

// Set 設置緩存值
func (m *Manager) Set(recipeText string, items []string) {
	if m == nil || len(items) == 0 {
		return
	}

	key := generateKey(recipeText)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.store[key]; !exists && len(m.store) >= m.cfg.MaxSize {
		// 先清理過期項目，仍然滿則淘汰最少使用者
		if evicted := m.cleanup(); evicted == 0 {
			m.evictLRU()
		}
	}

	now := m.now()
	m.store[key] = cacheEntry{
		items:      append([]string(nil), items...),
		expiresAt:  now.Add(m.cfg.TTL),
		lastAccess: now,
	}

	common.LogDebug("快取已儲存", zap.String("鍵", key), zap.Int("items", len(items)))
}

// generateKey 生成緩存鍵
func generateKey(recipeText string) string {
	return "ingredients:" + common.HashString(recipeText)
}

// startCleanup 啟動清理過期緩存的協程
func (m *Manager) startCleanup() {
	defer close(m.done)

	interval := m.cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanup()
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

// cleanup 清理過期的緩存，呼叫者需持有鎖
func (m *Manager) cleanup() int {
	now := m.now()
	count := 0

	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.Evictions++
		}
	}

	if count > 0 {
		common.LogDebug("Cleaned up expired cache entries",
			zap.Int("count", count),
			zap.Int64("total_evictions", m.stats.Evictions),
			zap.Int("remaining_size", len(m.store)),
		)
	}

	return count
}

// evictLRU 淘汰最少訪問的項目，呼叫者需持有鎖
func (m *Manager) evictLRU() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.Evictions++
		common.LogDebug("快取已淘汰(LRU)", zap.String("鍵", oldestKey))
	}
}

// GetStats 獲取緩存統計信息
func (m *Manager) GetStats() Stats {
	if m == nil {
		return Stats{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.Size = len(m.store)
	s.MaxSize = m.cfg.MaxSize
	return s
}

// Close 停止清理協程並清空快取，可重複呼叫
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	m.closeOnce.Do(func() {
		close(m.stop)
		<-m.done

		m.mu.Lock()
		m.store = make(map[string]cacheEntry)
		stats := m.stats
		m.mu.Unlock()

		common.LogInfo("快取管理員已關閉",
			zap.Int64("命中次數", stats.Hits),
			zap.Int64("未命中次數", stats.Misses),
			zap.Int64("淘汰次數", stats.Evictions),
		)
	})
	return nil
}
