package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"smartlist/internal/infrastructure/config"
	"smartlist/internal/infrastructure/storage"
	"smartlist/internal/pkg/common"

	"go.uber.org/zap"
)

// Unlimited 付費用戶的剩餘次數
const Unlimited = -1

// ErrMalformedCounter 計數器內容不是非負整數
var ErrMalformedCounter = errors.New("usage counter is malformed")

// Stats 使用量統計
type Stats struct {
	IsPremium   bool `json:"is_premium"`
	UsesLeft    int  `json:"uses_left"`
	TotalUses   int  `json:"total_uses"`
	MaxFreeUses int  `json:"max_free_uses"`
	Degraded    bool `json:"degraded,omitempty"`
}

// QuotaStatus 配額檢查結果
type QuotaStatus struct {
	CanUse   bool `json:"can_use"`
	UsesLeft int  `json:"uses_left"`
}

// Meter 免費次數計量器。計數器存於 storage，付費狀態只存在記憶體。
type Meter struct {
	store   storage.Store
	key     string
	max     int
	retries int
	premium atomic.Bool

	mu       sync.Mutex
	inFlight int
}

// NewMeter 創建計量器
func NewMeter(store storage.Store, cfg config.UsageConfig) *Meter {
	key := cfg.CounterKey
	if key == "" {
		key = "recipe_free_uses"
	}
	m := &Meter{
		store:   store,
		key:     key,
		max:     cfg.MaxFreeUses,
		retries: cfg.CommitRetries,
	}
	m.premium.Store(cfg.Premium)
	return m
}

// SetPremium 設定付費狀態
func (m *Meter) SetPremium(premium bool) {
	if m.premium.Swap(premium) != premium {
		common.LogInfo("Premium status changed", zap.Bool("is_premium", premium))
	}
}

// IsPremium 是否為付費用戶
func (m *Meter) IsPremium() bool {
	return m.premium.Load()
}

// MaxFreeUses 免費次數上限
func (m *Meter) MaxFreeUses() int {
	return m.max
}

// readTotal 讀取已使用次數，不存在視為 0
func (m *Meter) readTotal(ctx context.Context) (int, error) {
	raw, err := m.store.Get(ctx, m.key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage counter: %w", err)
	}
	total, err := strconv.Atoi(raw)
	if err != nil || total < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCounter, raw)
	}
	return total, nil
}

func (m *Meter) left(total int) int {
	if total >= m.max {
		return 0
	}
	return m.max - total
}

// CheckQuota 檢查是否還能使用，已保留但未記錄的次數視為已用；讀取失敗時拒絕
func (m *Meter) CheckQuota(ctx context.Context) QuotaStatus {
	if m.IsPremium() {
		return QuotaStatus{CanUse: true, UsesLeft: Unlimited}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	total, err := m.readTotal(ctx)
	if err != nil {
		common.LogWarn("讀取使用次數失敗，拒絕本次使用", zap.Error(err))
		return QuotaStatus{CanUse: false, UsesLeft: 0}
	}
	left := m.left(total + m.inFlight)
	return QuotaStatus{CanUse: left > 0, UsesLeft: left}
}

// Consume 記錄一次成功的免費使用
func (m *Meter) Consume(ctx context.Context) error {
	if m.IsPremium() {
		return nil
	}
	return m.incr(ctx)
}

func (m *Meter) incr(ctx context.Context) error {
	if _, err := m.store.Incr(ctx, m.key); err != nil {
		common.LogWarn("更新使用次數失敗", zap.Error(err))
		return fmt.Errorf("consume free use: %w", err)
	}
	return nil
}

// Stats 取得使用量統計
func (m *Meter) Stats(ctx context.Context) Stats {
	if m.IsPremium() {
		return Stats{
			IsPremium:   true,
			UsesLeft:    Unlimited,
			TotalUses:   Unlimited,
			MaxFreeUses: m.max,
		}
	}

	total, err := m.readTotal(ctx)
	if err != nil {
		common.LogWarn("讀取使用次數失敗", zap.Error(err))
		return Stats{
			UsesLeft:    0,
			TotalUses:   m.max,
			MaxFreeUses: m.max,
			Degraded:    true,
		}
	}
	return Stats{
		UsesLeft:    m.left(total),
		TotalUses:   total,
		MaxFreeUses: m.max,
	}
}

// Reserve 檢查並保留一次配額。被拒絕時回傳 nil reservation；
// 讀取失敗時同時回傳錯誤。保留時的身分決定 Commit 是否計數，
// 之後切換付費狀態不影響進行中的保留。
func (m *Meter) Reserve(ctx context.Context) (*Reservation, QuotaStatus, error) {
	if m.IsPremium() {
		return &Reservation{meter: m, premium: true}, QuotaStatus{CanUse: true, UsesLeft: Unlimited}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	total, err := m.readTotal(ctx)
	if err != nil {
		common.LogWarn("讀取使用次數失敗，拒絕本次使用", zap.Error(err))
		return nil, QuotaStatus{CanUse: false, UsesLeft: 0}, err
	}

	remaining := m.left(total + m.inFlight)
	if remaining <= 0 {
		return nil, QuotaStatus{CanUse: false, UsesLeft: 0}, nil
	}

	m.inFlight++
	return &Reservation{meter: m}, QuotaStatus{CanUse: true, UsesLeft: remaining}, nil
}

// Reservation 一次已保留但尚未記錄的配額
type Reservation struct {
	meter   *Meter
	premium bool
	mu      sync.Mutex
	done    bool
}

// Commit 記錄使用並釋放保留，失敗時重試；重複呼叫無作用
func (r *Reservation) Commit(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return nil
	}
	r.done = true
	if r.premium {
		return nil
	}
	return r.meter.commit(ctx)
}

// Release 放棄保留，不增加計數；重複呼叫無作用
func (r *Reservation) Release() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	if !r.premium {
		r.meter.release()
	}
}

// commit 遞增計數與釋放保留在同一把鎖內完成，Reserve 不會重複計算
func (m *Meter) commit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.inFlight-- }()

	var err error
	for attempt := 0; attempt <= m.retries; attempt++ {
		if err = m.incr(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return err
}

func (m *Meter) release() {
	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
}
