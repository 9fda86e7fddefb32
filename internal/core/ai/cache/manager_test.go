package cache

import (
	"sync"
	"testing"
	"time"

	"smartlist/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func testConfig(maxSize int) config.CacheConfig {
	return config.CacheConfig{
		Enabled:         true,
		MaxSize:         maxSize,
		TTL:             time.Hour,
		CleanupInterval: time.Hour,
	}
}

func TestManager_GetSet(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(testConfig(10))
	require.NotNil(t, m)
	defer m.Close()

	_, ok := m.Get("Grilled chicken")
	assert.False(t, ok)

	m.Set("Grilled chicken", []string{"2 lbs chicken breast", "Salt"})
	items, ok := m.Get("Grilled chicken")
	require.True(t, ok)
	assert.Equal(t, []string{"2 lbs chicken breast", "Salt"}, items)

	// 回傳副本，修改不影響快取
	items[0] = "changed"
	again, _ := m.Get("Grilled chicken")
	assert.Equal(t, "2 lbs chicken breast", again[0])

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestManager_Expiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(testConfig(10))
	defer m.Close()

	now := time.Unix(1_700_000_000, 0)
	m.mu.Lock()
	m.now = func() time.Time { return now }
	m.mu.Unlock()

	m.Set("soup", []string{"Onion"})
	now = now.Add(2 * time.Hour)

	_, ok := m.Get("soup")
	assert.False(t, ok)
	assert.Equal(t, int64(1), m.GetStats().Evictions)
}

func TestManager_EvictsLeastUsedWhenFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(testConfig(2))
	defer m.Close()

	m.Set("a", []string{"A"})
	m.Set("b", []string{"B"})
	_, _ = m.Get("a")
	m.Set("c", []string{"C"})

	_, okA := m.Get("a")
	_, okB := m.Get("b")
	_, okC := m.Get("c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, 2, m.GetStats().Size)
}

func TestManager_IgnoresEmptyLists(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(testConfig(2))
	defer m.Close()

	m.Set("x", nil)
	_, ok := m.Get("x")
	assert.False(t, ok)
}

func TestManager_DisabledIsNil(t *testing.T) {
	m := NewManager(config.CacheConfig{Enabled: false, MaxSize: 10})
	assert.Nil(t, m)

	m.Set("x", []string{"X"})
	_, ok := m.Get("x")
	assert.False(t, ok)
	assert.Equal(t, Stats{}, m.GetStats())
	assert.NoError(t, m.Close())
}

func TestManager_CloseStopsCleanupGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig(10)
	cfg.CleanupInterval = time.Millisecond
	m := NewManager(cfg)
	m.Set("x", []string{"X"})
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestManager_ConcurrentAccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(testConfig(8))
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%10))
			m.Set(key, []string{key})
			_, _ = m.Get(key)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, m.GetStats().Size, 8)
}
