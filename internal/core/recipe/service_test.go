package recipe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smartlist/internal/core/extract"
	"smartlist/internal/core/grocery"
	"smartlist/internal/core/usage"
	"smartlist/internal/infrastructure/config"
	"smartlist/internal/infrastructure/storage"
	"smartlist/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// stubExtractor 固定回傳或阻塞到 context 結束
type stubExtractor struct {
	items []string
	block bool
	calls atomic.Int32
}

func (s *stubExtractor) Extract(ctx context.Context, recipeText string) ([]string, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.items == nil {
		return extract.Local(recipeText), nil
	}
	return s.items, nil
}

// countingStore 記錄存取次數
type countingStore struct {
	storage.Store
	gets  atomic.Int32
	incrs atomic.Int32
}

func (c *countingStore) Get(ctx context.Context, key string) (string, error) {
	c.gets.Add(1)
	return c.Store.Get(ctx, key)
}

func (c *countingStore) Incr(ctx context.Context, key string) (int64, error) {
	c.incrs.Add(1)
	return c.Store.Incr(ctx, key)
}

func newTestService(t *testing.T, ex Extractor, max int) (*Service, *countingStore) {
	t.Helper()
	store := &countingStore{Store: storage.NewMemoryStore()}
	meter := usage.NewMeter(store, config.UsageConfig{MaxFreeUses: max, CounterKey: "recipe_free_uses", CommitRetries: 1})
	return NewService(meter, ex, nil), store
}

func TestParseRecipe_LocalChicken(t *testing.T) {
	svc, store := newTestService(t, extract.NewAIExtractor(nil, nil, time.Second), 3)

	items, err := svc.ParseRecipe(context.Background(), "Grilled chicken with herbs")
	require.NoError(t, err)
	require.Len(t, items, 4)

	wantNames := []string{"Chicken breast - 2 lbs", "Olive oil - 2 tbsp", "Garlic - 3 cloves", "Salt and pepper"}
	wantCats := []grocery.Category{grocery.CategoryMeatSeafood, grocery.CategoryPantry, grocery.CategoryProduce, grocery.CategoryProduce}
	for i, item := range items {
		assert.Equal(t, wantNames[i], item.Name)
		assert.Equal(t, wantCats[i], item.Category)
		assert.True(t, item.FromRecipe)
		assert.False(t, item.Completed)
	}
	assert.Equal(t, int32(1), store.incrs.Load())
	assert.Equal(t, 2, svc.Stats(context.Background()).UsesLeft)
}

func TestParseRecipe_BlankInputTouchesNothing(t *testing.T) {
	ex := &stubExtractor{}
	svc, store := newTestService(t, ex, 3)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := svc.ParseRecipe(context.Background(), in)
		assert.True(t, common.IsValidationError(err))
	}
	assert.Equal(t, int32(0), store.gets.Load())
	assert.Equal(t, int32(0), ex.calls.Load())
}

func TestParseRecipe_QuotaExhausted(t *testing.T) {
	ex := &stubExtractor{items: []string{"2 eggs"}}
	svc, store := newTestService(t, ex, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.ParseRecipe(ctx, "omelette")
		require.NoError(t, err)
	}

	_, err := svc.ParseRecipe(ctx, "omelette")
	left, ok := common.IsQuotaExceeded(err)
	require.True(t, ok)
	assert.Equal(t, 0, left)
	assert.Contains(t, err.Error(), "You have 0 uses remaining")
	assert.Equal(t, int32(3), ex.calls.Load())
	assert.Equal(t, int32(3), store.incrs.Load())
}

func TestParseRecipe_PremiumBypassesQuota(t *testing.T) {
	ex := &stubExtractor{items: []string{"Salmon"}}
	svc, store := newTestService(t, ex, 1)
	svc.SetPremium(true)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.ParseRecipe(ctx, "salmon")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(0), store.incrs.Load())
	assert.Equal(t, usage.QuotaStatus{CanUse: true, UsesLeft: -1}, svc.CheckQuota(ctx))

	svc.SetPremium(false)
	assert.Equal(t, usage.QuotaStatus{CanUse: true, UsesLeft: 1}, svc.CheckQuota(ctx))
}

func TestParseRecipe_CancellationDoesNotConsume(t *testing.T) {
	ex := &stubExtractor{block: true}
	svc, store := newTestService(t, ex, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.ParseRecipe(ctx, "anything")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(0), store.incrs.Load())
	assert.Equal(t, 3, svc.CheckQuota(context.Background()).UsesLeft)
}

func TestParseRecipe_CommitFailureStillReturnsItems(t *testing.T) {
	store := &failingIncrStore{Store: storage.NewMemoryStore()}
	meter := usage.NewMeter(store, config.UsageConfig{MaxFreeUses: 3, CommitRetries: 1})
	svc := NewService(meter, &stubExtractor{items: []string{"Milk"}}, nil)

	items, err := svc.ParseRecipe(context.Background(), "latte")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, grocery.CategoryDairy, items[0].Category)
	assert.Equal(t, 3, svc.Stats(context.Background()).UsesLeft)
}

type failingIncrStore struct {
	storage.Store
}

func (f *failingIncrStore) Incr(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("read-only filesystem")
}

func TestParseRecipe_UniqueIDsAcrossCalls(t *testing.T) {
	ex := &stubExtractor{items: []string{"A", "B", "C", "D"}}
	svc, _ := newTestService(t, ex, 100)
	svc.SetPremium(true)

	var mu sync.Mutex
	seen := map[int64]bool{}
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			items, err := svc.ParseRecipe(context.Background(), "letters")
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, item := range items {
				if seen[item.ID] {
					return errors.New("duplicate id")
				}
				seen[item.ID] = true
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, 40)
}

func TestParseRecipe_ConcurrentFreeUses(t *testing.T) {
	const n = 8
	ex := &stubExtractor{items: []string{"Rice"}}
	svc, _ := newTestService(t, ex, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.ParseRecipe(context.Background(), "rice bowl")
			return err
		})
	}
	require.NoError(t, g.Wait())

	s := svc.Stats(context.Background())
	assert.Equal(t, n, s.TotalUses)
	assert.Equal(t, 0, s.UsesLeft)
}

func TestParseRecipe_SkipsBlankIngredients(t *testing.T) {
	ex := &stubExtractor{items: []string{"  Onion ", "", "   "}}
	svc, _ := newTestService(t, ex, 3)

	items, err := svc.ParseRecipe(context.Background(), "onion")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Onion", items[0].Name)
}
