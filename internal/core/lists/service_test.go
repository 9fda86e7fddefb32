package lists

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"smartlist/internal/core/grocery"
	"smartlist/internal/infrastructure/storage"
	"smartlist/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_SeedsDefaultList(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewService(store, nil)

	lists, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)

	l := lists[0]
	assert.Equal(t, DefaultListID, l.ID)
	assert.Equal(t, DefaultListName, l.Name)
	require.Len(t, l.Items, 3)
	assert.Equal(t, "Organic Bananas", l.Items[0].Name)
	assert.Equal(t, grocery.CategoryProduce, l.Items[0].Category)
	assert.True(t, l.Items[1].Completed)
	assert.Equal(t, grocery.CategoryPantry, l.Items[2].Category)

	raw, err := store.Get(ctx, "grocery_lists")
	require.NoError(t, err)
	assert.Contains(t, raw, "My Grocery List")
}

func TestCreate_AndPersistAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "kv.json"))
	require.NoError(t, err)

	created, err := NewService(store, nil).Create(ctx, "  Weekend BBQ ")
	require.NoError(t, err)
	assert.Equal(t, "Weekend BBQ", created.Name)
	assert.NotEmpty(t, created.ID)

	lists, err := NewService(store, nil).All(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, created.ID, lists[1].ID)
	assert.Empty(t, lists[1].Items)
}

func TestCreate_RejectsBlankName(t *testing.T) {
	_, err := NewService(storage.NewMemoryStore(), nil).Create(context.Background(), "   ")
	assert.True(t, common.IsValidationError(err))
}

func TestAddItems_AssignsIDsAndCategories(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), nil)

	l, err := svc.AddItems(ctx, DefaultListID, []grocery.Item{
		{Name: "Chicken breast - 2 lbs", FromRecipe: true},
		{ID: 1, Name: "Duplicate id", Category: grocery.CategoryOther},
		{Name: "   "},
	})
	require.NoError(t, err)
	require.Len(t, l.Items, 5)

	added := l.Items[3:]
	assert.Equal(t, grocery.CategoryMeatSeafood, added[0].Category)
	assert.True(t, added[0].FromRecipe)
	assert.NotEqual(t, int64(1), added[1].ID)
	assert.Equal(t, grocery.CategoryOther, added[1].Category)

	seen := map[int64]bool{}
	for _, item := range l.Items {
		assert.False(t, seen[item.ID])
		seen[item.ID] = true
	}
}

func TestAddItem_ManualIsOther(t *testing.T) {
	svc := NewService(storage.NewMemoryStore(), nil)
	item, err := svc.AddItem(context.Background(), DefaultListID, "Chicken thighs")
	require.NoError(t, err)
	assert.Equal(t, grocery.CategoryOther, item.Category)
	assert.False(t, item.FromRecipe)

	_, err = svc.AddItem(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestToggleItem(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), nil)

	item, err := svc.ToggleItem(ctx, DefaultListID, 2)
	require.NoError(t, err)
	assert.False(t, item.Completed)

	item, err = svc.ToggleItem(ctx, DefaultListID, 2)
	require.NoError(t, err)
	assert.True(t, item.Completed)

	_, err = svc.ToggleItem(ctx, DefaultListID, 999)
	assert.ErrorIs(t, err, ErrItemNotFound)
	_, err = svc.ToggleItem(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestDeleteItemAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), nil)

	require.NoError(t, svc.DeleteItem(ctx, DefaultListID, 1))
	l, err := svc.Get(ctx, DefaultListID)
	require.NoError(t, err)
	assert.Len(t, l.Items, 2)
	assert.ErrorIs(t, svc.DeleteItem(ctx, DefaultListID, 1), ErrItemNotFound)

	require.NoError(t, svc.SetActive(ctx, DefaultListID))
	require.NoError(t, svc.Delete(ctx, DefaultListID))
	_, err = svc.Active(ctx)
	assert.ErrorIs(t, err, ErrListNotFound)

	lists, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists)
	assert.ErrorIs(t, svc.Delete(ctx, DefaultListID), ErrListNotFound)
}

func TestActiveList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), nil)

	_, err := svc.Active(ctx)
	assert.ErrorIs(t, err, ErrListNotFound)

	created, err := svc.Create(ctx, "Party")
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(ctx, created.ID))

	active, err := svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Party", active.Name)

	assert.ErrorIs(t, svc.SetActive(ctx, "missing"), ErrListNotFound)
}

func TestLoad_ObservesExistingIDs(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, "grocery_lists",
		`[{"id":"x","name":"X","created_at":1,"items":[{"id":9999999999999,"name":"Milk","completed":false,"category":"Dairy","from_recipe":false}]}]`))

	ids := grocery.NewIDSource()
	svc := NewService(store, ids)
	_, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Greater(t, ids.Next(), int64(9999999999999))
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc := NewService(storage.NewMemoryStore(), nil)
	_, err := svc.All(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(ctx, DefaultListID, "Eggs")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	l, err := svc.Get(ctx, DefaultListID)
	require.NoError(t, err)
	assert.Len(t, l.Items, 23)
}
