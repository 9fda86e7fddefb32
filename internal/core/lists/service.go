package lists

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"smartlist/internal/core/grocery"
	"smartlist/internal/infrastructure/storage"
	"smartlist/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	listsKey  = "grocery_lists"
	activeKey = "last_active_list"

	DefaultListID   = "default"
	DefaultListName = "My Grocery List"
)

var (
	ErrListNotFound = errors.New("list not found")
	ErrItemNotFound = errors.New("item not found")
)

// List 購物清單
type List struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	CreatedAt int64          `json:"created_at"`
	Items     []grocery.Item `json:"items"`
}

// Service 購物清單存取，整個集合以 JSON 存於單一鍵
type Service struct {
	store storage.Store
	ids   *grocery.IDSource
	now   func() time.Time
	mu    sync.Mutex
}

// NewService 創建清單服務
func NewService(store storage.Store, ids *grocery.IDSource) *Service {
	if ids == nil {
		ids = grocery.NewIDSource()
	}
	return &Service{store: store, ids: ids, now: time.Now}
}

func (s *Service) defaultList() List {
	return List{
		ID:        DefaultListID,
		Name:      DefaultListName,
		CreatedAt: s.now().UnixMilli(),
		Items: []grocery.Item{
			{ID: 1, Name: "Organic Bananas", Completed: false, Category: grocery.CategoryProduce},
			{ID: 2, Name: "Greek Yogurt", Completed: true, Category: grocery.CategoryDairy},
			{ID: 3, Name: "Whole Grain Bread", Completed: false, Category: grocery.CategoryPantry},
		},
	}
}

// load 讀取全部清單；不存在時建立預設清單。呼叫者需持有鎖。
func (s *Service) load(ctx context.Context) ([]List, error) {
	raw, err := s.store.Get(ctx, listsKey)
	if errors.Is(err, storage.ErrNotFound) {
		lists := []List{s.defaultList()}
		if err := s.save(ctx, lists); err != nil {
			return nil, err
		}
		common.LogInfo("Created default grocery list")
		return lists, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load lists: %w", err)
	}

	var lists []List
	if err := common.ParseJSON(raw, &lists); err != nil {
		return nil, fmt.Errorf("decode lists: %w", err)
	}
	for _, l := range lists {
		for _, item := range l.Items {
			s.ids.Observe(item.ID)
		}
	}
	return lists, nil
}

func (s *Service) save(ctx context.Context, lists []List) error {
	if lists == nil {
		lists = []List{}
	}
	data, err := common.ToJSON(lists)
	if err != nil {
		return fmt.Errorf("encode lists: %w", err)
	}
	if err := s.store.Set(ctx, listsKey, data); err != nil {
		return fmt.Errorf("save lists: %w", err)
	}
	return nil
}

// update 讀取、修改、寫回
func (s *Service) update(ctx context.Context, fn func([]List) ([]List, error)) ([]List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	lists, err = fn(lists)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func indexOf(lists []List, id string) int {
	for i := range lists {
		if lists[i].ID == id {
			return i
		}
	}
	return -1
}

// All 全部清單
func (s *Service) All(ctx context.Context) ([]List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get 取得單一清單
func (s *Service) Get(ctx context.Context, listID string) (*List, error) {
	lists, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(lists, listID)
	if i < 0 {
		return nil, ErrListNotFound
	}
	return &lists[i], nil
}

// Create 新增空白清單
func (s *Service) Create(ctx context.Context, name string) (*List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewValidationError("list name is required")
	}

	created := List{
		ID:        common.GenerateUUID(),
		Name:      name,
		CreatedAt: s.now().UnixMilli(),
		Items:     []grocery.Item{},
	}
	if _, err := s.update(ctx, func(lists []List) ([]List, error) {
		return append(lists, created), nil
	}); err != nil {
		return nil, err
	}

	common.LogInfo("Grocery list created", zap.String("list_id", created.ID))
	return &created, nil
}

// Delete 刪除清單；若為目前清單則一併清除
func (s *Service) Delete(ctx context.Context, listID string) error {
	_, err := s.update(ctx, func(lists []List) ([]List, error) {
		i := indexOf(lists, listID)
		if i < 0 {
			return nil, ErrListNotFound
		}
		return append(lists[:i], lists[i+1:]...), nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if active, err := s.store.Get(ctx, activeKey); err == nil && active == listID {
		if err := s.store.Set(ctx, activeKey, ""); err != nil {
			common.LogWarn("清除目前清單失敗", zap.Error(err))
		}
	}
	return nil
}

// AddItems 將項目加入清單，重複或缺少的 ID 會重新指派
func (s *Service) AddItems(ctx context.Context, listID string, items []grocery.Item) (*List, error) {
	var result List
	_, err := s.update(ctx, func(lists []List) ([]List, error) {
		i := indexOf(lists, listID)
		if i < 0 {
			return nil, ErrListNotFound
		}

		used := make(map[int64]bool, len(lists[i].Items))
		for _, item := range lists[i].Items {
			used[item.ID] = true
		}
		for _, item := range items {
			item.Name = strings.TrimSpace(item.Name)
			if item.Name == "" {
				continue
			}
			if item.ID <= 0 || used[item.ID] {
				item.ID = s.ids.Next()
			}
			if !item.Category.Valid() {
				item.Category = grocery.Categorize(item.Name)
			}
			used[item.ID] = true
			lists[i].Items = append(lists[i].Items, item)
		}
		result = lists[i]
		return lists, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AddItem 手動新增單一項目，分類為 Other
func (s *Service) AddItem(ctx context.Context, listID, name string) (*grocery.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewValidationError("item name is required")
	}
	item := grocery.Item{ID: s.ids.Next(), Name: name, Category: grocery.CategoryOther}
	if _, err := s.AddItems(ctx, listID, []grocery.Item{item}); err != nil {
		return nil, err
	}
	return &item, nil
}

// ToggleItem 切換完成狀態
func (s *Service) ToggleItem(ctx context.Context, listID string, itemID int64) (*grocery.Item, error) {
	var toggled grocery.Item
	_, err := s.update(ctx, func(lists []List) ([]List, error) {
		i := indexOf(lists, listID)
		if i < 0 {
			return nil, ErrListNotFound
		}
		for j := range lists[i].Items {
			if lists[i].Items[j].ID == itemID {
				lists[i].Items[j].Completed = !lists[i].Items[j].Completed
				toggled = lists[i].Items[j]
				return lists, nil
			}
		}
		return nil, ErrItemNotFound
	})
	if err != nil {
		return nil, err
	}
	return &toggled, nil
}

// DeleteItem 移除項目
func (s *Service) DeleteItem(ctx context.Context, listID string, itemID int64) error {
	_, err := s.update(ctx, func(lists []List) ([]List, error) {
		i := indexOf(lists, listID)
		if i < 0 {
			return nil, ErrListNotFound
		}
		items := lists[i].Items
		for j := range items {
			if items[j].ID == itemID {
				lists[i].Items = append(items[:j], items[j+1:]...)
				return lists, nil
			}
		}
		return nil, ErrItemNotFound
	})
	return err
}

// SetActive 記錄目前使用的清單
func (s *Service) SetActive(ctx context.Context, listID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(ctx)
	if err != nil {
		return err
	}
	if indexOf(lists, listID) < 0 {
		return ErrListNotFound
	}
	if err := s.store.Set(ctx, activeKey, listID); err != nil {
		return fmt.Errorf("save active list: %w", err)
	}
	return nil
}

// Active 目前使用的清單；未設定或已被刪除時回傳 ErrListNotFound
func (s *Service) Active(ctx context.Context) (*List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lists, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	id, err := s.store.Get(ctx, activeKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load active list: %w", err)
	}
	i := indexOf(lists, id)
	if i < 0 {
		return nil, ErrListNotFound
	}
	return &lists[i], nil
}
