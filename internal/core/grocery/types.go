package grocery

import (
	"sync/atomic"
	"time"
)

// Category 商品分類（封閉集合）
type Category string

const (
	CategoryMeatSeafood Category = "Meat & Seafood"
	CategoryProduce     Category = "Produce"
	CategoryDairy       Category = "Dairy"
	CategoryPantry      Category = "Pantry"
	CategoryHerbsSpices Category = "Herbs & Spices"
	CategoryOther       Category = "Other"
)

// Categories 全部分類，依宣告順序
var Categories = []Category{
	CategoryMeatSeafood,
	CategoryProduce,
	CategoryDairy,
	CategoryPantry,
	CategoryHerbsSpices,
	CategoryOther,
}

// Valid 是否屬於分類集合
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Item 購物清單項目
type Item struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Completed  bool     `json:"completed"`
	Category   Category `json:"category"`
	FromRecipe bool     `json:"from_recipe"`
}

// IDSource 產生遞增且不重複的項目 ID。
// 以毫秒時間戳為起點，同一毫秒內的多個項目依序加一。
type IDSource struct {
	last atomic.Int64
	now  func() time.Time
}

// NewIDSource 創建 ID 產生器
func NewIDSource() *IDSource {
	return &IDSource{now: time.Now}
}

// Next 取得下一個 ID
func (s *IDSource) Next() int64 {
	for {
		last := s.last.Load()
		next := s.now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if s.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Observe 讓產生器跳過已存在的 ID
func (s *IDSource) Observe(id int64) {
	for {
		last := s.last.Load()
		if id <= last || s.last.CompareAndSwap(last, id) {
			return
		}
	}
}
