package storage

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore 記憶體鍵值存儲，程序結束即消失
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	closed bool
}

// NewMemoryStore 創建記憶體存儲
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get 讀取鍵值
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set 寫入鍵值
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.data[key] = value
	return nil
}

// Incr 原子遞增
func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	current, ok := s.data[key]
	n, err := incrValue(current, ok)
	if err != nil {
		return 0, err
	}
	s.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

// Close 關閉存儲
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
