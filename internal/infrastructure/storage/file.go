package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// FileStore 以單一 JSON 檔案保存所有鍵值，每次修改後整檔覆寫。
// 只保證同一程序內的原子性。
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore 創建檔案存儲，必要時建立目錄
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Get 讀取鍵值
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set 寫入鍵值
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	data[key] = value
	return s.save(data)
}

// Incr 原子遞增
func (s *FileStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return 0, err
	}
	current, ok := data[key]
	n, err := incrValue(current, ok)
	if err != nil {
		return 0, err
	}
	data[key] = strconv.FormatInt(n, 10)
	if err := s.save(data); err != nil {
		return 0, err
	}
	return n, nil
}

// Close 檔案存儲無需釋放資源
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	data := map[string]string{}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return data, nil
}

// save 先寫暫存檔再改名
func (s *FileStore) save(data map[string]string) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}
