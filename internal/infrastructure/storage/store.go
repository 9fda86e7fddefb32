package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"smartlist/internal/infrastructure/config"
	"smartlist/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrNotFound 鍵不存在
	ErrNotFound = errors.New("storage: key not found")
	// ErrNotInteger 鍵值無法作為整數遞增
	ErrNotInteger = errors.New("storage: value is not an integer")
	// ErrClosed 存儲已關閉
	ErrClosed = errors.New("storage: store is closed")
)

// Store 字串鍵值存儲
//
// Incr 必須是原子操作：同一個鍵的並發遞增不得遺失更新。
// 鍵不存在時從 0 開始計數。
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}

// Open 根據設定建立存儲
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case "memory":
		store = NewMemoryStore()
	case "file":
		store, err = NewFileStore(cfg.Path)
	case "sqlite":
		store, err = NewSQLiteStore(ctx, cfg.Path)
	case "redis":
		store, err = NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Driver, err)
	}

	common.LogInfo("存儲已初始化",
		zap.String("driver", cfg.Driver),
		zap.String("path", cfg.Path),
	)
	return store, nil
}

// incrValue 解析現有值並加一
func incrValue(current string, exists bool) (int64, error) {
	if !exists {
		return 1, nil
	}
	n, err := strconv.ParseInt(current, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotInteger, current)
	}
	return n + 1, nil
}
