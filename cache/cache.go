// Package cache 提供本地缓存抽象，用于记忆开销较大的坐标转换结果。
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss 表示缓存未命中。
var ErrMiss = errors.New("cache miss")

// Cache 定义缓存接口。value 必须是指针，缓存数据会反序列化到其中。
type Cache interface {
	Get(ctx context.Context, key string, value any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}
