package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
)

// BigCache 使用 `allegro/bigcache` 实现 Cache 接口。
// bigcache 面向大量小对象、几乎无 GC 压力，适合缓存海量坐标点的转换结果。
type BigCache struct {
	cache *bigcache.BigCache
}

// Stats 是缓存命中统计的快照。
type Stats struct {
	Hits   int64
	Misses int64
}

// NewBigCache 创建 BigCache。
// ttl: 全局过期时间，bigcache 不支持单键过期。
// maxMB: 最大内存占用 (MB)，0 表示不限制。
func NewBigCache(ttl time.Duration, maxMB int) (*BigCache, error) {
	config := bigcache.DefaultConfig(ttl)
	config.Shards = 64
	config.MaxEntriesInWindow = 10000
	config.MaxEntrySize = 64 // 一个 JSON 编码的坐标点约 50 字节
	config.HardMaxCacheSize = maxMB
	config.CleanWindow = ttl
	config.Verbose = false

	c, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("初始化 bigcache 失败: %w", err)
	}
	return &BigCache{cache: c}, nil
}

// Get 读取 key 并反序列化到 value，未命中时返回 ErrMiss。
func (c *BigCache) Get(ctx context.Context, key string, value any) error {
	data, err := c.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return fmt.Errorf("%w: %s", ErrMiss, key)
		}
		return err
	}
	return json.Unmarshal(data, value)
}

// Set 写入 key。expiration 被忽略，过期时间由 NewBigCache 的 ttl 统一决定。
func (c *BigCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(key, data)
}

// Delete 删除一个或多个键，不存在的键被忽略。
func (c *BigCache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := c.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			return err
		}
	}
	return nil
}

// Exists 检查 key 是否存在。
func (c *BigCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.cache.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, nil
	}
	return false, err
}

// Len 返回当前缓存条目数。
func (c *BigCache) Len() int {
	return c.cache.Len()
}

// Stats 返回命中统计。
func (c *BigCache) Stats() Stats {
	s := c.cache.Stats()
	return Stats{Hits: s.Hits, Misses: s.Misses}
}

// Close 释放缓存占用的资源。
func (c *BigCache) Close() error {
	return c.cache.Close()
}
