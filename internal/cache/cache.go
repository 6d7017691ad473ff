// 包 cache 提供章节正文缓存：键值存储之上的体积上限 LRU。
// 键为"最终完全展开后的正文 URL"的散列（而非章节原始 URL，
// 规避方言改写造成的键碰撞）。缓存只是优化：写入失败静默降级为不缓存。
package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"go-book-source/internal/logx"
	"go-book-source/internal/store"
)

const (
	// DefaultMaxTotal 为聚合体积上限。
	DefaultMaxTotal = 10 << 20
	// DefaultMaxEntry 为单条上限；超限的条目不缓存。
	DefaultMaxEntry = 100 << 10

	keyPrefix = "content/"

	// lruCap 只是给 simplelru 的名义容量；真实上限按字节数自行驱逐。
	lruCap = 1 << 20
)

// Cache 为体积上限的 LRU 正文缓存。recency 索引在内存中维护，
// 条目本体落在键值存储里；重启后索引为空，命中时重新收编。
type Cache struct {
	mu       sync.Mutex
	kv       store.KV
	lru      *simplelru.LRU[string, int64] // key → 条目字节数
	total    int64
	maxTotal int64
	maxEntry int64
}

// New 创建缓存；maxTotal/maxEntry 传 0 取默认值。
func New(kv store.KV, maxTotal, maxEntry int64) *Cache {
	if maxTotal <= 0 {
		maxTotal = DefaultMaxTotal
	}
	if maxEntry <= 0 {
		maxEntry = DefaultMaxEntry
	}
	c := &Cache{kv: kv, maxTotal: maxTotal, maxEntry: maxEntry}
	lru, err := simplelru.NewLRU[string, int64](lruCap, c.onEvict)
	if err != nil {
		panic(err) // 仅当容量非法，常量保证不会发生
	}
	c.lru = lru
	return c
}

// Key 计算正文 URL 的缓存键。
func Key(resolvedURL string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(resolvedURL))
	return keyPrefix + fmt.Sprintf("%016x", h.Sum64())
}

// onEvict 在持有 c.mu 的情况下由 simplelru 回调：删条目、扣体积。
func (c *Cache) onEvict(key string, size int64) {
	c.total -= size
	if err := c.kv.Delete(context.Background(), key); err != nil {
		logx.Warnf("缓存驱逐删除失败：%s %v", key, err)
	}
}

// Get 按最终正文 URL 查缓存；命中即刷新最近使用时间（真 LRU）。
// 索引中不存在但存储里有的条目（重启残留）就地收编；
// 收编同样计入体积并走主动驱逐，聚合上限对残留条目一样成立。
func (c *Cache) Get(ctx context.Context, resolvedURL string) (string, bool) {
	k := Key(resolvedURL)
	v, err := c.kv.Get(ctx, k)
	if err != nil {
		return "", false
	}
	c.mu.Lock()
	if _, ok := c.lru.Get(k); !ok {
		c.lru.Add(k, int64(len(v)))
		c.total += int64(len(v))
		if c.total > c.maxTotal*80/100 {
			c.evictTo(c.maxTotal * 50 / 100)
		}
	}
	c.mu.Unlock()
	return v, true
}

// Put 写入正文。超过单条上限静默拒绝（返回 false）。
// 聚合体积越过 80% 上限时主动驱逐到 50%；存储写入失败按配额处理：
// 驱逐到 30% 后重试一次，仍失败则放弃缓存。
func (c *Cache) Put(ctx context.Context, resolvedURL, content string) bool {
	size := int64(len(content))
	if size == 0 || size > c.maxEntry {
		return false
	}
	k := Key(resolvedURL)
	if err := c.kv.Set(ctx, k, content); err != nil {
		c.mu.Lock()
		c.evictTo(c.maxTotal * 30 / 100)
		c.mu.Unlock()
		if err := c.kv.Set(ctx, k, content); err != nil {
			logx.Debugf("正文缓存写入放弃：%v", err)
			return false
		}
	}
	c.mu.Lock()
	if old, ok := c.lru.Peek(k); ok {
		c.total -= old
	}
	c.lru.Add(k, size)
	c.total += size
	if c.total > c.maxTotal*80/100 {
		c.evictTo(c.maxTotal * 50 / 100)
	}
	c.mu.Unlock()
	return true
}

// evictTo 从最久未用开始驱逐，直到聚合体积不超过 target。调用方持锁。
func (c *Cache) evictTo(target int64) {
	for c.total > target {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			return
		}
	}
}

// ClearAll 清空全部受控条目并复位元数据（对上层表现为单一逻辑操作）。
func (c *Cache) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.total = 0
	// 兜底：清掉索引外的残留条目（上次运行遗留）
	keys, err := c.kv.Keys(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("list cache keys: %w", err)
	}
	for _, k := range keys {
		if err := c.kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

// Stats 返回（条目数，聚合字节数），测试与诊断用。
func (c *Cache) Stats() (int, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len(), c.total
}
