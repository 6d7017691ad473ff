// 包 source 负责书源的统一管理：两套方言的导入/导出编解码、
// 归一化为单一 Source 记录、内存 CRUD 与持久化、变更订阅。
package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"go-book-source/internal/logx"
	"go-book-source/internal/model"
	"go-book-source/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sourcesKey 为书源列表在键值存储中的持久化键。
const sourcesKey = "sources"

// Manager 为书源管理器：启动时全量加载，每次变更全量回写。
type Manager struct {
	mu   sync.Mutex
	kv   store.KV
	m    map[string]model.Source
	subs []func()
}

// NewManager 创建管理器并从存储加载既有书源。
func NewManager(ctx context.Context, kv store.KV) (*Manager, error) {
	mgr := &Manager{kv: kv, m: make(map[string]model.Source)}
	raw, err := kv.Get(ctx, sourcesKey)
	if err != nil && err != store.ErrNotFound {
		return nil, fmt.Errorf("load sources: %w", err)
	}
	if raw != "" {
		var list []model.Source
		if err := json.UnmarshalFromString(raw, &list); err != nil {
			return nil, fmt.Errorf("unmarshal sources: %w", err)
		}
		for _, s := range list {
			mgr.m[s.ID] = s
		}
	}
	return mgr, nil
}

// Subscribe 注册变更回调；每次变更操作完成后同步逐个调用。
func (mgr *Manager) Subscribe(fn func()) {
	mgr.mu.Lock()
	mgr.subs = append(mgr.subs, fn)
	mgr.mu.Unlock()
}

// notify 在锁外逐个调用订阅者；单个回调 panic 不影响其余。
func (mgr *Manager) notify() {
	mgr.mu.Lock()
	subs := append([]func(){}, mgr.subs...)
	mgr.mu.Unlock()
	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logx.Warnf("书源变更回调异常：%v", r)
				}
			}()
			fn()
		}()
	}
}

// persist 全量回写；持锁调用。
func (mgr *Manager) persist(ctx context.Context) {
	list := make([]model.Source, 0, len(mgr.m))
	for _, s := range mgr.m {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	raw, err := json.MarshalToString(list)
	if err != nil {
		logx.Warnf("书源序列化失败：%v", err)
		return
	}
	if err := mgr.kv.Set(ctx, sourcesKey, raw); err != nil {
		logx.Warnf("书源持久化失败：%v", err)
	}
}

// Add 新增书源；ID 已存在时返回 false。
func (mgr *Manager) Add(ctx context.Context, s model.Source) bool {
	mgr.mu.Lock()
	if _, ok := mgr.m[s.ID]; ok {
		mgr.mu.Unlock()
		return false
	}
	mgr.m[s.ID] = s
	mgr.persist(ctx)
	mgr.mu.Unlock()
	mgr.notify()
	return true
}

// Update 更新既有书源；不存在时返回 false。
func (mgr *Manager) Update(ctx context.Context, s model.Source) bool {
	mgr.mu.Lock()
	if _, ok := mgr.m[s.ID]; !ok {
		mgr.mu.Unlock()
		return false
	}
	mgr.m[s.ID] = s
	mgr.persist(ctx)
	mgr.mu.Unlock()
	mgr.notify()
	return true
}

// Upsert 新增或覆盖。
func (mgr *Manager) Upsert(ctx context.Context, s model.Source) {
	mgr.mu.Lock()
	mgr.m[s.ID] = s
	mgr.persist(ctx)
	mgr.mu.Unlock()
	mgr.notify()
}

// Delete 删除单个书源。
func (mgr *Manager) Delete(ctx context.Context, id string) {
	mgr.DeleteMany(ctx, []string{id})
}

// DeleteMany 批量删除。
func (mgr *Manager) DeleteMany(ctx context.Context, ids []string) {
	mgr.mu.Lock()
	changed := false
	for _, id := range ids {
		if _, ok := mgr.m[id]; ok {
			delete(mgr.m, id)
			changed = true
		}
	}
	if changed {
		mgr.persist(ctx)
	}
	mgr.mu.Unlock()
	if changed {
		mgr.notify()
	}
}

// SetEnabled 启停书源；不存在时返回 false。
func (mgr *Manager) SetEnabled(ctx context.Context, id string, enabled bool) bool {
	mgr.mu.Lock()
	s, ok := mgr.m[id]
	if !ok {
		mgr.mu.Unlock()
		return false
	}
	s.Enabled = enabled
	mgr.m[id] = s
	mgr.persist(ctx)
	mgr.mu.Unlock()
	mgr.notify()
	return true
}

// Get 按 ID 取书源。
func (mgr *Manager) Get(id string) (model.Source, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	s, ok := mgr.m[id]
	return s, ok
}

// List 返回全部书源，按权重降序、同权重按名称排序。
func (mgr *Manager) List() []model.Source {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.sortedLocked(func(model.Source) bool { return true })
}

// GetByType 按内容类型过滤。
func (mgr *Manager) GetByType(t model.ContentType) []model.Source {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.sortedLocked(func(s model.Source) bool { return s.ContentType == t })
}

// GetByGroup 按分组过滤。
func (mgr *Manager) GetByGroup(group string) []model.Source {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.sortedLocked(func(s model.Source) bool { return s.Group == group })
}

// Groups 返回去重且排序的分组名。
func (mgr *Manager) Groups() []string {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, s := range mgr.m {
		if s.Group != "" && !seen[s.Group] {
			seen[s.Group] = true
			out = append(out, s.Group)
		}
	}
	sort.Strings(out)
	return out
}

// Search 在名称/站点/分组上做不区分大小写的子串匹配。
func (mgr *Manager) Search(keyword string) []model.Source {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if kw == "" {
		return mgr.sortedLocked(func(model.Source) bool { return true })
	}
	return mgr.sortedLocked(func(s model.Source) bool {
		return strings.Contains(strings.ToLower(s.Name), kw) ||
			strings.Contains(strings.ToLower(s.Host), kw) ||
			strings.Contains(strings.ToLower(s.Group), kw)
	})
}

func (mgr *Manager) sortedLocked(keep func(model.Source) bool) []model.Source {
	var out []model.Source
	for _, s := range mgr.m {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Name < out[j].Name
	})
	return out
}
