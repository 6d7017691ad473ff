package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"go-book-source/internal/model"
)

// Format 为导入文本的识别结果。
type Format int

const (
	FormatUnknown Format = iota
	FormatLegado         // 明文 JSON 对象/数组
	FormatESO            // eso:// 前缀的压缩编码
)

// Detect 仅凭字符串开头的结构嗅探格式，不依赖扩展名或带外提示。
func Detect(data string) Format {
	s := strings.TrimSpace(data)
	switch {
	case strings.HasPrefix(s, esoPrefix):
		return FormatESO
	case strings.HasPrefix(s, "{") || strings.HasPrefix(s, "["):
		return FormatLegado
	default:
		return FormatUnknown
	}
}

// Decode 把导入文本解析为归一化书源。单条解析失败不中断批次，
// 以错误文案逐条记录；格式整体不可识别时返回零条与单条错误。
func Decode(data string) ([]model.Source, []string) {
	switch Detect(data) {
	case FormatLegado:
		return decodeLegado(data)
	case FormatESO:
		return decodeESO(data)
	default:
		return nil, []string{"unrecognized source format"}
	}
}

// Import 解码并逐条落库（同 ID 覆盖既有书源）。
// 缺失 ID 时按名称+站点派生；两者皆空则退回随机 ID。
func (mgr *Manager) Import(ctx context.Context, data string) *model.ImportResult {
	srcs, errs := Decode(data)
	res := &model.ImportResult{FailedCount: len(errs), Errors: errs}
	if len(srcs) == 0 {
		return res
	}
	mgr.mu.Lock()
	for _, s := range srcs {
		if s.ID == "" {
			if s.Name == "" && s.Host == "" {
				s.ID = uuid.NewString()
			} else {
				s.ID = model.SourceID(s.Name, s.Host)
			}
		}
		mgr.m[s.ID] = s
		res.SuccessCount++
	}
	mgr.persist(ctx)
	mgr.mu.Unlock()
	mgr.notify()
	return res
}

// Export 导出书源（ids 为空表示全部），回到各自方言的线格式。
// 选中集合全为 eso 方言时产出 eso:// 压缩编码，否则产出 legado JSON 数组。
func (mgr *Manager) Export(ids []string) (string, error) {
	mgr.mu.Lock()
	var list []model.Source
	if len(ids) == 0 {
		list = mgr.sortedLocked(func(model.Source) bool { return true })
	} else {
		for _, id := range ids {
			if s, ok := mgr.m[id]; ok {
				list = append(list, s)
			}
		}
	}
	mgr.mu.Unlock()
	if len(list) == 0 {
		return "", fmt.Errorf("export: no sources selected")
	}
	allESO := true
	for _, s := range list {
		if s.Dialect != model.DialectESO {
			allESO = false
			break
		}
	}
	if allESO {
		return encodeESO(list)
	}
	return encodeLegado(list)
}
