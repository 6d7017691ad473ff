package resolve

import (
	"strings"

	"github.com/tidwall/gjson"
)

// queryJSON 实现 JSONPath-lite：支持 $.a.b、$[n]、$[:n]、$[n:]、$[n:m]
// 的链式取值。路径段落在非对象/数组上取值时短路为无结果。
// 对象/数组结果以原始 JSON 文本返回（便于继续链式解析），标量取其字符串值。
func queryJSON(raw, path string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	root := gjson.Parse(raw)
	cur := []gjson.Result{root}
	for _, seg := range splitJSONPath(path) {
		var next []gjson.Result
		for _, r := range cur {
			next = append(next, applyJSONSeg(r, seg)...)
		}
		if len(next) == 0 {
			return nil
		}
		cur = next
	}
	out := make([]string, 0, len(cur))
	for _, r := range cur {
		var s string
		if r.IsObject() || r.IsArray() {
			s = r.Raw
		} else {
			s = r.String()
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type jsonSeg struct {
	key   string
	index string // 方括号内部原文，交给 parseArraySpec
	isIdx bool
}

// splitJSONPath 把 $.a.b[1:3].c 切为键段与下标段序列。
func splitJSONPath(path string) []jsonSeg {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	var segs []jsonSeg
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			i++
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			if j > i {
				segs = append(segs, jsonSeg{key: path[i:j]})
			}
			i = j
		case '[':
			j := strings.IndexByte(path[i:], ']')
			if j < 0 {
				return segs
			}
			segs = append(segs, jsonSeg{index: path[i+1 : i+j], isIdx: true})
			i += j + 1
		default:
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			segs = append(segs, jsonSeg{key: path[i:j]})
			i = j
		}
	}
	return segs
}

func applyJSONSeg(r gjson.Result, seg jsonSeg) []gjson.Result {
	if seg.isIdx {
		if !r.IsArray() {
			return nil
		}
		arr := r.Array()
		sp := parseArraySpec(seg.index)
		if sp == nil {
			return nil
		}
		var out []gjson.Result
		for _, i := range sp.pick(len(arr)) {
			out = append(out, arr[i])
		}
		return out
	}
	if !r.IsObject() {
		return nil
	}
	v := r.Get(seg.key)
	if !v.Exists() {
		return nil
	}
	return []gjson.Result{v}
}
