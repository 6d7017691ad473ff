package resolve

import (
	"strconv"
	"strings"
)

// indexSpec 为索引/区间/排除子语法的解析结果。
// 形态：单索引 .N（负数自尾部计），[0,2,4] 取指定位置，
// [!0,2] 取补集，[a:b] 半开区间，[a:b:step] 带步长（负步长自 a 向 b 递减）。
type indexSpec struct {
	single   *int
	list     []int
	exclude  bool
	isRange  bool
	from, to *int
	step     int
}

// cutIndexSuffix 从段尾剥离 [...] 与 .N，两者可叠加出现（.N 在 [...] 之前）。
// 返回的 spec 序列按应用顺序排列：先用 .N 收窄，再在收窄后的集合上套 [...]。
func cutIndexSuffix(seg string) (base string, specs []*indexSpec) {
	var arr *indexSpec
	if i := strings.LastIndex(seg, "["); i >= 0 && strings.HasSuffix(seg, "]") {
		if sp := parseArraySpec(seg[i+1 : len(seg)-1]); sp != nil {
			seg = seg[:i]
			arr = sp
		}
	}
	if j := strings.LastIndex(seg, "."); j >= 0 {
		if n, err := strconv.Atoi(seg[j+1:]); err == nil {
			seg = seg[:j]
			specs = append(specs, &indexSpec{single: &n})
		}
	}
	if arr != nil {
		specs = append(specs, arr)
	}
	return seg, specs
}

// parseArraySpec 解析方括号内部；解析失败返回 nil（整段按字面处理）。
func parseArraySpec(s string) *indexSpec {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return nil
		}
		sp := &indexSpec{isRange: true, step: 1}
		atoi := func(p string) (*int, bool) {
			p = strings.TrimSpace(p)
			if p == "" {
				return nil, true
			}
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, false
			}
			return &n, true
		}
		var ok bool
		if sp.from, ok = atoi(parts[0]); !ok {
			return nil
		}
		if sp.to, ok = atoi(parts[1]); !ok {
			return nil
		}
		if len(parts) == 3 {
			st, ok := atoi(parts[2])
			if !ok || st == nil || *st == 0 {
				return nil
			}
			sp.step = *st
		}
		return sp
	}
	sp := &indexSpec{}
	if strings.HasPrefix(s, "!") {
		sp.exclude = true
		s = s[1:]
	}
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil
		}
		sp.list = append(sp.list, n)
	}
	return sp
}

// norm 把负索引折算为自尾部计数；越界返回 -1。
func norm(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return -1
	}
	return i
}

// pick 依据 spec 从 n 个元素中选出位置序列（保持选取顺序）。
// spec 为 nil 表示全取。
func (sp *indexSpec) pick(n int) []int {
	if sp == nil {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	if sp.single != nil {
		if i := norm(*sp.single, n); i >= 0 {
			return []int{i}
		}
		return nil
	}
	if sp.isRange {
		step := sp.step
		var from, to int
		if step > 0 {
			from, to = 0, n
			if sp.from != nil {
				from = clamp(normRel(*sp.from, n), 0, n)
			}
			if sp.to != nil {
				to = clamp(normRel(*sp.to, n), 0, n)
			}
			var out []int
			for i := from; i < to; i += step {
				out = append(out, i)
			}
			return out
		}
		// 负步长：自 from 向 to 递减，to 为开边界
		from, to = n-1, -1
		if sp.from != nil {
			from = clamp(normRel(*sp.from, n), 0, n-1)
		}
		if sp.to != nil {
			to = normRel(*sp.to, n)
		}
		var out []int
		for i := from; i > to && i >= 0; i += step {
			out = append(out, i)
		}
		return out
	}
	if sp.exclude {
		drop := map[int]bool{}
		for _, v := range sp.list {
			if i := norm(v, n); i >= 0 {
				drop[i] = true
			}
		}
		var out []int
		for i := 0; i < n; i++ {
			if !drop[i] {
				out = append(out, i)
			}
		}
		return out
	}
	var out []int
	for _, v := range sp.list {
		if i := norm(v, n); i >= 0 {
			out = append(out, i)
		}
	}
	return out
}

// normRel 负值相对长度折算，但不做越界淘汰（区间端点允许越界后再截断）。
func normRel(i, n int) int {
	if i < 0 {
		return i + n
	}
	return i
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
