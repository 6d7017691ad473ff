// 包 rule 负责把原始规则字符串解析为带类型的规则 AST。
// 两套方言（eso/legado）语法词法不同、结构相似，各有独立解析器，
// 产出同一种 Rule，供下游解析器（resolve 包）统一求值。
package rule

import "strings"

// Kind 为规则节点类型。
type Kind int

const (
	KindCSS Kind = iota
	KindXPath
	KindJSONPath
	KindScript
	KindFilter  // 匹配首个满足正则的 href
	KindReplace // 删除正则命中的片段
	KindOr
	KindAnd
)

// Rule 为解析后的规则节点：叶子节点可携带 (Pattern, Repl) 正则后处理；
// 组合节点的 Subs 非空，叶子节点 Subs 恒为 nil。
type Rule struct {
	Kind     Kind
	Selector string // CSS：@ 连接的选择器链（各段是留给 resolver 的不透明子语法）
	Attr     string // CSS：尾部属性提取器（text/html/href/attr/xxx 等）
	Expr     string // xpath/jsonpath/script/filter/replace 的载荷
	PlainCSS bool   // @css: 强制按标准 CSS 解释，跳过扩展子语法
	Reverse  bool   // 规则整体前导 '-'：最终结果列表倒序
	Pattern  string
	Repl     string
	HasRepl  bool
	Subs     []*Rule
}

// Parse 按方言选择解析器；未知方言按 legado 处理。
func Parse(s string, dialect string) *Rule {
	if dialect == "eso" {
		return ParseESO(s)
	}
	return ParseLegado(s)
}

// splitTop 在花括号（{{ }} 与 { }）之外按分隔符切分，保证
// 脚本体/内联 JSON 中出现的 || 与 && 不被误切。
func splitTop(s, sep string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); {
		switch {
		case s[i] == '{':
			depth++
			i++
		case s[i] == '}':
			if depth > 0 {
				depth--
			}
			i++
		case depth == 0 && strings.HasPrefix(s[i:], sep):
			parts = append(parts, s[start:i])
			i += len(sep)
			start = i
		default:
			i++
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// combine 把多个子规则包装为组合节点；单个子规则原样返回。
func combine(kind Kind, subs []*Rule) *Rule {
	if len(subs) == 1 {
		return subs[0]
	}
	return &Rule{Kind: kind, Subs: subs}
}

// cutRegexSuffix 剥离尾部 ##pattern 或 ##pattern##replacement。
// replacement 为空串与未给出是两种状态（前者显式替换为空）。
func cutRegexSuffix(s string) (rest, pattern, repl string, hasRepl bool) {
	i := strings.Index(s, "##")
	if i < 0 {
		return s, "", "", false
	}
	rest = s[:i]
	tail := s[i+2:]
	if j := strings.Index(tail, "##"); j >= 0 {
		return rest, tail[:j], tail[j+2:], true
	}
	return rest, tail, "", false
}

// attrKeywords 为可作为链尾属性提取器的关键字。
var attrKeywords = map[string]bool{
	"text": true, "html": true, "innerHtml": true, "outerHtml": true,
	"ownText": true, "textNodes": true, "href": true, "src": true,
}

// cutAttr 把 @ 链的最后一段识别为属性提取器时弹出，其余段原样拼回。
func cutAttr(sel string) (selector, attr string) {
	segs := strings.Split(sel, "@")
	if len(segs) < 2 {
		// 整条规则只是一个属性提取器：作用于当前元素本身
		if t := strings.TrimSpace(sel); attrKeywords[t] || strings.HasPrefix(t, "attr/") {
			return "", t
		}
		return sel, ""
	}
	last := strings.TrimSpace(segs[len(segs)-1])
	if attrKeywords[last] || strings.HasPrefix(last, "attr/") {
		return strings.Join(segs[:len(segs)-1], "@"), last
	}
	return sel, ""
}

// cssLeaf 构造 CSS 叶子：处理整体前导 '-'（倒序）与属性弹出。
func cssLeaf(s string, plain bool) *Rule {
	r := &Rule{Kind: KindCSS, PlainCSS: plain}
	if strings.HasPrefix(s, "-") && len(s) > 1 {
		r.Reverse = true
		s = s[1:]
	}
	r.Selector, r.Attr = cutAttr(s)
	return r
}

// Equal 判断两棵规则树结构相等（解析幂等性检查用）。
func (r *Rule) Equal(o *Rule) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Kind != o.Kind || r.Selector != o.Selector || r.Attr != o.Attr ||
		r.Expr != o.Expr || r.PlainCSS != o.PlainCSS || r.Reverse != o.Reverse ||
		r.Pattern != o.Pattern || r.Repl != o.Repl || r.HasRepl != o.HasRepl ||
		len(r.Subs) != len(o.Subs) {
		return false
	}
	for i := range r.Subs {
		if !r.Subs[i].Equal(o.Subs[i]) {
			return false
		}
	}
	return true
}
