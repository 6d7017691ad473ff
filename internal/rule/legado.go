package rule

import "strings"

// ParseLegado 解析 legado 方言规则串。对任意输入总能给出结果（纯函数）：
// 空串产出空 CSS 选择器。识别优先级（先匹配者生效，次序有语义）：
//  1. 顶层 ||   → OR 组合
//  2. 顶层 &&   → AND 组合
//  3. {{...}}   → 内嵌脚本（脚本是终结节点，花括号外的残余语法不再解析）
//  4. 尾部 ##pattern[##replacement] → 记录到叶子的正则后处理
//  5. 方言前缀：@css: / @js: / @json:（或 $. $[ 起始）/ @xpath:（或 // 起始）
//  6. 其余按 CSS 链处理：按 @ 切段，链尾弹出属性提取器
func ParseLegado(s string) *Rule {
	s = strings.TrimSpace(s)
	if parts := splitTop(s, "||"); len(parts) > 1 {
		subs := make([]*Rule, 0, len(parts))
		for _, p := range parts {
			subs = append(subs, ParseLegado(p))
		}
		return combine(KindOr, subs)
	}
	if parts := splitTop(s, "&&"); len(parts) > 1 {
		subs := make([]*Rule, 0, len(parts))
		for _, p := range parts {
			subs = append(subs, ParseLegado(p))
		}
		return combine(KindAnd, subs)
	}
	if i := strings.Index(s, "{{"); i >= 0 {
		if j := strings.Index(s[i+2:], "}}"); j >= 0 {
			return &Rule{Kind: KindScript, Expr: s[i+2 : i+2+j]}
		}
	}
	rest, pattern, repl, hasRepl := cutRegexSuffix(s)
	leaf := parseLegadoLeaf(rest)
	leaf.Pattern, leaf.Repl, leaf.HasRepl = pattern, repl, hasRepl
	return leaf
}

func parseLegadoLeaf(s string) *Rule {
	switch {
	case strings.HasPrefix(s, "@css:"):
		return cssLeaf(s[len("@css:"):], true)
	case strings.HasPrefix(s, "@js:"):
		return &Rule{Kind: KindScript, Expr: s[len("@js:"):]}
	case strings.HasPrefix(s, "@json:"):
		return &Rule{Kind: KindJSONPath, Expr: s[len("@json:"):]}
	case strings.HasPrefix(s, "$.") || strings.HasPrefix(s, "$["):
		return &Rule{Kind: KindJSONPath, Expr: s}
	case strings.HasPrefix(s, "@xpath:"):
		return &Rule{Kind: KindXPath, Expr: s[len("@xpath:"):]}
	case strings.HasPrefix(s, "//"):
		return &Rule{Kind: KindXPath, Expr: s}
	default:
		return cssLeaf(s, false)
	}
}
