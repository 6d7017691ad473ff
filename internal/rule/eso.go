package rule

import "strings"

// ParseESO 解析 eso 方言规则串。骨架与 legado 相同（OR/AND/正则尾缀），
// 前缀词法不同：eso 额外提供 @filter:（取首个命中正则的 href）与
// @replace:（删除正则命中片段），且脚本只经 @js: 引入，无 {{}} 形式。
func ParseESO(s string) *Rule {
	s = strings.TrimSpace(s)
	if parts := splitTop(s, "||"); len(parts) > 1 {
		subs := make([]*Rule, 0, len(parts))
		for _, p := range parts {
			subs = append(subs, ParseESO(p))
		}
		return combine(KindOr, subs)
	}
	if parts := splitTop(s, "&&"); len(parts) > 1 {
		subs := make([]*Rule, 0, len(parts))
		for _, p := range parts {
			subs = append(subs, ParseESO(p))
		}
		return combine(KindAnd, subs)
	}
	rest, pattern, repl, hasRepl := cutRegexSuffix(s)
	leaf := parseESOLeaf(rest)
	leaf.Pattern, leaf.Repl, leaf.HasRepl = pattern, repl, hasRepl
	return leaf
}

func parseESOLeaf(s string) *Rule {
	switch {
	case strings.HasPrefix(s, "@css:"):
		return cssLeaf(s[len("@css:"):], true)
	case strings.HasPrefix(s, "@js:"):
		return &Rule{Kind: KindScript, Expr: s[len("@js:"):]}
	case strings.HasPrefix(s, "@filter:"):
		return &Rule{Kind: KindFilter, Expr: s[len("@filter:"):]}
	case strings.HasPrefix(s, "@replace:"):
		// @replace: 只有 pattern，恒为删除语义
		return &Rule{Kind: KindReplace, Expr: s[len("@replace:"):]}
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
