package resolve

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// resolveChain 解析 CSS 链：按 @ 切段，左到右逐段求值，
// 上一段的命中集合摊平后作为下一段的根集合。
func resolveChain(roots []*html.Node, selector string, plain bool) []*html.Node {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return roots
	}
	if plain {
		return queryCSS(roots, selector)
	}
	cur := roots
	for _, seg := range strings.Split(selector, "@") {
		if len(cur) == 0 {
			return nil
		}
		cur = resolveStage(cur, strings.TrimSpace(seg))
	}
	return cur
}

// resolveStage 求值单个链段。扩展文法按序尝试，先适用者生效：
// class.<name> / id.<name> / tag.<name> / text.<substr> / children /
// .<name> / #<id> / 裸标签名或带索引后缀的任意串 / 标准 CSS 选择器兜底。
// 索引与区间后缀在各分支统一应用。
func resolveStage(roots []*html.Node, seg string) []*html.Node {
	if seg == "" {
		return roots
	}
	base, specs := cutIndexSuffix(seg)
	base = strings.TrimSpace(base)
	var out []*html.Node
	switch {
	case strings.HasPrefix(base, "class."):
		out = queryCSS(roots, "."+strings.TrimSpace(base[len("class."):]))
	case strings.HasPrefix(base, "id."):
		out = firstOnly(queryCSS(roots, "#"+base[len("id."):]))
	case strings.HasPrefix(base, "tag."):
		out = queryTag(roots, base[len("tag."):])
	case strings.HasPrefix(base, "text."):
		out = queryText(roots, base[len("text."):])
	case base == "children":
		out = childrenOf(roots)
	case strings.HasPrefix(base, "."):
		out = queryCSS(roots, base)
	case strings.HasPrefix(base, "#"):
		out = firstOnly(queryCSS(roots, base))
	case isKnownTag(base):
		out = queryTag(roots, base)
	case len(specs) > 0 && !strings.ContainsAny(base, " >+~[:"):
		// 带索引后缀的任意裸串按标签名处理
		out = queryTag(roots, base)
	default:
		out = queryCSS(roots, seg) // 整段按标准 CSS 尝试
		if out == nil {
			out = queryTag(roots, base)
		}
		if len(specs) == 0 {
			return out
		}
	}
	for _, sp := range specs {
		idx := sp.pick(len(out))
		picked := make([]*html.Node, 0, len(idx))
		for _, i := range idx {
			picked = append(picked, out[i])
		}
		out = picked
	}
	return out
}

// queryCSS 以 cascadia 编译选择器后在各根的子树内查询；
// 编译失败返回 nil（空集而非报错，便于 OR 组合继续尝试）。
func queryCSS(roots []*html.Node, sel string) []*html.Node {
	m, err := cascadia.Compile(sel)
	if err != nil {
		return nil
	}
	var out []*html.Node
	for _, r := range roots {
		out = append(out, cascadia.QueryAll(r, m)...)
	}
	return out
}

func queryTag(roots []*html.Node, tag string) []*html.Node {
	tag = strings.ToLower(strings.TrimSpace(tag))
	var out []*html.Node
	for _, r := range roots {
		walk(r, func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == tag {
				out = append(out, n)
			}
		})
	}
	return out
}

// queryText 取文本内容包含子串的全部元素。
func queryText(roots []*html.Node, substr string) []*html.Node {
	var out []*html.Node
	for _, r := range roots {
		walk(r, func(n *html.Node) {
			if n.Type == html.ElementNode && strings.Contains(nodeText(n), substr) {
				out = append(out, n)
			}
		})
	}
	return out
}

func childrenOf(roots []*html.Node) []*html.Node {
	var out []*html.Node
	for _, r := range roots {
		for c := r.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, c)
			}
		}
	}
	return out
}

// walk 先序遍历子树（不含根自身之外的回溯）。
func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		fn(c)
		walk(c, fn)
	}
}

func firstOnly(ns []*html.Node) []*html.Node {
	if len(ns) > 1 {
		return ns[:1]
	}
	return ns
}

func isKnownTag(s string) bool {
	return s != "" && atom.Lookup([]byte(strings.ToLower(s))) != 0
}
