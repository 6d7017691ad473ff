package resolve

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"go-book-source/internal/rule"
)

// All 求值规则并返回全部命中（元素或字符串），不做属性提取。
func (d *Doc) All(r *rule.Rule, vars map[string]string) []Match {
	return evalRule(d.rootMatches(), r, vars)
}

// First 返回首个命中。
func (d *Doc) First(r *rule.Rule, vars map[string]string) (Match, bool) {
	ms := d.All(r, vars)
	if len(ms) == 0 {
		return Match{}, false
	}
	return ms[0], true
}

// Strings 求值并完成收尾：属性提取 → 正则后处理 → trim → 丢弃空值。
// OR 组合在字符串层面短路（首个产出非空结果的分支生效）。
func (d *Doc) Strings(r *rule.Rule, vars map[string]string) []string {
	return evalStrings(d.rootMatches(), r, vars)
}

// Text 取首个非空字符串结果；无结果返回空串（空即"未提取到"）。
func (d *Doc) Text(r *rule.Rule, vars map[string]string) string {
	ss := d.Strings(r, vars)
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func evalRule(roots []Match, r *rule.Rule, vars map[string]string) []Match {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case rule.KindOr:
		for _, sub := range r.Subs {
			if out := evalRule(roots, sub, vars); len(out) > 0 {
				return out
			}
		}
		return nil
	case rule.KindAnd:
		out, _ := evalAnd(roots, r, vars)
		return out
	default:
		return evalLeaf(roots, r, vars)
	}
}

// evalAnd 以流水线语义求值 AND 组合：
// 第 i 个子规则的输出作为第 i+1 个的输入（字符串输出重新解析为元素或字符串），
// 并把 result/lastResult 注入执行上下文。任一级为空即整体为空。
// 第二个返回值为末级实际生效的叶子，收尾提取据此取属性与正则。
func evalAnd(roots []Match, r *rule.Rule, vars map[string]string) ([]Match, *rule.Rule) {
	cur := roots
	vars = copyVars(vars)
	var leaf *rule.Rule
	for i, sub := range r.Subs {
		out, subLeaf := evalWithLeaf(cur, sub, vars)
		if len(out) == 0 {
			return nil, nil
		}
		if i < len(r.Subs)-1 {
			if collapses(subLeaf) {
				ss := extractAll(out, subLeaf)
				if len(ss) == 0 {
					return nil, nil
				}
				next := make([]Match, 0, len(ss))
				for _, s := range ss {
					next = append(next, reparse(s))
				}
				out = next
				vars["lastResult"] = vars["result"]
				vars["result"] = ss[0]
			} else {
				vars["lastResult"] = vars["result"]
				vars["result"] = matchString(out[0])
			}
		}
		cur, leaf = out, subLeaf
	}
	return cur, leaf
}

// evalWithLeaf 求值并一并返回实际生效的叶子：
// OR 取胜出分支的叶子，AND 取其末级叶子，叶子即自身。
func evalWithLeaf(roots []Match, r *rule.Rule, vars map[string]string) ([]Match, *rule.Rule) {
	if r == nil {
		return nil, nil
	}
	switch r.Kind {
	case rule.KindOr:
		for _, sub := range r.Subs {
			if out, leaf := evalWithLeaf(roots, sub, vars); len(out) > 0 {
				return out, leaf
			}
		}
		return nil, nil
	case rule.KindAnd:
		return evalAnd(roots, r, vars)
	default:
		return evalLeaf(roots, r, vars), r
	}
}

// collapses 判断某级输出是否折叠为字符串再进入下一级：
// 携带属性提取或正则后处理的叶子产出的是值而非元素集合。
func collapses(r *rule.Rule) bool {
	if r.Kind != rule.KindCSS {
		return false // 非 CSS 叶子本就产出字符串命中
	}
	return r.Attr != "" || r.Pattern != ""
}

func evalLeaf(roots []Match, r *rule.Rule, vars map[string]string) []Match {
	var out []Match
	switch r.Kind {
	case rule.KindCSS:
		nodes := resolveChain(rootNodes(roots), r.Selector, r.PlainCSS)
		for _, n := range nodes {
			out = append(out, Match{Node: n})
		}
	case rule.KindXPath:
		out = queryXPath(roots, r.Expr)
	case rule.KindJSONPath:
		for _, m := range roots {
			for _, s := range queryJSON(rawString(m), r.Expr) {
				out = append(out, Match{Val: s})
			}
		}
	case rule.KindScript:
		for _, m := range roots {
			elem := ""
			if m.Node != nil {
				elem = Extract(m, "outerHtml")
			}
			if s := runScript(r.Expr, rawString(m), elem, vars); s != "" {
				out = append(out, Match{Val: s})
				break // 脚本是终结节点，取首个成功求值
			}
		}
	case rule.KindFilter:
		if href := firstHref(roots, r.Expr); href != "" {
			out = append(out, Match{Val: href})
		}
	case rule.KindReplace:
		re, err := regexp.Compile(r.Expr)
		if err != nil {
			for _, m := range roots {
				out = append(out, Match{Val: rawString(m)})
			}
			break
		}
		for _, m := range roots {
			if s := strings.TrimSpace(re.ReplaceAllString(rawString(m), "")); s != "" {
				out = append(out, Match{Val: s})
			}
		}
	}
	if r.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func evalStrings(roots []Match, r *rule.Rule, vars map[string]string) []string {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case rule.KindOr:
		for _, sub := range r.Subs {
			if ss := evalStrings(roots, sub, vars); len(ss) > 0 {
				return ss
			}
		}
		return nil
	case rule.KindAnd:
		out, leaf := evalAnd(roots, r, vars)
		return extractAll(out, leaf)
	default:
		return extractAll(evalLeaf(roots, r, vars), r)
	}
}

// extractAll 按叶子的属性与正则后处理把命中集合收尾为字符串，丢弃空值。
func extractAll(ms []Match, leaf *rule.Rule) []string {
	attr := ""
	if leaf != nil {
		attr = leaf.Attr
	}
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		v := Extract(m, attr)
		if leaf != nil {
			v = rule.CleanRule(v, leaf)
		} else {
			v = strings.TrimSpace(v)
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// rootNodes 收集元素根；含标签的字符串命中就地解析为树。
func rootNodes(roots []Match) []*html.Node {
	var out []*html.Node
	for _, m := range roots {
		if m.Node != nil {
			out = append(out, m.Node)
			continue
		}
		if strings.Contains(m.Val, "<") {
			if d, err := ParseHTML(m.Val); err == nil && d.root != nil {
				out = append(out, d.root)
			}
		}
	}
	return out
}

// rawString 取命中的原始字符串形态（JSON/脚本输入优先用原文）。
func rawString(m Match) string {
	if m.Val != "" {
		return m.Val
	}
	return matchString(m)
}

// firstHref 返回子树内首个 href 满足正则的链接。
func firstHref(roots []Match, pattern string) string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return ""
	}
	for _, m := range roots {
		if m.Node == nil {
			continue
		}
		found := ""
		walk(m.Node, func(n *html.Node) {
			if found != "" || n.Type != html.ElementNode {
				return
			}
			for _, a := range n.Attr {
				if a.Key == "href" && re.MatchString(a.Val) {
					found = a.Val
					return
				}
			}
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func copyVars(vars map[string]string) map[string]string {
	out := make(map[string]string, len(vars)+2)
	for k, v := range vars {
		out[k] = v
	}
	return out
}
