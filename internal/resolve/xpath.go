package resolve

import (
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// queryXPath 对各根节点执行 XPath 查询（XPath 1.0 子集）。
// 表达式非法或求值失败一律视为空集。属性/文本结果降级为字符串命中。
func queryXPath(roots []Match, expr string) []Match {
	var out []Match
	for _, r := range roots {
		n := r.Node
		if n == nil {
			d, err := ParseHTML(r.Val)
			if err != nil || d.root == nil {
				continue
			}
			n = d.root
		}
		nodes, err := htmlquery.QueryAll(n, expr)
		if err != nil {
			continue
		}
		for _, m := range nodes {
			if m.Type == html.ElementNode {
				out = append(out, Match{Node: m})
			} else {
				out = append(out, Match{Val: htmlquery.InnerText(m)})
			}
		}
	}
	return out
}
