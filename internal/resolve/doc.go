// 包 resolve 负责把规则 AST 施加到页面文档上求值。
// 文档以不可变的节点切片表示（解析后的 *html.Node 树，或原始 JSON/字符串），
// 选择器求值没有隐藏的树变更副作用。支持 CSS 扩展链、索引/区间/排除子语法、
// XPath、JSONPath-lite、受限脚本，以及 OR/AND 组合。
package resolve

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Match 为一次选择的单个命中：元素节点或纯字符串值，二选一。
type Match struct {
	Node *html.Node
	Val  string
}

// Doc 为求值输入：已解析的 HTML 树和/或原始字符串（JSON 响应体等）。
type Doc struct {
	root *html.Node
	raw  string
}

// ParseHTML 解析 HTML 文本为文档。
func ParseHTML(raw string) (*Doc, error) {
	gd, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	var root *html.Node
	if len(gd.Selection.Nodes) > 0 {
		root = gd.Selection.Nodes[0]
	}
	return &Doc{root: root, raw: raw}, nil
}

// FromRaw 构造仅含原始字符串的文档（JSON 响应体走此入口）。
func FromRaw(raw string) *Doc { return &Doc{raw: raw} }

// FromMatch 把单个命中转为新文档，供逐条目字段解析使用。
func FromMatch(m Match) *Doc {
	if m.Node != nil {
		return &Doc{root: m.Node}
	}
	return &Doc{raw: m.Val}
}

// rootMatches 返回文档的初始命中集。
func (d *Doc) rootMatches() []Match {
	if d.root != nil {
		return []Match{{Node: d.root, Val: d.raw}}
	}
	return []Match{{Val: d.raw}}
}

// matchString 取命中的字符串形态：字符串值原样，元素取其文本。
func matchString(m Match) string {
	if m.Node == nil {
		return m.Val
	}
	return nodeText(m.Node)
}

// nodeText 取元素子树的全部文本。
func nodeText(n *html.Node) string {
	return goquery.NewDocumentFromNode(n).Text()
}

// reparse 把字符串结果重新变成"元素或字符串"输入（AND 流水线的级间转换）。
func reparse(s string) Match {
	if strings.Contains(s, "<") {
		if d, err := ParseHTML(s); err == nil && d.root != nil {
			return Match{Node: d.root, Val: s}
		}
	}
	return Match{Val: s}
}
