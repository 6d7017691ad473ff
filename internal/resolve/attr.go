package resolve

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Extract 对单个命中做属性提取（链解析之后的收尾一步）。
// 未指定属性时默认取 trim 后的文本。字符串命中忽略属性、原值返回。
func Extract(m Match, attr string) string {
	if m.Node == nil {
		return strings.TrimSpace(m.Val)
	}
	sel := goquery.NewDocumentFromNode(m.Node).Selection
	switch strings.ToLower(strings.TrimSpace(attr)) {
	case "", "text":
		return strings.TrimSpace(sel.Text())
	case "html", "innerhtml":
		h, err := sel.Html()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(h)
	case "outerhtml":
		h, err := goquery.OuterHtml(sel)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(h)
	case "owntext":
		return ownText(m.Node)
	case "textnodes":
		return textNodes(m.Node)
	default:
		name := strings.TrimSpace(attr)
		if strings.HasPrefix(name, "attr/") {
			name = name[len("attr/"):]
		}
		return strings.TrimSpace(sel.AttrOr(name, ""))
	}
}

// ownText 只取直接文本子节点，不含后代元素的文本。
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// textNodes 取子树内全部非空文本节点，逐个 trim 后按行拼接。
func textNodes(n *html.Node) string {
	var lines []string
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				lines = append(lines, t)
			}
		}
	})
	return strings.Join(lines, "\n")
}
