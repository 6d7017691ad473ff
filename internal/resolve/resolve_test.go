package resolve

import (
	"testing"

	"go-book-source/internal/rule"
)

const listPage = `<html><body>
<ul class="list">
<li><span> Title A </span><span>alt A</span></li>
<li><span> Title B </span><span>alt B</span></li>
</ul></body></html>`

func mustDoc(t *testing.T, raw string) *Doc {
	t.Helper()
	d, err := ParseHTML(raw)
	if err != nil { t.Fatalf("parse html: %v", err) }
	return d
}

func TestChain_IndexAttrAndRegex(t *testing.T) {
	d := mustDoc(t, listPage)
	r := rule.ParseLegado(`ul.list li@span.0@text##^\s+|\s+$##`)
	got := d.Strings(r, nil)
	if len(got) != 2 || got[0] != "Title A" || got[1] != "Title B" { t.Fatalf("got %q", got) }
	if d.Text(r, nil) != "Title A" { t.Fatalf("first = %q", d.Text(r, nil)) }
}

func TestIndexSpecPick(t *testing.T) {
	cases := []struct {
		spec string
		n    int
		want []int
	}{
		{"0,2,4", 10, []int{0, 2, 4}},
		{"!0,2", 5, []int{1, 3, 4}},
		{"2:8:2", 10, []int{2, 4, 6}},
		{":3", 10, []int{0, 1, 2}},
		{"-3:", 10, []int{7, 8, 9}},
		{"8:2:-2", 10, []int{8, 6, 4}},
	}
	for _, c := range cases {
		sp := parseArraySpec(c.spec)
		if sp == nil { t.Fatalf("%q: parse failed", c.spec) }
		got := sp.pick(c.n)
		if len(got) != len(c.want) { t.Fatalf("%q: got %v want %v", c.spec, got, c.want) }
		for i := range got {
			if got[i] != c.want[i] { t.Fatalf("%q: got %v want %v", c.spec, got, c.want) }
		}
	}
	if parseArraySpec("a,b") != nil { t.Fatal("letters must not parse as index spec") }
}

func TestChain_IndexForms(t *testing.T) {
	d := mustDoc(t, `<ul><li>a</li><li>b</li><li>c</li></ul>`)
	if got := d.Strings(rule.ParseLegado("li.-1@text"), nil); len(got) != 1 || got[0] != "c" { t.Fatalf("negative: %q", got) }
	if got := d.Strings(rule.ParseLegado("li[!1]@text"), nil); len(got) != 2 || got[0] != "a" || got[1] != "c" { t.Fatalf("exclude: %q", got) }
	if got := d.Strings(rule.ParseLegado("-li@text"), nil); len(got) != 3 || got[0] != "c" { t.Fatalf("reverse: %q", got) }
	if got := d.Strings(rule.ParseLegado("li.9@text"), nil); len(got) != 0 { t.Fatalf("out of range: %q", got) }
}

func TestChain_SingleIndexWithArraySpec(t *testing.T) {
	d := mustDoc(t, `<span class="c">A</span><span class="c">B</span><span class="c">C</span>`)
	if got := d.Strings(rule.ParseLegado(".c.0[0]@text"), nil); len(got) != 1 || got[0] != "A" { t.Fatalf("shorthand: %q", got) }
	if got := d.Strings(rule.ParseLegado("class.c.1[0]@text"), nil); len(got) != 1 || got[0] != "B" { t.Fatalf("class: %q", got) }
	if got := d.Strings(rule.ParseLegado("tag.span.-1[0]@text"), nil); len(got) != 1 || got[0] != "C" { t.Fatalf("tag: %q", got) }
	// single index narrows to one element, so any other array position is empty
	if got := d.Strings(rule.ParseLegado(".c.0[1]@text"), nil); len(got) != 0 { t.Fatalf("past narrowed set: %q", got) }
}

func TestFilter_FirstMatchingHref(t *testing.T) {
	d := mustDoc(t, `<a href="/page.html">p</a><div><a href="/music/song.mp3">m</a></div><a href="/other.mp3">o</a>`)
	if got := d.Strings(rule.ParseESO(`@filter:\.mp3$`), nil); len(got) != 1 || got[0] != "/music/song.mp3" { t.Fatalf("filter: %q", got) }
	if got := d.Strings(rule.ParseESO(`@filter:\.zip$`), nil); len(got) != 0 { t.Fatalf("no match: %q", got) }
	// a broken pattern folds to "not extracted"
	if got := d.Strings(rule.ParseESO(`@filter:[`), nil); len(got) != 0 { t.Fatalf("bad pattern: %q", got) }
}

func TestReplace_DeletesMatches(t *testing.T) {
	d := FromRaw("第一章 广告请忽略 正文")
	if got := d.Text(rule.ParseESO(`@replace:广告.*?略\s*`), nil); got != "第一章 正文" { t.Fatalf("delete: %q", got) }
	// an unparsable pattern passes values through untouched
	if got := d.Text(rule.ParseESO(`@replace:[`), nil); got != "第一章 广告请忽略 正文" { t.Fatalf("bad pattern: %q", got) }
	// deleting everything collapses to "not extracted"
	if got := d.Strings(rule.ParseESO(`@replace:.*`), nil); len(got) != 0 { t.Fatalf("all deleted: %q", got) }
}

func TestOr_FirstNonEmptyWins(t *testing.T) {
	d := mustDoc(t, `<div class="title">Hello</div>`)
	got := d.Strings(rule.ParseLegado(".missing@text||.title@text"), nil)
	if len(got) != 1 || got[0] != "Hello" { t.Fatalf("got %q", got) }
	if got := d.Strings(rule.ParseLegado(".a@text||.b@text"), nil); len(got) != 0 { t.Fatalf("all empty: %q", got) }
}

func TestAnd_Pipeline(t *testing.T) {
	d := mustDoc(t, `<div class="item"><a href="/a1">A1</a></div><div class="item"><a href="/a2">A2</a></div>`)
	got := d.Strings(rule.ParseLegado("div.item&&a@href"), nil)
	if len(got) != 2 || got[0] != "/a1" || got[1] != "/a2" { t.Fatalf("got %q", got) }
	// any empty stage empties the whole chain
	if got := d.Strings(rule.ParseLegado("div.none&&a@href"), nil); len(got) != 0 { t.Fatalf("empty stage: %q", got) }
}

func TestAnd_OrTailUsesWinningBranchLeaf(t *testing.T) {
	// the parsers split || before &&, so an OR under an AND is only ever
	// built programmatically; the winning branch still decides extraction
	r := &rule.Rule{Kind: rule.KindAnd, Subs: []*rule.Rule{
		{Kind: rule.KindCSS, Selector: "div.item"},
		{Kind: rule.KindOr, Subs: []*rule.Rule{
			{Kind: rule.KindCSS, Selector: "a", Attr: "href"},
			{Kind: rule.KindCSS, Selector: "b", Attr: "text"},
		}},
	}}
	d := mustDoc(t, `<div class="item"><a href="/a1">A1</a></div>`)
	if got := d.Strings(r, nil); len(got) != 1 || got[0] != "/a1" { t.Fatalf("got %q", got) }
}

func TestInvalidSelectorYieldsEmpty(t *testing.T) {
	d := mustDoc(t, listPage)
	if got := d.Strings(rule.ParseLegado("@css:li[=bad"), nil); len(got) != 0 { t.Fatalf("got %q", got) }
}

func TestStageGrammar(t *testing.T) {
	d := mustDoc(t, `<div id="main" class="wrap"><p>one</p><p>two<b>Needle x</b></p></div>`)
	if got := d.Strings(rule.ParseLegado("id.main@children@text"), nil); len(got) != 2 || got[0] != "one" { t.Fatalf("children: %q", got) }
	if got := d.Strings(rule.ParseLegado("tag.p.0@text"), nil); len(got) != 1 || got[0] != "one" { t.Fatalf("tag: %q", got) }
	if got := d.Strings(rule.ParseLegado("class.wrap@tag.p@text"), nil); len(got) != 2 { t.Fatalf("class: %q", got) }
	if got := d.Strings(rule.ParseLegado("p@text.Needle@text"), nil); len(got) != 1 || got[0] != "Needle x" { t.Fatalf("text filter: %q", got) }
}

func TestExtract_OwnTextAndTextNodes(t *testing.T) {
	d := mustDoc(t, `<div id="w">head<span>inner</span>tail</div>`)
	if got := d.Text(rule.ParseLegado("#w@ownText"), nil); got != "headtail" { t.Fatalf("ownText: %q", got) }
	if got := d.Text(rule.ParseLegado("#w@textNodes"), nil); got != "head\ninner\ntail" { t.Fatalf("textNodes: %q", got) }
	if got := d.Text(rule.ParseLegado("#w span@outerHtml"), nil); got != "<span>inner</span>" { t.Fatalf("outerHtml: %q", got) }
}

func TestJSONPath(t *testing.T) {
	raw := `{"data":{"books":[{"name":"A"},{"name":"B"},{"name":"C"}]}}`
	d := FromRaw(raw)
	if got := d.Strings(rule.ParseLegado("$.data.books[0].name"), nil); len(got) != 1 || got[0] != "A" { t.Fatalf("single: %q", got) }
	if got := d.Strings(rule.ParseLegado("$.data.books[1:].name"), nil); len(got) != 2 || got[0] != "B" { t.Fatalf("range: %q", got) }
	if got := d.Strings(rule.ParseLegado("@json:$.data.missing"), nil); len(got) != 0 { t.Fatalf("missing: %q", got) }
	// objects come back as raw JSON so chains can keep digging
	if got := d.Strings(rule.ParseLegado("$.data.books[0]"), nil); len(got) != 1 || got[0] != `{"name":"A"}` { t.Fatalf("raw object: %q", got) }
}

func TestXPath(t *testing.T) {
	d := mustDoc(t, `<ul><li><a href="/1">one</a></li><li><a href="/2">two</a></li></ul>`)
	if got := d.Strings(rule.ParseLegado("//ul/li/a"), nil); len(got) != 2 || got[0] != "one" { t.Fatalf("elements: %q", got) }
	if got := d.Strings(rule.ParseLegado("@xpath://li/a/@href"), nil); len(got) != 2 || got[0] != "/1" { t.Fatalf("attrs: %q", got) }
	if got := d.Strings(rule.ParseLegado("//li[missing::axis"), nil); len(got) != 0 { t.Fatalf("bad expr: %q", got) }
}

func TestScript(t *testing.T) {
	d := FromRaw("hello")
	if got := d.Text(rule.ParseLegado("{{result.toUpperCase()}}"), nil); got != "HELLO" { t.Fatalf("upper: %q", got) }
	// a throw folds to "not extracted"
	if got := d.Text(rule.ParseLegado("{{undefinedVar.x}}"), nil); got != "" { t.Fatalf("throw: %q", got) }
	vars := map[string]string{"key": "三体"}
	if got := d.Text(rule.ParseLegado("{{key + '!'}}"), vars); got != "三体!" { t.Fatalf("vars: %q", got) }
}
