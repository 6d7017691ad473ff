package rule

import "testing"

func TestSplitTop_BracesProtectSeparators(t *testing.T) {
	parts := splitTop(`{{a||b}}||.c@text`, "||")
	if len(parts) != 2 || parts[0] != "{{a||b}}" || parts[1] != ".c@text" { t.Fatalf("parts = %q", parts) }
	parts = splitTop(`.a&&.b&&.c`, "&&")
	if len(parts) != 3 { t.Fatalf("parts = %q", parts) }
	parts = splitTop(`,{"body":"a||b"}`, "||")
	if len(parts) != 1 { t.Fatalf("json body split: %q", parts) }
}

func TestParseLegado_Prefixes(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		expr string
	}{
		{"@json:$.data.list", KindJSONPath, "$.data.list"},
		{"$.data.list", KindJSONPath, "$.data.list"},
		{"$[0].name", KindJSONPath, "$[0].name"},
		{"@xpath://div/a", KindXPath, "//div/a"},
		{"//div/a", KindXPath, "//div/a"},
		{"@js:result.trim()", KindScript, "result.trim()"},
		{"{{result.length}}", KindScript, "result.length"},
	}
	for _, c := range cases {
		r := ParseLegado(c.in)
		if r.Kind != c.kind || r.Expr != c.expr { t.Fatalf("%q -> kind=%d expr=%q", c.in, r.Kind, r.Expr) }
	}
}

func TestParseLegado_CSSLeaf(t *testing.T) {
	r := ParseLegado("ul.list li@span.0@text")
	if r.Kind != KindCSS || r.Selector != "ul.list li@span.0" || r.Attr != "text" { t.Fatalf("leaf = %+v", r) }
	r = ParseLegado("@css:div.intro > p@html")
	if !r.PlainCSS || r.Selector != "div.intro > p" || r.Attr != "html" { t.Fatalf("plain css = %+v", r) }
	// a bare attribute keyword acts on the current element itself
	r = ParseLegado("text")
	if r.Selector != "" || r.Attr != "text" { t.Fatalf("bare attr = %+v", r) }
	r = ParseLegado("-li@a@href")
	if !r.Reverse || r.Selector != "li@a" || r.Attr != "href" { t.Fatalf("reverse = %+v", r) }
}

func TestParseLegado_RegexSuffix(t *testing.T) {
	r := ParseLegado(`.title@text##\s+`)
	if r.Pattern != `\s+` || r.HasRepl || r.Repl != "" { t.Fatalf("no repl = %+v", r) }
	r = ParseLegado(`.title@text##0##zero`)
	if r.Pattern != "0" || !r.HasRepl || r.Repl != "zero" { t.Fatalf("with repl = %+v", r) }
	// explicit empty replacement is still a replacement
	r = ParseLegado(`.title@text##\d+##`)
	if r.Pattern != `\d+` || !r.HasRepl || r.Repl != "" { t.Fatalf("empty repl = %+v", r) }
}

func TestParseLegado_OrAnd(t *testing.T) {
	r := ParseLegado(".a@text||.b@text")
	if r.Kind != KindOr || len(r.Subs) != 2 { t.Fatalf("or = %+v", r) }
	r = ParseLegado("div.item&&a@href")
	if r.Kind != KindAnd || len(r.Subs) != 2 || r.Subs[1].Attr != "href" { t.Fatalf("and = %+v", r) }
	// single branch collapses to its leaf
	r = ParseLegado(".only@text")
	if r.Kind != KindCSS { t.Fatalf("single = %+v", r) }
}

func TestParseESO_FilterReplace(t *testing.T) {
	r := ParseESO(`@filter:\.mp3$`)
	if r.Kind != KindFilter || r.Expr != `\.mp3$` { t.Fatalf("filter = %+v", r) }
	r = ParseESO(`@replace:广告.*?章`)
	if r.Kind != KindReplace || r.Expr != `广告.*?章` { t.Fatalf("replace = %+v", r) }
	// eso has no {{}} script form: braces stay literal selector text
	r = ParseESO("{{result}}")
	if r.Kind != KindCSS { t.Fatalf("eso braces = %+v", r) }
	r = ParseESO("@js:result.split(',')[0]")
	if r.Kind != KindScript { t.Fatalf("eso js = %+v", r) }
}

func TestParse_Deterministic(t *testing.T) {
	in := `-ul.list li@span.0@text##\s+##||$.data[0].name&&{{result}}`
	if !Parse(in, "legado").Equal(Parse(in, "legado")) { t.Fatal("legado parse not deterministic") }
	if !Parse(in, "eso").Equal(Parse(in, "eso")) { t.Fatal("eso parse not deterministic") }
	if Parse("", "legado") == nil { t.Fatal("empty input must still parse") }
}

func TestClean(t *testing.T) {
	// missing replacement means deletion
	if got := Clean("abc123def", `\d+`, ""); got != "abcdef" { t.Fatalf("delete: %q", got) }
	if got := Clean("a-b", "-", "+"); got != "a+b" { t.Fatalf("replace: %q", got) }
	// no pattern: value untouched
	if got := Clean("  x  ", "", ""); got != "  x  " { t.Fatalf("no pattern: %q", got) }
	// invalid pattern: fail open
	if got := Clean("abc", `[`, ""); got != "abc" { t.Fatalf("bad pattern: %q", got) }
	// cleaned to nothing means "not extracted"
	if got := Clean("123", `\d+`, ""); got != "" { t.Fatalf("empty result: %q", got) }
}
