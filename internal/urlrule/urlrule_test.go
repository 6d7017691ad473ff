package urlrule

import "testing"

func TestResolve_Placeholders(t *testing.T) {
	vars := map[string]string{"key": "三体"}
	p := Resolve("https://x.test/s?q={{key}}&kw=searchKey", vars, "")
	want := "https://x.test/s?q=%E4%B8%89%E4%BD%93&kw=%E4%B8%89%E4%BD%93"
	if p.URL != want { t.Fatalf("url = %q, want %q", p.URL, want) }
	if p.Method != "GET" { t.Fatalf("method = %q", p.Method) }

	p = Resolve("/s?q={{encodeURIComponent(key)}}", vars, "https://x.test/")
	if p.URL != "https://x.test/s?q=%E4%B8%89%E4%BD%93" { t.Fatalf("encode form: %q", p.URL) }

	p = Resolve("s?q=$key", map[string]string{"key": "abc"}, "https://x.test")
	if p.URL != "https://x.test/s?q=abc" { t.Fatalf("dollar form: %q", p.URL) }
}

func TestResolve_InlineOptions(t *testing.T) {
	vars := map[string]string{"key": "三体"}
	p := Resolve(`/search,{"method":"POST","charset":"gbk","body":"kw={{key}}","headers":{"Referer":"https://x.test"}}`, vars, "https://x.test")
	if p.URL != "https://x.test/search" { t.Fatalf("url = %q", p.URL) }
	if p.Method != "POST" || p.Charset != "gbk" { t.Fatalf("method/charset = %q/%q", p.Method, p.Charset) }
	// body placeholders keep the raw value, only the query string is escaped
	if p.Body != "kw=三体" { t.Fatalf("body = %q", p.Body) }
	if p.Headers["Referer"] != "https://x.test" { t.Fatalf("headers = %v", p.Headers) }
}

func TestResolve_OptionsCommaInsideURL(t *testing.T) {
	// earlier ",{" offsets that do not parse to the end are not the cut point
	p := Resolve(`/api?a=,{b}&c=1,{"method":"POST"}`, nil, "")
	if p.URL != "/api?a=,{b}&c=1" || p.Method != "POST" { t.Fatalf("url = %q method = %q", p.URL, p.Method) }
	// no trailing JSON object: template untouched
	p = Resolve("/plain?x=1", nil, "")
	if p.URL != "/plain?x=1" || p.Method != "GET" { t.Fatalf("plain = %+v", p) }
}

func TestResolve_LegacySuffix(t *testing.T) {
	p := Resolve(`/s?q={{key}}@header{"X-Auth":"1"}@charset=gbk`, map[string]string{"key": "a"}, "https://x.test")
	if p.Headers["X-Auth"] != "1" { t.Fatalf("headers = %v", p.Headers) }
	if p.Charset != "gbk" { t.Fatalf("charset = %q", p.Charset) }
	if p.URL != "https://x.test/s?q=a" { t.Fatalf("url = %q", p.URL) }
}

func TestAbsolute(t *testing.T) {
	if got := Absolute("chapter/1", "https://x.test/"); got != "https://x.test/chapter/1" { t.Fatalf("relative: %q", got) }
	if got := Absolute("/chapter/1", "https://x.test"); got != "https://x.test/chapter/1" { t.Fatalf("rooted: %q", got) }
	if got := Absolute("https://y.test/a", "https://x.test"); got != "https://y.test/a" { t.Fatalf("absolute: %q", got) }
	if got := Absolute("", "https://x.test"); got != "" { t.Fatalf("empty: %q", got) }
}
