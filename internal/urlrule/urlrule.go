// 包 urlrule 负责把 URL 规则模板展开为具体的请求描述：
// 占位符替换、内联 JSON 请求配置、旧式 @header/@charset 后缀、
// 以及相对地址按 baseUrl 绝对化。纯值计算，不发起任何网络请求。
package urlrule

import (
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Parsed 为展开后的请求描述（值对象，每次调用重新计算）。
type Parsed struct {
	URL     string
	Method  string // GET | POST
	Body    string
	Headers map[string]string
	Charset string
}

// options 为 URL 尾部内联 JSON 配置的反序列化形态。
type options struct {
	Method  string            `json:"method"`
	Charset string            `json:"charset"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Resolve 展开 URL 模板。处理顺序（有语义次序）：
//  1. 尾部 ",{...}" 内联 JSON 配置（method/charset/body/headers）
//  2. 占位符替换：{{key}} / {{encodeURIComponent(key)}} / {{java.encodeURI(key)}}
//     / searchKey / $key —— URL 中替换为转义值，body 中保留原值
//  3. 相对地址按 baseUrl 绝对化
//  4. 旧式后缀 @header{...} 与 @charset=xxx
func Resolve(template string, vars map[string]string, baseURL string) Parsed {
	p := Parsed{Method: "GET"}
	u := strings.TrimSpace(template)

	u, opt := cutOptions(u)
	if opt != nil {
		if strings.EqualFold(opt.Method, "post") {
			p.Method = "POST"
		}
		p.Charset = opt.Charset
		p.Body = opt.Body
		p.Headers = opt.Headers
	}

	u, legacyHeaders, legacyCharset := cutLegacySuffix(u)
	if len(legacyHeaders) > 0 {
		if p.Headers == nil {
			p.Headers = legacyHeaders
		} else {
			for k, v := range legacyHeaders {
				p.Headers[k] = v
			}
		}
	}
	if legacyCharset != "" {
		p.Charset = legacyCharset
	}

	u = substitute(u, vars, true)
	p.Body = substitute(p.Body, vars, false)

	p.URL = absolutize(u, baseURL)
	return p
}

// cutOptions 识别尾部 ",{...}"（逗号后紧跟 JSON 对象并延伸到串尾）。
// 解析失败时不报错、原样保留（宽松失败）。
func cutOptions(u string) (string, *options) {
	if !strings.HasSuffix(strings.TrimSpace(u), "}") {
		return u, nil
	}
	// JSON 体内也可能出现 ",{"，取首个能整体解析到串尾的切点
	for off := 0; ; {
		i := strings.Index(u[off:], ",{")
		if i < 0 {
			return u, nil
		}
		i += off
		var opt options
		if err := json.UnmarshalFromString(strings.TrimSpace(u[i+1:]), &opt); err == nil {
			return u[:i], &opt
		}
		off = i + 1
	}
}

// cutLegacySuffix 剥离旧方言的 @header{...} 与 @charset=xxx 后缀。
func cutLegacySuffix(u string) (string, map[string]string, string) {
	var headers map[string]string
	var charset string
	if i := strings.Index(u, "@header{"); i >= 0 {
		if j := strings.Index(u[i:], "}"); j >= 0 {
			var h map[string]string
			if err := json.UnmarshalFromString(u[i+len("@header") : i+j+1], &h); err == nil {
				headers = h
			}
			u = u[:i] + u[i+j+1:]
		}
	}
	if i := strings.Index(u, "@charset="); i >= 0 {
		rest := u[i+len("@charset="):]
		end := strings.IndexAny(rest, "@&, ")
		if end < 0 {
			end = len(rest)
		}
		charset = rest[:end]
		u = u[:i] + rest[end:]
	}
	return strings.TrimSpace(u), headers, charset
}

// substitute 替换全部已识别的占位符形态。encode 控制取转义值还是原值：
// 查询串需要转义，POST body 的裸占位符保留原值（两条路径的方言差异都要保住），
// 但显式要求编码的 {{encodeURIComponent(key)}} 等形态始终转义。
func substitute(s string, vars map[string]string, encode bool) string {
	if s == "" || len(vars) == 0 {
		return s
	}
	for k, v := range vars {
		enc := url.QueryEscape(v)
		raw := v
		if encode {
			raw = enc
		}
		s = strings.ReplaceAll(s, "{{encodeURIComponent("+k+")}}", enc)
		s = strings.ReplaceAll(s, "{{java.encodeURI("+k+")}}", enc)
		s = strings.ReplaceAll(s, "{{"+k+"}}", raw)
		s = strings.ReplaceAll(s, "$"+k, raw)
	}
	if v, ok := vars["key"]; ok {
		if encode {
			v = url.QueryEscape(v)
		}
		s = strings.ReplaceAll(s, "searchKey", v)
	}
	return s
}

// Absolute 把相对地址按 baseUrl 绝对化（域内字段 URL 的统一收尾）。
func Absolute(u, base string) string { return absolutize(strings.TrimSpace(u), base) }

// absolutize 相对地址挂到 baseUrl 上：base 去尾斜杠，路径补头斜杠。
func absolutize(u, base string) string {
	if u == "" || base == "" ||
		strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	return base + u
}
