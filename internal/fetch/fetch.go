// 包 fetch 封装 HTTP 传输（代理/超时/重试/编码转换）。
// 上层以 Request/Response 描述交互；大陆站点常见的 GBK 系编码
// 在此层统一转为 UTF-8，下游只处理 UTF-8 文本。
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// Request 为一次抓取的请求描述（来自 URL 规则展开）。
type Request struct {
	URL       string
	Method    string // 缺省 GET
	Headers   map[string]string
	Body      string
	Charset   string // 响应编码提示（gbk/gb2312/gb18030）
	TimeoutMs int
}

// Response 为传输层结果；Success=false 时 Error 携带原因。
type Response struct {
	Success    bool
	StatusCode int
	Data       string
	Error      string
}

// Client 为带重试的 HTTP 客户端。
type Client struct {
	http  *http.Client
	retry int
}

// Options 为客户端构造参数。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration
	Retry      int
}

// New 创建客户端，支持 http/https 代理与基础超时配置。
func New(opts Options) (*Client, error) {
	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" && opts.ProxyHTTPS != "" {
				return url.Parse(opts.ProxyHTTPS)
			}
			if req.URL.Scheme == "http" && opts.ProxyHTTP != "" {
				return url.Parse(opts.ProxyHTTP)
			}
			return http.ProxyFromEnvironment(req)
		},
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	cl := &http.Client{Transport: transport}
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	cl.Timeout = opts.Timeout
	return &Client{http: cl, retry: opts.Retry}, nil
}

// Do 执行请求，带线性回退重试。非 2xx 与网络错误都折叠进 Response，
// 返回的 error 仅表示上下文取消这类不可重试的终止。
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}
	var lastErr error
	attempts := c.retry + 1
	for i := 0; i < attempts; i++ {
		resp, err := c.once(ctx, method, r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 300 * time.Millisecond):
		}
	}
	return &Response{Success: false, Error: lastErr.Error()}, nil
}

func (c *Client) once(ctx context.Context, method string, r Request) (*Response, error) {
	var body io.Reader
	if r.Body != "" {
		body = strings.NewReader(r.Body)
	}
	if r.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.TimeoutMs)*time.Millisecond)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	// 使用常见浏览器 UA，减少 403/反爬误判；支持环境变量覆盖（BSE_UA）
	ua := os.Getenv("BSE_UA")
	if ua == "" {
		ua = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
	}
	req.Header.Set("User-Agent", ua)
	if method == http.MethodPost && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status: %s", resp.Status)
	}
	data := decode(raw, pickCharset(r.Charset, resp.Header.Get("Content-Type")))
	return &Response{Success: true, StatusCode: resp.StatusCode, Data: data}, nil
}

// pickCharset 规则提示优先，其次 Content-Type 头。
func pickCharset(hint, contentType string) string {
	if hint != "" {
		return hint
	}
	ct := strings.ToLower(contentType)
	if i := strings.Index(ct, "charset="); i >= 0 {
		cs := ct[i+len("charset="):]
		if j := strings.IndexAny(cs, "; "); j >= 0 {
			cs = cs[:j]
		}
		return cs
	}
	return ""
}

// decode 把 GBK 系编码转为 UTF-8；未知或 UTF-8 原样返回。
// 转换失败时退回原始字节（宽松失败，交给上层按乱码处理）。
func decode(raw []byte, charset string) string {
	var enc encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "gbk", "gb2312":
		enc = simplifiedchinese.GBK
	case "gb18030":
		enc = simplifiedchinese.GB18030
	default:
		return string(raw)
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
