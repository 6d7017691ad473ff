// 包 pipeline 负责抓取主流程编排：搜索、取目录、取正文三个操作，
// 外加正文预载与跨书源回退。规则解析与选择器求值由 rule/resolve 承担，
// 本包只做阶段串联、URL 展开、字段装配与缓存读写。
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-book-source/internal/cache"
	"go-book-source/internal/fetch"
	"go-book-source/internal/logx"
	"go-book-source/internal/model"
	"go-book-source/internal/resolve"
	"go-book-source/internal/rule"
	"go-book-source/internal/urlrule"
)

// Engine 为抓取管道；显式注入依赖（便于测试隔离，不设进程级单例）。
type Engine struct {
	fetch *fetch.Client
	cache *cache.Cache
}

// New 创建管道。
func New(cl *fetch.Client, c *cache.Cache) *Engine {
	return &Engine{fetch: cl, cache: c}
}

// Search 在单个书源上搜索：展开搜索 URL → 抓取 → 列表选择器逐条命中 →
// 各字段选择器装配 BookInfo。名称与链接都缺失的条目跳过（不报错）；
// 空结果是合法结果，不是错误。
func (e *Engine) Search(ctx context.Context, src *model.Source, keyword string) ([]model.BookInfo, error) {
	if src.ContentType == model.TypeRSS {
		return e.searchRSS(ctx, src, keyword)
	}
	if !src.CanSearch() {
		return nil, errConfig("search", "source missing search url or list rule")
	}
	p := urlrule.Resolve(src.SearchURL, map[string]string{"key": keyword}, src.Host)
	doc, err := e.fetchDoc(ctx, "search", p)
	if err != nil {
		return nil, err
	}
	vars := map[string]string{"key": keyword, "baseUrl": src.Host}
	dialect := string(src.Dialect)
	hits := doc.All(rule.Parse(src.Search.List, dialect), vars)
	var out []model.BookInfo
	for _, hit := range hits {
		item := resolve.FromMatch(hit)
		field := func(r string) string {
			if r == "" {
				return ""
			}
			return item.Text(rule.Parse(r, dialect), vars)
		}
		name := field(src.Search.Name)
		link := urlrule.Absolute(field(src.Search.Result), src.Host)
		if name == "" && link == "" {
			continue
		}
		author := field(src.Search.Author)
		b := model.BookInfo{
			BookID:      model.BookID(name, author),
			Name:        name,
			Author:      author,
			CoverURL:    urlrule.Absolute(field(src.Search.Cover), src.Host),
			Intro:       field(src.Search.Intro),
			LastChapter: field(src.Search.LastChapter),
			BookURL:     link,
			SourceID:    src.ID,
		}
		// 自身也记入候选列表，便于换源后再换回来
		b.Alternatives = []model.AltSource{{SourceID: src.ID, SourceName: src.Name, BookURL: link}}
		out = append(out, b)
	}
	return out, nil
}

// Chapters 取目录。书源定义了 BookURLRule 时先做一次详情页往返，
// 从详情页提出真实目录页地址。存活条目为空时报 ErrEmptyChapterList
// （调用方据此与"抓取成功但书本就没有章节"区分——后者不会出现在
// 本管道：没有条目即按错误上抛）。
func (e *Engine) Chapters(ctx context.Context, src *model.Source, book *model.BookInfo) ([]model.ChapterInfo, error) {
	if src.ContentType == model.TypeRSS {
		return e.chaptersRSS(ctx, src, book)
	}
	if !src.CanChapters() {
		return nil, errConfig("chapters", "source missing chapter list rule")
	}
	dialect := string(src.Dialect)
	vars := map[string]string{"key": book.BookURL, "bookUrl": book.BookURL, "baseUrl": src.Host}

	tocURL := book.BookURL
	if src.BookURLRule != "" {
		detail, err := e.fetchDoc(ctx, "chapters", urlrule.Resolve(tocURL, vars, src.Host))
		if err != nil {
			return nil, err
		}
		if u := detail.Text(rule.Parse(src.BookURLRule, dialect), vars); u != "" {
			tocURL = urlrule.Absolute(u, src.Host)
		}
	}
	var p urlrule.Parsed
	if src.ChapterURL != "" {
		p = urlrule.Resolve(src.ChapterURL, map[string]string{"key": tocURL, "bookUrl": tocURL}, src.Host)
	} else {
		p = urlrule.Resolve(tocURL, vars, src.Host)
	}
	doc, err := e.fetchDoc(ctx, "chapters", p)
	if err != nil {
		return nil, err
	}
	hits := doc.All(rule.Parse(src.Chapters.List, dialect), vars)
	var out []model.ChapterInfo
	for _, hit := range hits {
		item := resolve.FromMatch(hit)
		field := func(r string) string {
			if r == "" {
				return ""
			}
			return item.Text(rule.Parse(r, dialect), vars)
		}
		name := field(src.Chapters.Name)
		link := urlrule.Absolute(field(src.Chapters.URL), src.Host)
		if name == "" || link == "" {
			continue
		}
		out = append(out, model.ChapterInfo{
			Name:       name,
			URL:        link,
			UpdateTime: field(src.Chapters.UpdateTime),
			Locked:     isTruthy(field(src.Chapters.Locked)),
		})
	}
	if len(out) == 0 {
		return nil, errOf(KindEmpty, "chapters", ErrEmptyChapterList)
	}
	return out, nil
}

// Content 取正文。以展开后的最终正文 URL 为键先查缓存（命中即返回，
// 不发网络请求）；未命中则抓取并解析正文选择器。多段命中各自独立
// 提取后包成段落再拼接，保住段落边界；抓成后非空结果回写缓存。
func (e *Engine) Content(ctx context.Context, src *model.Source, ch *model.ChapterInfo) (string, error) {
	dialect := string(src.Dialect)
	vars := map[string]string{"key": ch.URL, "chapterUrl": ch.URL, "baseUrl": src.Host}
	var p urlrule.Parsed
	if src.ContentURL != "" {
		p = urlrule.Resolve(src.ContentURL, map[string]string{"key": ch.URL}, src.Host)
	} else {
		p = urlrule.Resolve(ch.URL, vars, src.Host)
	}
	if v, ok := e.cache.Get(ctx, p.URL); ok {
		return v, nil
	}
	if src.Content.Body == "" && src.ContentType != model.TypeRSS {
		return "", errConfig("content", "source missing content rule")
	}
	doc, err := e.fetchDoc(ctx, "content", p)
	if err != nil {
		return "", err
	}
	var content string
	if src.Content.Body == "" {
		content = doc.Text(rule.Parse("textNodes", dialect), vars)
	} else {
		ss := doc.Strings(rule.Parse(src.Content.Body, dialect), vars)
		switch len(ss) {
		case 0:
			// 区分"选择器无命中"与传输失败，界面可提示换源
			return "", errOf(KindEmpty, "content", errors.New("content rule matched nothing"))
		case 1:
			content = ss[0]
		default:
			var b strings.Builder
			for _, s := range ss {
				b.WriteString("<p>")
				b.WriteString(s)
				b.WriteString("</p>\n")
			}
			content = strings.TrimSpace(b.String())
		}
	}
	if src.Content.ReplaceRegex != "" {
		pat, repl, _ := strings.Cut(src.Content.ReplaceRegex, "##")
		content = rule.Clean(content, pat, repl)
	}
	if content == "" {
		return "", errOf(KindEmpty, "content", errors.New("content empty after cleanup"))
	}
	e.cache.Put(ctx, p.URL, content)
	return content, nil
}

// Preload 预载下一章以暖缓存：脱离调用方的等待链路（fire-and-forget），
// 一切失败只记日志，绝不上抛。
func (e *Engine) Preload(src *model.Source, ch *model.ChapterInfo) {
	s := *src
	c := *ch
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logx.Warnf("预载异常：%v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := e.Content(ctx, &s, &c); err != nil {
			logx.Debugf("预载失败：%s %v", c.URL, err)
		}
	}()
}

// fetchDoc 执行请求并把响应体按结构解析为文档（JSON 体直接走原文）。
func (e *Engine) fetchDoc(ctx context.Context, op string, p urlrule.Parsed) (*resolve.Doc, error) {
	resp, err := e.fetch.Do(ctx, fetch.Request{
		URL: p.URL, Method: p.Method, Headers: p.Headers, Body: p.Body, Charset: p.Charset,
	})
	if err != nil {
		return nil, errOf(KindNetwork, op, err)
	}
	if !resp.Success {
		return nil, errOf(KindNetwork, op, errors.New(resp.Error))
	}
	doc, err := parseDoc(resp.Data)
	if err != nil {
		return nil, errOf(KindNetwork, op, err)
	}
	return doc, nil
}

func parseDoc(data string) (*resolve.Doc, error) {
	t := strings.TrimSpace(data)
	if strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[") {
		return resolve.FromRaw(data), nil
	}
	return resolve.ParseHTML(data)
}

// isTruthy 把 locked/isVip 一类字段的提取值折算为布尔。
func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "0", "null", "no":
		return false
	default:
		return true
	}
}
