package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/mmcdole/gofeed"

	"go-book-source/internal/fetch"
	"go-book-source/internal/model"
	"go-book-source/internal/urlrule"
)

// RSS 型书源：订阅本身视作一本"书"，条目即章节。
// 条目正文在取目录时顺手写入正文缓存，Content 命中缓存即可直接返回，
// 未命中再退化为抓取条目页面。

func (e *Engine) searchRSS(ctx context.Context, src *model.Source, keyword string) ([]model.BookInfo, error) {
	feed, feedURL, err := e.fetchFeed(ctx, src, "")
	if err != nil {
		return nil, err
	}
	if keyword != "" && !strings.Contains(strings.ToLower(feed.Title), strings.ToLower(keyword)) {
		return nil, nil
	}
	b := model.BookInfo{
		BookID:   model.BookID(feed.Title, ""),
		Name:     feed.Title,
		Intro:    feed.Description,
		BookURL:  feedURL,
		SourceID: src.ID,
	}
	if feed.Image != nil {
		b.CoverURL = feed.Image.URL
	}
	if len(feed.Items) > 0 {
		b.LastChapter = feed.Items[0].Title
	}
	b.Alternatives = []model.AltSource{{SourceID: src.ID, SourceName: src.Name, BookURL: feedURL}}
	return []model.BookInfo{b}, nil
}

func (e *Engine) chaptersRSS(ctx context.Context, src *model.Source, book *model.BookInfo) ([]model.ChapterInfo, error) {
	feed, _, err := e.fetchFeed(ctx, src, book.BookURL)
	if err != nil {
		return nil, err
	}
	var out []model.ChapterInfo
	for _, it := range feed.Items {
		if it.Title == "" || it.Link == "" {
			continue
		}
		link := urlrule.Absolute(it.Link, src.Host)
		out = append(out, model.ChapterInfo{
			Name:       it.Title,
			URL:        link,
			UpdateTime: it.Published,
		})
		// 条目自带正文的直接暖缓存，省一次回源
		if body := strings.TrimSpace(firstNonEmpty(it.Content, it.Description)); body != "" {
			e.cache.Put(ctx, link, body)
		}
	}
	if len(out) == 0 {
		return nil, errOf(KindEmpty, "chapters", ErrEmptyChapterList)
	}
	return out, nil
}

// fetchFeed 抓取并解析订阅；bookURL 非空时优先于书源配置的地址。
func (e *Engine) fetchFeed(ctx context.Context, src *model.Source, bookURL string) (*gofeed.Feed, string, error) {
	feedURL := bookURL
	if feedURL == "" {
		feedURL = src.SearchURL
	}
	if feedURL == "" {
		feedURL = src.Host
	}
	if feedURL == "" {
		return nil, "", errConfig("rss", "source missing feed url")
	}
	feedURL = urlrule.Absolute(feedURL, src.Host)
	resp, err := e.fetch.Do(ctx, fetch.Request{URL: feedURL})
	if err != nil {
		return nil, "", errOf(KindNetwork, "rss", err)
	}
	if !resp.Success {
		return nil, "", errOf(KindNetwork, "rss", errors.New(resp.Error))
	}
	feed, err := gofeed.NewParser().ParseString(resp.Data)
	if err != nil {
		return nil, "", errOf(KindEmpty, "rss", err)
	}
	return feed, feedURL, nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
