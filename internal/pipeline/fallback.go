package pipeline

import (
	"context"
	"errors"
	"sync"

	"go-book-source/internal/logx"
	"go-book-source/internal/model"
	"go-book-source/internal/source"
)

// errExhausted 为内部标记：候选书源全部尝试失败。
var errExhausted = errors.New("alternatives exhausted")

// ChaptersWithFallback 先走主书源取目录；失败时沿 Alternatives 依序
// 尝试其它书源，首个给出非空目录的候选胜出并切换书籍的活动书源。
// 全部耗尽时上抛主书源的原始错误（主书源才是用户声明的意图）。
func (e *Engine) ChaptersWithFallback(ctx context.Context, mgr *source.Manager, book *model.BookInfo) ([]model.ChapterInfo, error) {
	src, ok := mgr.Get(book.SourceID)
	if !ok {
		return nil, errConfig("chapters", "unknown source "+book.SourceID)
	}
	chs, origErr := e.Chapters(ctx, &src, book)
	if origErr == nil {
		return chs, nil
	}
	if chs, _, _, err := e.tryAlternatives(ctx, mgr, book); err == nil {
		return chs, nil
	}
	return nil, origErr
}

// ContentAt 读取第 index 章（0 起）。主书源目录或正文失败时回退：
// 候选书源目录取到后，章节序号夹到新目录长度内再续读。
func (e *Engine) ContentAt(ctx context.Context, mgr *source.Manager, book *model.BookInfo, index int) (string, *model.ChapterInfo, error) {
	src, ok := mgr.Get(book.SourceID)
	if !ok {
		return "", nil, errConfig("content", "unknown source "+book.SourceID)
	}
	var origErr error
	chs, err := e.Chapters(ctx, &src, book)
	if err == nil {
		i := clampIndex(index, len(chs))
		content, cerr := e.Content(ctx, &src, &chs[i])
		if cerr == nil {
			return content, &chs[i], nil
		}
		origErr = cerr
	} else {
		origErr = err
	}
	chs, altSrc, _, err := e.tryAlternatives(ctx, mgr, book)
	if err != nil {
		return "", nil, origErr
	}
	i := clampIndex(index, len(chs))
	content, cerr := e.Content(ctx, &altSrc, &chs[i])
	if cerr != nil {
		return "", nil, origErr
	}
	return content, &chs[i], nil
}

// tryAlternatives 依序尝试候选书源（跳过当前失败的那个）。
// 成功即就地切换 book 的活动书源与链接。
func (e *Engine) tryAlternatives(ctx context.Context, mgr *source.Manager, book *model.BookInfo) ([]model.ChapterInfo, model.Source, model.AltSource, error) {
	current := book.SourceID
	for _, alt := range book.Alternatives {
		if alt.SourceID == current {
			continue
		}
		src, ok := mgr.Get(alt.SourceID)
		if !ok || !src.Enabled {
			continue
		}
		altBook := *book
		altBook.SourceID = alt.SourceID
		altBook.BookURL = alt.BookURL
		chs, err := e.Chapters(ctx, &src, &altBook)
		if err != nil || len(chs) == 0 {
			logx.Debugf("候选书源 %s 失败：%v", alt.SourceName, err)
			continue
		}
		book.SourceID = alt.SourceID
		book.BookURL = alt.BookURL
		logx.Infof("已切换书源：%s（%d 章）", alt.SourceName, len(chs))
		return chs, src, alt, nil
	}
	return nil, model.Source{}, model.AltSource{}, errExhausted
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// SearchAll 在多个书源上并发搜索（信号量限流，扇出/扇入），
// 单个书源失败不影响整体：部分结果也是有效结果。
func (e *Engine) SearchAll(ctx context.Context, sources []model.Source, keyword string, concurrency int) []model.BookInfo {
	if concurrency <= 0 {
		concurrency = 8
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var out []model.BookInfo
	for _, src := range sources {
		if !src.Enabled {
			continue
		}
		src := src
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			hits, err := e.Search(ctx, &src, keyword)
			if err != nil {
				logx.Warnf("[%s] 搜索失败：%v", src.Name, err)
				return
			}
			mu.Lock()
			out = append(out, hits...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return out
}

// LinkAlternatives 跨源关联：在其余书源上按书名搜索，名称与作者
// 一致的命中并入 book.Alternatives（按书源权重顺序，自身保留在首位）。
func (e *Engine) LinkAlternatives(ctx context.Context, sources []model.Source, book *model.BookInfo, concurrency int) int {
	var others []model.Source
	for _, src := range sources {
		if src.ID != book.SourceID {
			others = append(others, src)
		}
	}
	hits := e.SearchAll(ctx, others, book.Name, concurrency)
	added := 0
	seen := map[string]bool{book.SourceID: true}
	for _, a := range book.Alternatives {
		seen[a.SourceID] = true
	}
	for _, h := range hits {
		if h.BookID != book.BookID || seen[h.SourceID] || h.BookURL == "" {
			continue
		}
		name := ""
		for _, src := range others {
			if src.ID == h.SourceID {
				name = src.Name
				break
			}
		}
		book.Alternatives = append(book.Alternatives, model.AltSource{
			SourceID: h.SourceID, SourceName: name, BookURL: h.BookURL,
		})
		seen[h.SourceID] = true
		added++
	}
	return added
}
