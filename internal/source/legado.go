package source

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"go-book-source/internal/model"
)

// legadoSource 为 legado 方言的线格式字段。
type legadoSource struct {
	BookSourceName  string `json:"bookSourceName"`
	BookSourceURL   string `json:"bookSourceUrl"`
	BookSourceGroup string `json:"bookSourceGroup,omitempty"`
	BookSourceType  int    `json:"bookSourceType"`
	Enabled         *bool  `json:"enabled,omitempty"` // 缺省视为启用
	Weight          int    `json:"weight,omitempty"`
	SearchURL       string `json:"searchUrl,omitempty"`
	RuleSearch      struct {
		BookList    string `json:"bookList,omitempty"`
		Name        string `json:"name,omitempty"`
		Author      string `json:"author,omitempty"`
		CoverURL    string `json:"coverUrl,omitempty"`
		Intro       string `json:"intro,omitempty"`
		LastChapter string `json:"lastChapter,omitempty"`
		BookURL     string `json:"bookUrl,omitempty"`
	} `json:"ruleSearch,omitempty"`
	RuleBookInfo struct {
		TocURL string `json:"tocUrl,omitempty"`
	} `json:"ruleBookInfo,omitempty"`
	RuleToc struct {
		ChapterList string `json:"chapterList,omitempty"`
		ChapterName string `json:"chapterName,omitempty"`
		ChapterURL  string `json:"chapterUrl,omitempty"`
		UpdateTime  string `json:"updateTime,omitempty"`
		IsVIP       string `json:"isVip,omitempty"`
	} `json:"ruleToc,omitempty"`
	RuleContent struct {
		Content      string `json:"content,omitempty"`
		ReplaceRegex string `json:"replaceRegex,omitempty"`
	} `json:"ruleContent,omitempty"`
}

// legado bookSourceType：0 文字 1 音频 2 图片 3 订阅。
var legadoTypes = map[int]model.ContentType{
	0: model.TypeNovel,
	1: model.TypeAudio,
	2: model.TypeComic,
	3: model.TypeRSS,
}

func legadoTypeOf(t model.ContentType) int {
	for k, v := range legadoTypes {
		if v == t {
			return k
		}
	}
	return 0
}

// decodeLegado 解析明文 JSON（单对象或数组），逐条独立转换。
func decodeLegado(data string) ([]model.Source, []string) {
	data = strings.TrimSpace(data)
	var raws []jsoniter.RawMessage
	if strings.HasPrefix(data, "[") {
		if err := json.UnmarshalFromString(data, &raws); err != nil {
			return nil, []string{fmt.Sprintf("legado array: %v", err)}
		}
	} else {
		raws = []jsoniter.RawMessage{jsoniter.RawMessage(data)}
	}
	var out []model.Source
	var errs []string
	for i, raw := range raws {
		var ls legadoSource
		if err := json.Unmarshal(raw, &ls); err != nil {
			errs = append(errs, fmt.Sprintf("legado entry %d: %v", i, err))
			continue
		}
		if ls.BookSourceName == "" && ls.BookSourceURL == "" {
			errs = append(errs, fmt.Sprintf("legado entry %d: missing bookSourceName/bookSourceUrl", i))
			continue
		}
		out = append(out, fromLegado(ls))
	}
	return out, errs
}

func fromLegado(ls legadoSource) model.Source {
	ct, ok := legadoTypes[ls.BookSourceType]
	if !ok {
		ct = model.TypeNovel
	}
	s := model.Source{
		ID:          model.SourceID(ls.BookSourceName, ls.BookSourceURL),
		Name:        ls.BookSourceName,
		Host:        ls.BookSourceURL,
		Group:       ls.BookSourceGroup,
		ContentType: ct,
		Dialect:     model.DialectLegado,
		Enabled:     ls.Enabled == nil || *ls.Enabled,
		Weight:      ls.Weight,
		SearchURL:   ls.SearchURL,
		BookURLRule: ls.RuleBookInfo.TocURL,
	}
	s.Search = model.SearchRules{
		List:        ls.RuleSearch.BookList,
		Name:        ls.RuleSearch.Name,
		Author:      ls.RuleSearch.Author,
		Cover:       ls.RuleSearch.CoverURL,
		Intro:       ls.RuleSearch.Intro,
		LastChapter: ls.RuleSearch.LastChapter,
		Result:      ls.RuleSearch.BookURL,
	}
	s.Chapters = model.ChapterRules{
		List:       ls.RuleToc.ChapterList,
		Name:       ls.RuleToc.ChapterName,
		URL:        ls.RuleToc.ChapterURL,
		UpdateTime: ls.RuleToc.UpdateTime,
		Locked:     ls.RuleToc.IsVIP,
	}
	s.Content = model.ContentRules{
		Body:         ls.RuleContent.Content,
		ReplaceRegex: ls.RuleContent.ReplaceRegex,
	}
	return s
}

func toLegado(s model.Source) legadoSource {
	var ls legadoSource
	ls.BookSourceName = s.Name
	ls.BookSourceURL = s.Host
	ls.BookSourceGroup = s.Group
	ls.BookSourceType = legadoTypeOf(s.ContentType)
	enabled := s.Enabled
	ls.Enabled = &enabled
	ls.Weight = s.Weight
	ls.SearchURL = s.SearchURL
	ls.RuleBookInfo.TocURL = s.BookURLRule
	ls.RuleSearch.BookList = s.Search.List
	ls.RuleSearch.Name = s.Search.Name
	ls.RuleSearch.Author = s.Search.Author
	ls.RuleSearch.CoverURL = s.Search.Cover
	ls.RuleSearch.Intro = s.Search.Intro
	ls.RuleSearch.LastChapter = s.Search.LastChapter
	ls.RuleSearch.BookURL = s.Search.Result
	ls.RuleToc.ChapterList = s.Chapters.List
	ls.RuleToc.ChapterName = s.Chapters.Name
	ls.RuleToc.ChapterURL = s.Chapters.URL
	ls.RuleToc.UpdateTime = s.Chapters.UpdateTime
	ls.RuleToc.IsVIP = s.Chapters.Locked
	ls.RuleContent.Content = s.Content.Body
	ls.RuleContent.ReplaceRegex = s.Content.ReplaceRegex
	return ls
}

// encodeLegado 序列化为 legado JSON 数组。
func encodeLegado(list []model.Source) (string, error) {
	out := make([]legadoSource, 0, len(list))
	for _, s := range list {
		out = append(out, toLegado(s))
	}
	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal legado: %w", err)
	}
	return string(raw), nil
}
