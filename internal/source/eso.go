package source

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"

	"go-book-source/internal/model"
)

// esoPrefix 为 eso 方言自描述编码的前缀：eso:// + base64(gzip(JSON 数组))。
const esoPrefix = "eso://"

// esoSource 为 eso 方言的线格式字段（扁平结构）。
type esoSource struct {
	SourceName        string `json:"sourceName"`
	SourceURL         string `json:"sourceUrl"`
	SourceGroup       string `json:"sourceGroup,omitempty"`
	ContentType       string `json:"contentType,omitempty"`
	Enable            *bool  `json:"enable,omitempty"`
	Weight            int    `json:"weight,omitempty"`
	SearchURL         string `json:"searchUrl,omitempty"`
	SearchList        string `json:"searchList,omitempty"`
	SearchName        string `json:"searchName,omitempty"`
	SearchAuthor      string `json:"searchAuthor,omitempty"`
	SearchCover       string `json:"searchCover,omitempty"`
	SearchDescription string `json:"searchDescription,omitempty"`
	SearchChapter     string `json:"searchChapter,omitempty"`
	SearchResult      string `json:"searchResult,omitempty"`
	ChapterURL        string `json:"chapterUrl,omitempty"`
	ChapterList       string `json:"chapterList,omitempty"`
	ChapterName       string `json:"chapterName,omitempty"`
	ChapterResult     string `json:"chapterResult,omitempty"`
	ChapterTime       string `json:"chapterTime,omitempty"`
	ChapterLock       string `json:"chapterLock,omitempty"`
	ContentURL        string `json:"contentUrl,omitempty"`
	ContentItems      string `json:"contentItems,omitempty"`
}

var esoTypes = map[string]model.ContentType{
	"novel": model.TypeNovel, "comic": model.TypeComic,
	"audio": model.TypeAudio, "video": model.TypeVideo, "rss": model.TypeRSS,
}

// decodeESO 解开压缩外壳后逐条独立转换。
func decodeESO(data string) ([]model.Source, []string) {
	payload, err := unwrapESO(data)
	if err != nil {
		return nil, []string{err.Error()}
	}
	var raws []jsoniter.RawMessage
	if strings.HasPrefix(strings.TrimSpace(payload), "[") {
		if err := json.UnmarshalFromString(payload, &raws); err != nil {
			return nil, []string{fmt.Sprintf("eso array: %v", err)}
		}
	} else {
		raws = []jsoniter.RawMessage{jsoniter.RawMessage(payload)}
	}
	var out []model.Source
	var errs []string
	for i, raw := range raws {
		var es esoSource
		if err := json.Unmarshal(raw, &es); err != nil {
			errs = append(errs, fmt.Sprintf("eso entry %d: %v", i, err))
			continue
		}
		if es.SourceName == "" && es.SourceURL == "" {
			errs = append(errs, fmt.Sprintf("eso entry %d: missing sourceName/sourceUrl", i))
			continue
		}
		out = append(out, fromESO(es))
	}
	return out, errs
}

func unwrapESO(data string) (string, error) {
	b64 := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(data), esoPrefix))
	zipped, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("eso base64: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(zipped))
	if err != nil {
		return "", fmt.Errorf("eso gzip: %w", err)
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("eso inflate: %w", err)
	}
	return string(raw), nil
}

func fromESO(es esoSource) model.Source {
	ct, ok := esoTypes[strings.ToLower(es.ContentType)]
	if !ok {
		ct = model.TypeNovel
	}
	return model.Source{
		ID:          model.SourceID(es.SourceName, es.SourceURL),
		Name:        es.SourceName,
		Host:        es.SourceURL,
		Group:       es.SourceGroup,
		ContentType: ct,
		Dialect:     model.DialectESO,
		Enabled:     es.Enable == nil || *es.Enable,
		Weight:      es.Weight,
		SearchURL:   es.SearchURL,
		ChapterURL:  es.ChapterURL,
		ContentURL:  es.ContentURL,
		Search: model.SearchRules{
			List:        es.SearchList,
			Name:        es.SearchName,
			Author:      es.SearchAuthor,
			Cover:       es.SearchCover,
			Intro:       es.SearchDescription,
			LastChapter: es.SearchChapter,
			Result:      es.SearchResult,
		},
		Chapters: model.ChapterRules{
			List:       es.ChapterList,
			Name:       es.ChapterName,
			URL:        es.ChapterResult,
			UpdateTime: es.ChapterTime,
			Locked:     es.ChapterLock,
		},
		Content: model.ContentRules{Body: es.ContentItems},
	}
}

func toESO(s model.Source) esoSource {
	enable := s.Enabled
	return esoSource{
		SourceName:        s.Name,
		SourceURL:         s.Host,
		SourceGroup:       s.Group,
		ContentType:       string(s.ContentType),
		Enable:            &enable,
		Weight:            s.Weight,
		SearchURL:         s.SearchURL,
		SearchList:        s.Search.List,
		SearchName:        s.Search.Name,
		SearchAuthor:      s.Search.Author,
		SearchCover:       s.Search.Cover,
		SearchDescription: s.Search.Intro,
		SearchChapter:     s.Search.LastChapter,
		SearchResult:      s.Search.Result,
		ChapterURL:        s.ChapterURL,
		ChapterList:       s.Chapters.List,
		ChapterName:       s.Chapters.Name,
		ChapterResult:     s.Chapters.URL,
		ChapterTime:       s.Chapters.UpdateTime,
		ChapterLock:       s.Chapters.Locked,
		ContentURL:        s.ContentURL,
		ContentItems:      s.Content.Body,
	}
}

// encodeESO 序列化为 eso:// 压缩编码。
func encodeESO(list []model.Source) (string, error) {
	out := make([]esoSource, 0, len(list))
	for _, s := range list {
		out = append(out, toESO(s))
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal eso: %w", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", fmt.Errorf("gzip eso: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("close gzip: %w", err)
	}
	return esoPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
