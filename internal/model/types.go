// 包 model 定义领域数据模型（书源/书籍/章节/导入结果）。
package model

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Dialect 为规则方言：两套字符串语法，结构相似、词法不同。
type Dialect string

const (
	DialectESO    Dialect = "eso"
	DialectLegado Dialect = "legado"
)

// ContentType 为书源承载的内容类型。
type ContentType string

const (
	TypeNovel ContentType = "novel"
	TypeComic ContentType = "comic"
	TypeAudio ContentType = "audio"
	TypeVideo ContentType = "video"
	TypeRSS   ContentType = "rss"
)

// SearchRules 为搜索阶段的选择器集合：列表选择器 + 各字段选择器。
type SearchRules struct {
	List        string `json:"list"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	Cover       string `json:"cover"`
	Intro       string `json:"intro"`
	LastChapter string `json:"lastChapter"`
	Result      string `json:"result"` // 结果链接（详情页/目录页）
}

// ChapterRules 为目录阶段的选择器集合。
type ChapterRules struct {
	List       string `json:"list"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	UpdateTime string `json:"updateTime"`
	Locked     string `json:"locked"`
}

// ContentRules 为正文阶段的选择器与清洗规则。
type ContentRules struct {
	Body         string `json:"body"`
	ReplaceRegex string `json:"replaceRegex"` // 可选的正文清洗 ##pattern##repl
}

// Source 表示一个抓取目标站点及其四个阶段的规则包。
// 某阶段可用的前提：该阶段的列表选择器与主 URL 均非空。
type Source struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Host        string       `json:"host"`
	Group       string       `json:"group"`
	ContentType ContentType  `json:"contentType"`
	Dialect     Dialect      `json:"dialect"`
	Enabled     bool         `json:"enabled"`
	Weight      int          `json:"weight"`
	SearchURL   string       `json:"searchUrl"`   // 含 {{key}} 等占位符的模板
	BookURLRule string       `json:"bookUrlRule"` // 可选：详情页中提取真实目录页地址
	ChapterURL  string       `json:"chapterUrl"`  // 可选：目录页 URL 模板
	ContentURL  string       `json:"contentUrl"`  // 可选：正文页 URL 模板
	Search      SearchRules  `json:"search"`
	Chapters    ChapterRules `json:"chapters"`
	Content     ContentRules `json:"content"`
}

// CanSearch 判断搜索阶段是否可用。
func (s *Source) CanSearch() bool {
	if s.ContentType == TypeRSS {
		return s.SearchURL != "" || s.Host != ""
	}
	return s.SearchURL != "" && s.Search.List != ""
}

// CanChapters 判断目录阶段是否可用（目录 URL 缺省时使用书籍链接本身）。
func (s *Source) CanChapters() bool {
	if s.ContentType == TypeRSS {
		return s.Host != "" || s.SearchURL != ""
	}
	return s.Chapters.List != ""
}

// AltSource 记录同一本书在其它书源上的等价副本，用于失败回退。
type AltSource struct {
	SourceID   string `json:"sourceId"`
	SourceName string `json:"sourceName"`
	BookURL    string `json:"bookUrl"`
}

// BookInfo 为搜索产出的书籍条目；BookID 以规范化书名+作者散列，
// 作为跨书源的身份标识。
type BookInfo struct {
	BookID       string      `json:"bookId"`
	Name         string      `json:"name"`
	Author       string      `json:"author,omitempty"`
	CoverURL     string      `json:"coverUrl,omitempty"`
	Intro        string      `json:"intro,omitempty"`
	LastChapter  string      `json:"lastChapter,omitempty"`
	BookURL      string      `json:"bookUrl"`
	SourceID     string      `json:"sourceId"`
	Alternatives []AltSource `json:"alternativeSources,omitempty"`
}

// ChapterInfo 为目录产出的章节条目；身份即 URL，创建后不再修改。
type ChapterInfo struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Locked     bool   `json:"locked,omitempty"`
	UpdateTime string `json:"updateTime,omitempty"`
}

// ImportResult 为一次导入调用的汇总结果，不落库。
type ImportResult struct {
	SuccessCount int      `json:"successCount"`
	FailedCount  int      `json:"failedCount"`
	Errors       []string `json:"errors,omitempty"`
}

// BookID 以规范化（去空白、小写）的书名+作者计算稳定散列。
func BookID(name, author string) string {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), ""))
	}
	sum := md5.Sum([]byte(norm(name) + "\n" + norm(author)))
	return hex.EncodeToString(sum[:])
}

// SourceID 由名称+站点散列得到稳定 ID。
func SourceID(name, host string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(name) + "\n" + strings.TrimSpace(host)))
	return hex.EncodeToString(sum[:])[:16]
}
