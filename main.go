// 命令行入口：
// - 解析 flags 与 settings.yaml
// - 初始化日志、HTTP 客户端、数据库、书源管理器与抓取管道
// - 支持书源导入/导出与搜索/目录/正文的调试运行
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go-book-source/internal/cache"
	"go-book-source/internal/config"
	"go-book-source/internal/fetch"
	"go-book-source/internal/logx"
	"go-book-source/internal/model"
	"go-book-source/internal/pipeline"
	"go-book-source/internal/source"
	"go-book-source/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "settings.yaml", "path to settings.yaml")
		importPath = flag.String("import", "", "import sources from file (legado json or eso://)")
		exportAll  = flag.Bool("export", false, "print all sources in wire format and exit")
		listFlag   = flag.Bool("list", false, "list sources and exit")
		search     = flag.String("search", "", "search keyword across enabled sources")
		chapters   = flag.String("chapters", "", "fetch chapter list for book url")
		read       = flag.String("read", "", "fetch content for chapter url")
		sourceID   = flag.String("source", "", "source id for -chapters/-read")
	)
	flag.Parse()

	// 1) 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// 2) 初始化日志：级别/格式/语言/颜色
	logx.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogLocale, cfg.LogColor)

	// 3) 存储与书源管理器
	st, err := store.OpenSQLite(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer st.Close()
	ctx := context.Background()
	mgr, err := source.NewManager(ctx, st)
	if err != nil {
		log.Fatalf("load sources: %v", err)
	}

	// 4) HTTP 客户端与抓取管道
	cl, err := fetch.New(fetch.Options{
		ProxyHTTP:  cfg.Proxy.HTTP,
		ProxyHTTPS: cfg.Proxy.HTTPS,
		Timeout:    25 * time.Second,
		Retry:      cfg.Concurrency.Retry,
	})
	if err != nil {
		log.Fatalf("http client: %v", err)
	}
	eng := pipeline.New(cl, cache.New(st, cfg.Cache.MaxTotalBytes, cfg.Cache.MaxEntryBytes))

	switch {
	case *importPath != "":
		data, err := os.ReadFile(*importPath)
		if err != nil {
			log.Fatalf("read import file: %v", err)
		}
		res := mgr.Import(ctx, string(data))
		logx.Infof("导入完成：成功=%d 失败=%d", res.SuccessCount, res.FailedCount)
		for _, e := range res.Errors {
			logx.Warnf("导入错误：%s", e)
		}
	case *exportAll:
		out, err := mgr.Export(nil)
		if err != nil {
			log.Fatalf("export: %v", err)
		}
		fmt.Println(out)
	case *listFlag:
		for _, s := range mgr.List() {
			logx.Infof("- %s 名称=%q 站点=%s 分组=%s 启用=%v", s.ID, s.Name, s.Host, s.Group, s.Enabled)
		}
	case *search != "":
		hits := eng.SearchAll(ctx, mgr.List(), *search, cfg.Concurrency.Fetch)
		logx.Infof("共 %d 条结果", len(hits))
		for _, b := range hits {
			logx.Infof("- %s 作者=%s 链接=%s", b.Name, b.Author, b.BookURL)
		}
	case *chapters != "":
		src, ok := mgr.Get(*sourceID)
		if !ok {
			log.Fatalf("unknown source id: %s", *sourceID)
		}
		book := &model.BookInfo{BookURL: *chapters, SourceID: src.ID}
		list, err := eng.Chapters(ctx, &src, book)
		if err != nil {
			log.Fatalf("chapters: %v", err)
		}
		logx.Infof("共 %d 章", len(list))
		for i, ch := range list {
			logx.Infof("%d. %s %s", i, ch.Name, ch.URL)
		}
	case *read != "":
		src, ok := mgr.Get(*sourceID)
		if !ok {
			log.Fatalf("unknown source id: %s", *sourceID)
		}
		body, err := eng.Content(ctx, &src, &model.ChapterInfo{URL: *read})
		if err != nil {
			log.Fatalf("content: %v", err)
		}
		fmt.Println(body)
	default:
		flag.Usage()
	}
}
