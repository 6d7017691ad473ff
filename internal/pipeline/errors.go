package pipeline

import (
	"errors"
	"fmt"
)

// Kind 为错误类别标签，供界面区分"修书源/重试/换源"三种提示。
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig       // 书源缺少该操作所需的规则或 URL，未发请求即失败
	KindNetwork      // 传输失败（网络错误/超时/非 2xx）
	KindEmpty        // 选择器无命中，或清洗后为空（区别于传输失败）
)

// ErrEmptyChapterList 标记"目录抓取成功但无任何存活条目"。
var ErrEmptyChapterList = errors.New("empty chapter list")

// Error 为带类别标签的管道错误。
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// errOf 构造带类别的错误。
func errOf(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func errConfig(op, msg string) error {
	return errOf(KindConfig, op, errors.New(msg))
}

// KindOf 提取错误类别；非管道错误归为 KindUnknown。
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
