package rule

import (
	"regexp"
	"strings"
)

// Clean 对提取值做正则后处理。语义统一为"全量替换"：
// 未给出 replacement 时以空串替换（即删除全部命中）。
// 替换后 trim；trim 后为空串视为"未提取到"，返回空串由调用方判定。
// pattern 非法时吞掉错误、原值返回（宽松失败，便于 OR 组合尝试下一分支）。
func Clean(value, pattern, repl string) string {
	if pattern == "" {
		return value
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return value
	}
	return strings.TrimSpace(re.ReplaceAllString(value, repl))
}

// CleanRule 按叶子节点携带的正则后处理清洗值；无后处理时仅 trim。
func CleanRule(value string, r *Rule) string {
	if r == nil || r.Pattern == "" {
		return strings.TrimSpace(value)
	}
	return Clean(value, r.Pattern, r.Repl)
}
