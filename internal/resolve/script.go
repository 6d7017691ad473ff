package resolve

import (
	"time"

	"github.com/dop251/goja"
)

// scriptTimeout 为单条脚本规则的中断时限。
const scriptTimeout = 500 * time.Millisecond

// runScript 在受限求值环境中执行规则脚本。
// 与原始实现的"脚本可触达宿主全部能力"不同，这里刻意收窄：
// 每次求值新建裸运行时，只绑定 result/element 与调用方变量，
// 不暴露任何宿主对象；超时中断；任何抛出都折叠为空结果。
func runScript(code, result, element string, vars map[string]string) string {
	rt := goja.New()
	_ = rt.Set("result", result)
	_ = rt.Set("element", element)
	for k, v := range vars {
		_ = rt.Set(k, v)
	}
	timer := time.AfterFunc(scriptTimeout, func() {
		rt.Interrupt("script timeout")
	})
	defer timer.Stop()
	v, err := rt.RunString(code)
	if err != nil {
		return ""
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}
