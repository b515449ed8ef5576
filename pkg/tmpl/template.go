package tmpl

import (
	"fmt"
	"os"

	minijinja "github.com/mitsuhiko/minijinja/minijinja-go/v2"
	"github.com/mitsuhiko/minijinja/minijinja-go/v2/value"
)

// ═══════════════════════════════════════════════════════════════════════════
// 模板函数 (参考: Taskfile 和 Sprig)
// ═══════════════════════════════════════════════════════════════════════════

// envFunc 获取环境变量，支持可选的默认值。
//
// 使用方式：
//   - {{ env("VAR") }}            获取环境变量，未设置时返回空字符串
//   - {{ env("VAR", "default") }} 获取环境变量，未设置时返回默认值
//   - {{ env("VAR") | default("fallback", true) }} 过滤器语法
func envFunc(_ *minijinja.State, args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 || len(args) > 2 {
		return value.Undefined(), minijinja.NewError(minijinja.ErrMissingArgument, "env expects a name and an optional default")
	}
	key, ok := args[0].AsString()
	if !ok {
		return value.Undefined(), minijinja.NewError(minijinja.ErrInvalidOperation, "env name must be a string")
	}

	if val := os.Getenv(key); val != "" {
		return value.FromString(val), nil
	}
	if len(args) == 2 {
		return args[1], nil
	}

	return value.FromString(""), nil
}

// coalesceFunc 返回第一个非空值，全部为空时返回空字符串。
//
//   - {{ coalesce(a, b, "default") }}
func coalesceFunc(_ *minijinja.State, args []value.Value, _ map[string]value.Value) (value.Value, error) {
	for _, v := range args {
		if !isEmpty(v) {
			return v, nil
		}
	}

	return value.FromString(""), nil
}

// requiredFilter 在值为空时中止渲染，宽松模式下同样生效。
//
//   - {{ name | required("name is required") }}
func requiredFilter(_ minijinja.FilterState, val value.Value, args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if !isEmpty(val) {
		return val, nil
	}

	msg := "required value is missing"
	if len(args) > 0 {
		if s, ok := args[0].AsString(); ok {
			msg = s
		}
	}

	return value.Undefined(), minijinja.NewError(minijinja.ErrInvalidOperation, msg)
}

func isEmpty(v value.Value) bool {
	if v.IsUndefined() || v.IsNone() {
		return true
	}
	if s, ok := v.AsString(); ok && s == "" {
		return true
	}

	return false
}

// ═══════════════════════════════════════════════════════════════════════════
// 渲染选项
// ═══════════════════════════════════════════════════════════════════════════

type options struct {
	name string
	lazy bool
}

// Option 渲染选项
type Option func(*options)

// WithLazy 设置未定义变量的处理策略。
//
// lazy=false (默认) 时，输出、迭代或判断不存在的变量会使渲染失败；
// lazy=true 时，缺失变量及其属性渲染为空字符串。
func WithLazy(lazy bool) Option {
	return func(o *options) { o.lazy = lazy }
}

// WithName 设置模板名称，出现在错误信息中，通常为模板文件路径。
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// newEnvironment 创建渲染环境：关闭自动转义，注册模板函数。
func newEnvironment(lazy bool) *minijinja.Environment {
	env := minijinja.NewEnvironment()
	// .html 模板同样按纯文本输出
	env.SetAutoEscapeFunc(func(string) minijinja.AutoEscape { return minijinja.AutoEscapeNone })

	if lazy {
		env.SetUndefinedBehavior(minijinja.UndefinedChainable)
	} else {
		env.SetUndefinedBehavior(minijinja.UndefinedStrict)
	}

	env.AddFunction("env", envFunc)
	env.AddFunction("coalesce", coalesceFunc)
	env.AddFilter("required", requiredFilter)

	return env
}

// ═══════════════════════════════════════════════════════════════════════════
// 模板渲染
// ═══════════════════════════════════════════════════════════════════════════

// Render 使用 data 渲染 Jinja 语法的模板文本。
//
// data 的每个键作为顶级变量暴露给模板：{{ name }}、{{ server.host }}、
// {{ items[0] }}，并支持 if / for / 过滤器等控制结构。
// 与 Jinja2 一致，模板末尾的单个换行符不会出现在输出中。
//
// 严格模式下第一个缺失变量即返回错误；宽松模式下缺失变量渲染为空。
// 语法错误与执行错误均原样包装返回，不会产生部分输出。
func Render(text string, data map[string]any, opts ...Option) (string, error) {
	o := options{name: "template"}
	for _, opt := range opts {
		opt(&o)
	}

	t, err := newEnvironment(o.lazy).TemplateFromNamedString(o.name, text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	if data == nil {
		data = map[string]any{}
	}

	out, err := t.Render(data)
	if err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return out, nil
}

// LoadFile 读取模板文件的全部内容，不做任何预处理。
func LoadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}

	return string(b), nil
}
