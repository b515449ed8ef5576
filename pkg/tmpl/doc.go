// Package tmpl 提供模板加载与渲染功能。
//
// 基于 minijinja 引擎，模板使用 Jinja2 语法，数据映射的每个键作为顶级变量暴露给模板。
//
// # 设计参考
//
//   - Jinja2 模板语法: https://jinja.palletsprojects.com/templates/
//   - Sprig 模板函数: https://github.com/Masterminds/sprig
//
// # 未定义变量策略
//
//   - 严格模式 (默认)：输出、迭代或判断不存在的变量立即返回错误
//   - 宽松模式 ([WithLazy])：不存在的变量及其属性渲染为空字符串
//
// 严格模式下需要可选变量时使用 default 过滤器或 is defined 测试：
//
//	{{ name | default("World") }}
//	{% if name is defined %}{{ name }}{% endif %}
//
// # 附加函数
//
//   - env: 获取环境变量 {{ env("VAR") }} 或 {{ env("VAR", "default") }}
//   - coalesce: 返回第一个非空值 {{ coalesce(a, b, "default") }}
//   - required: 值为空时中止渲染 {{ name | required("name is required") }}
//
// 其余过滤器与测试 (upper、join、default、defined 等) 由引擎内置提供。
package tmpl
