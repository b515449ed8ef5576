// Package datasrc 加载模板渲染所需的数据映射。
//
// 数据来源：
//   - 未指定文件：当前进程环境变量 (字符串值)
//   - *.yaml / *yml：YAML，支持嵌套结构与列表
//   - *.json：JSON
//   - *.toml：TOML
//   - 其他扩展名：shell 风格 KEY=VALUE (dotenv)，忽略空行与注释，重复键取最后一次
//
// 格式只由扩展名决定，见 [FormatFor]。
package datasrc
