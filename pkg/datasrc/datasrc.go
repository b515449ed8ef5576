package datasrc

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

// Format 数据文件格式
type Format string

const (
	FormatEnviron Format = "environ"
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatTOML    Format = "toml"
	FormatDotenv  Format = "dotenv"
)

// Parser 将原始字节解析为字符串键映射。
//
// koanf 的各个 parser 均满足该接口。
type Parser interface {
	Unmarshal([]byte) (map[string]any, error)
}

// tomlParser 以 BurntSushi/toml 解析 TOML 文档。
type tomlParser struct{}

func (tomlParser) Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := toml.Unmarshal(b, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// FormatFor 根据文件扩展名推断数据格式。
//
//   - .yaml 或以 yml 结尾 → YAML
//   - .json → JSON
//   - .toml → TOML
//   - 其他 → dotenv (KEY=VALUE)
func FormatFor(path string) Format {
	switch {
	case path == "":
		return FormatEnviron
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, "yml"):
		return FormatYAML
	case strings.HasSuffix(path, ".json"):
		return FormatJSON
	case filepath.Ext(path) == ".toml":
		return FormatTOML
	default:
		return FormatDotenv
	}
}

// ParserFor 返回路径对应格式的解析器。
func ParserFor(path string) Parser {
	switch FormatFor(path) {
	case FormatYAML:
		return yaml.Parser()
	case FormatJSON:
		return json.Parser()
	case FormatTOML:
		return tomlParser{}
	default:
		return dotenv.Parser()
	}
}

// Load 加载数据源。
//
// path 为空时返回当前进程环境变量的副本，值均为字符串；
// 否则按扩展名选择解析器解析文件内容。
// 空文档返回空映射，返回值不会为 nil。
func Load(path string) (map[string]any, error) {
	if path == "" {
		return Environ()
	}

	b, err := file.Provider(path).ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	format := FormatFor(path)
	data, err := ParserFor(path).Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s data: %w", format, err)
	}
	if data == nil {
		data = map[string]any{}
	}

	return data, nil
}

// Environ 以扁平映射返回当前进程的全部环境变量。
func Environ() (map[string]any, error) {
	// 空前缀匹配全部变量，空分隔符保持键名不被拆分
	data, err := env.Provider("", "", nil).Read()
	if err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	return data, nil
}
