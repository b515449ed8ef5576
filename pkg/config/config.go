// Author: lwmacct (https://github.com/lwmacct)
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"
)

// options 加载选项
type options struct {
	configPaths []string
	envPrefix   string
	envBindings map[string]string
	overrides   map[string]any
	cmd         *cli.Command
}

// Option 配置加载选项
type Option func(*options)

// WithConfigPaths 设置配置文件搜索路径，按顺序搜索，找到第一个即停止。
func WithConfigPaths(paths ...string) Option {
	return func(o *options) { o.configPaths = append(o.configPaths, paths...) }
}

// WithEnvPrefix 启用带前缀的环境变量，MYAPP_SERVER_URL → server.url
func WithEnvPrefix(prefix string) Option {
	return func(o *options) { o.envPrefix = prefix }
}

// WithEnvBinding 将单个环境变量直接绑定到配置 key。
//
// koanf key 含有 "_" 或 "-" 时无法通过前缀规则映射，需要直接绑定。
func WithEnvBinding(envName, key string) Option {
	return func(o *options) {
		if o.envBindings == nil {
			o.envBindings = make(map[string]string)
		}
		o.envBindings[envName] = key
	}
}

// WithOverrides 设置最高优先级的覆盖值，空字符串与 nil 不参与覆盖。
func WithOverrides(values map[string]any) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]any)
		}
		for k, v := range values {
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			o.overrides[k] = v
		}
	}
}

// WithCommand 应用用户明确指定的 CLI flags。
func WithCommand(cmd *cli.Command) Option {
	return func(o *options) { o.cmd = cmd }
}

// Load 加载配置，按优先级合并 (从低到高)：
//  1. 默认值 - defaultConfig
//  2. 配置文件 - WithConfigPaths，找到第一个即停止
//  3. 环境变量(前缀) - WithEnvPrefix
//  4. 环境变量(绑定) - WithEnvBinding
//  5. CLI flags - WithCommand，仅用户明确指定的 flag
//  6. 覆盖值 - WithOverrides
//
// 泛型参数 T 为配置结构体类型，必须使用 koanf tag 标记字段。
func Load[T any](defaultConfig T, opts ...Option) (*T, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if err := loadConfigFile(k, o.configPaths); err != nil {
		return nil, err
	}

	if o.envPrefix != "" {
		if err := k.Load(env.Provider(o.envPrefix, ".", envKeyDecoder(o.envPrefix)), nil); err != nil {
			return nil, fmt.Errorf("failed to load env: %w", err)
		}
	}

	for envName, key := range o.envBindings {
		if val, ok := os.LookupEnv(envName); ok {
			_ = k.Set(key, val)
		}
	}

	if o.cmd != nil {
		applyCLIFlags(o.cmd, k, reflect.TypeOf(defaultConfig), "")
	}

	if len(o.overrides) > 0 {
		if err := k.Load(confmap.Provider(o.overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg T
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// loadConfigFile 按顺序加载第一个存在的配置文件。
//
// 文件不存在时跳过；文件存在但无法解析时返回错误。
func loadConfigFile(k *koanf.Koanf, paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), parserForPath(path)); err != nil {
			return fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		slog.Debug("Loaded config from file", "path", path)

		return nil
	}

	slog.Debug("No config file found, using defaults")

	return nil
}

// parserForPath 按扩展名选择配置文件解析器，默认 YAML。
func parserForPath(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.Parser()
	}

	return yaml.Parser()
}

// envKeyDecoder 返回环境变量名到 koanf key 的转换函数：
// 去掉前缀、转小写、下划线转为点号。
func envKeyDecoder(prefix string) func(string) string {
	return func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "_", ".")
	}
}

// FlagName 返回 koanf key 对应的 CLI flag 名称，仅将 "." 转为 "-"。
//
//   - server.url → server-url
//   - log_cfg → log_cfg
func FlagName(key string) string {
	return strings.ReplaceAll(key, ".", "-")
}

// applyCLIFlags 递归遍历结构体字段，将用户明确指定的 CLI flags 写入 koanf。
func applyCLIFlags(cmd *cli.Command, k *koanf.Koanf, typ reflect.Type, prefix string) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	for i := range typ.NumField() {
		field := typ.Field(i)

		key := field.Tag.Get("koanf")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		if field.Type.Kind() == reflect.Struct &&
			field.Type != reflect.TypeFor[time.Duration]() &&
			field.Type != reflect.TypeFor[time.Time]() {
			applyCLIFlags(cmd, k, field.Type, key)
			continue
		}

		// 只有用户明确指定时才覆盖
		flag := FlagName(key)
		if !cmd.IsSet(flag) {
			continue
		}

		setCLIFlagValue(cmd, k, key, flag, field.Type)
	}
}

// setCLIFlagValue 根据字段类型从 CLI 获取值并设置到 koanf
func setCLIFlagValue(cmd *cli.Command, k *koanf.Koanf, key, flag string, fieldType reflect.Type) {
	if fieldType == reflect.TypeFor[time.Duration]() {
		_ = k.Set(key, cmd.Duration(flag))
		return
	}

	switch fieldType.Kind() {
	case reflect.String:
		_ = k.Set(key, cmd.String(flag))
	case reflect.Bool:
		_ = k.Set(key, cmd.Bool(flag))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		_ = k.Set(key, cmd.Int(flag))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		_ = k.Set(key, cmd.Uint(flag))
	case reflect.Float32, reflect.Float64:
		_ = k.Set(key, cmd.Float64(flag))
	case reflect.Slice:
		if fieldType.Elem().Kind() == reflect.String {
			_ = k.Set(key, cmd.StringSlice(flag))
		}
	}
}
