// Package config 提供应用配置管理。
//
// 配置加载优先级 (从低到高)：
//  1. 默认值 - DefaultConfig() 函数中定义
//  2. 配置文件 - 仅 --config 指定时读取，不搜索当前目录或主目录
//  3. 环境变量 - TPLR_ 前缀，如 TPLR_LAZY=true、TPLR_LOG_CFG=logging.ini
//  4. CLI flags - 仅用户明确指定的 flag
//  5. 位置参数 - TEMPLATE [DATA]
package config

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261016-go-bin-tplr/internal/apperr"
	"github.com/lwmacct/261016-go-bin-tplr/pkg/config"
)

// EnvPrefix 配置项环境变量前缀
const EnvPrefix = "TPLR_"

// Config 应用配置，加载完成后不再修改。
type Config struct {
	Template string `koanf:"template" desc:"模板文件路径 (位置参数 TEMPLATE)"`
	Data     string `koanf:"data" desc:"数据文件路径，留空则使用环境变量 (位置参数 DATA)"`
	Outfile  string `koanf:"outfile" desc:"渲染结果输出文件，留空则输出到 stdout"`
	Lazy     bool   `koanf:"lazy" desc:"忽略未定义变量，渲染为空"`
	Debug    bool   `koanf:"debug" desc:"启用 debug 日志级别"`
	LogCfg   string `koanf:"log_cfg" desc:"INI 格式的日志配置文件，与 debug 互斥"`
}

// DefaultConfig 返回默认配置
// 注意：internal/command/command.go 中的 Defaults 变量引用此函数以实现单一配置来源。
func DefaultConfig() Config {
	return Config{}
}

// Validate 校验配置，违反约束时返回用法错误。
func (c *Config) Validate() error {
	if c.Template == "" {
		return apperr.Usage(apperr.ErrMissingTemplate)
	}
	if c.Debug && c.LogCfg != "" {
		return apperr.Usage(apperr.ErrExclusiveLogFlags)
	}

	return nil
}

// Load 从命令行加载并校验配置。
//
// configFile 为空时不读取任何配置文件；非空时文件必须存在。
// 位置参数多于两个、缺少 TEMPLATE、--debug 与 --log_cfg 同时出现均为用法错误。
func Load(cmd *cli.Command, configFile string) (*Config, error) {
	args := cmd.Args()
	if args.Len() > 2 {
		return nil, apperr.Usage(apperr.ErrTooManyArgs)
	}

	var paths []string
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, apperr.New(apperr.KindRuntime, "load config", configFile, err)
		}
		paths = []string{configFile}
	}

	cfg, err := config.Load(
		DefaultConfig(),
		config.WithConfigPaths(paths...),
		config.WithEnvPrefix(EnvPrefix),
		config.WithEnvBinding(EnvPrefix+"LOG_CFG", "log_cfg"),
		config.WithCommand(cmd),
		config.WithOverrides(map[string]any{
			"template": args.Get(0),
			"data":     args.Get(1),
		}),
	)
	if err != nil {
		return nil, apperr.Wrap("load config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
