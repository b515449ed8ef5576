// Package config 提供通用的配置加载功能，可被外部项目复用。
//
// # 特性
//
// 使用泛型支持任意配置结构体类型，配置加载优先级 (从低到高)：
//  1. 默认值 - 通过 defaultConfig 参数传入
//  2. 配置文件 - 通过 WithConfigPaths 选项设置 (YAML 或 JSON)
//  3. 环境变量(前缀) - 通过 WithEnvPrefix 选项启用
//  4. 环境变量(绑定) - 通过 WithEnvBinding 设置
//  5. CLI flags - 通过 WithCommand 选项设置
//  6. 覆盖值 - 通过 WithOverrides 设置，通常为位置参数
//
// # 快速开始
//
//	type Config struct {
//	    Name    string        `koanf:"name"    desc:"应用名称"`
//	    Debug   bool          `koanf:"debug"   desc:"调试模式"`
//	    Timeout time.Duration `koanf:"timeout" desc:"超时时间"`
//	}
//
//	cfg, err := config.Load(Config{Name: "default", Timeout: 30 * time.Second},
//	    config.WithConfigPaths("config.yaml", "/etc/myapp/config.yaml"),
//	    config.WithEnvPrefix("MYAPP_"),
//	    config.WithCommand(cmd),
//	)
//
// # 环境变量(前缀)
//
// 命名规则：前缀 + 大写的 koanf key，点号 (.) 转为下划线 (_)。
//   - MYAPP_DEBUG → debug
//   - MYAPP_SERVER_URL → server.url
//
// koanf key 本身含有 "_" 或 "-" 时使用 [WithEnvBinding] 直接绑定：
//
//	config.WithEnvBinding("MYAPP_LOG_CFG", "log_cfg")
//
// # CLI Flag 映射
//
// 仅将 "." 转为 "-"，其余字符保持不变，见 [FlagName]：
//   - server.url → --server-url
//   - log_cfg → --log_cfg
//
// # 生成配置示例
//
// 使用 [ExampleYAML] 根据配置结构体的 desc tag 生成带注释的 YAML 示例，
// 测试中可通过 [ConfigTestHelper] 写入示例文件并校验 config.yaml 的键名。
package config
