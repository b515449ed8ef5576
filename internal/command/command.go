// Package command 提供 tplr 的命令行功能。
package command

import "github.com/lwmacct/261016-go-bin-tplr/internal/config"

// Defaults 默认配置 - flag 默认值的唯一来源
var Defaults = config.DefaultConfig()
