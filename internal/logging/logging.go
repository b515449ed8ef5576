// Package logging 初始化进程级日志。
//
// 未指定日志配置文件时：
//   - --debug: DEBUG 级别，格式 "%(levelname)s - %(message)s"
//   - 默认: INFO 级别，格式 "%(message)s"
//
// 指定 --log_cfg 时，级别、格式与输出目标全部由 INI 文件决定，见 fileconfig.go。
package logging

import (
	"io"
	"log/slog"

	"github.com/lwmacct/261016-go-bin-tplr/internal/config"
)

// LoggerName %(name)s 的取值
const LoggerName = "tplr"

// Init 根据配置创建 logger 并设置为 slog 默认 logger。
//
// 返回的 close 函数释放日志配置中打开的文件，进程退出前调用。
func Init(cfg *config.Config, stdout, stderr io.Writer) (*slog.Logger, func() error, error) {
	handler, closeFn, err := newHandler(cfg, stdout, stderr)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger, closeFn, nil
}

func newHandler(cfg *config.Config, stdout, stderr io.Writer) (slog.Handler, func() error, error) {
	if cfg.LogCfg != "" {
		fc, err := loadFileConfig(cfg.LogCfg, stdout, stderr)
		if err != nil {
			return nil, nil, err
		}

		return fc.handler, fc.Close, nil
	}

	return defaultHandler(cfg.Debug, stderr), func() error { return nil }, nil
}

// Fallback 返回默认级别与格式的 logger，不修改 slog 默认 logger。
//
// 用于日志尚未初始化或初始化失败时记录致命错误。
func Fallback(stderr io.Writer) *slog.Logger {
	return slog.New(defaultHandler(false, stderr))
}

func defaultHandler(debug bool, w io.Writer) slog.Handler {
	level, format := slog.LevelInfo, FormatPlain
	if debug {
		level, format = slog.LevelDebug, FormatDebug
	}

	// 内置格式只引用已知字段，编译不会失败
	formatter, _ := NewFormatter(format, "")

	return NewPatternHandler(w, level, formatter, LoggerName)
}
