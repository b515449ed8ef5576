package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

// fileConfig 由 INI 日志配置文件构建的 handler 集合。
//
// 文件布局：
//
//	[loggers]
//	keys=root
//
//	[handlers]
//	keys=console,file
//
//	[formatters]
//	keys=simple
//
//	[logger_root]
//	level=DEBUG
//	handlers=console,file
//
//	[handler_console]
//	class=StreamHandler
//	level=INFO
//	formatter=simple
//	args=(sys.stderr,)
//
//	[handler_file]
//	class=FileHandler
//	formatter=simple
//	args=('tplr.log', 'a')
//
//	[formatter_simple]
//	format=%(asctime)s %(levelname)s %(message)s
//	datefmt=%Y-%m-%d %H:%M:%S
//
// 只配置 root logger，其余 logger 段被忽略。
type fileConfig struct {
	handler slog.Handler
	closers []io.Closer
}

func (fc *fileConfig) Close() error {
	var errs []error
	for _, c := range fc.closers {
		errs = append(errs, c.Close())
	}

	return errors.Join(errs...)
}

// loadFileConfig 解析 INI 日志配置，stdout/stderr 对应 sys.stdout/sys.stderr。
func loadFileConfig(path string, stdout, stderr io.Writer) (*fileConfig, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:     true,
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("read log config: %w", err)
	}

	loggers, err := listKeys(f, "loggers")
	if err != nil {
		return nil, err
	}
	if !slices.Contains(loggers, "root") {
		return nil, errors.New("log config: [loggers] must include root")
	}

	root, err := f.GetSection("logger_root")
	if err != nil {
		return nil, errors.New("log config: missing section [logger_root]")
	}

	// 未指定级别时与 logging 模块一致，root 默认 WARNING
	rootLevel := slog.LevelWarn
	if root.HasKey("level") {
		if rootLevel, err = ParseLevel(root.Key("level").Value()); err != nil {
			return nil, fmt.Errorf("log config [logger_root]: %w", err)
		}
	}

	fc := &fileConfig{}
	fan := &fanoutHandler{min: rootLevel}

	names := splitList(root.Key("handlers").Value())
	if len(names) > 0 {
		declared, err := listKeys(f, "handlers")
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if !slices.Contains(declared, name) {
				_ = fc.Close()
				return nil, fmt.Errorf("log config: handler %q not listed in [handlers]", name)
			}
			h, err := buildHandler(f, name, stdout, stderr, fc)
			if err != nil {
				_ = fc.Close()
				return nil, err
			}
			fan.handlers = append(fan.handlers, h)
		}
	}

	fc.handler = fan

	return fc, nil
}

// buildHandler 构建 [handler_<name>] 段描述的 handler。
func buildHandler(f *ini.File, name string, stdout, stderr io.Writer, fc *fileConfig) (slog.Handler, error) {
	sec, err := f.GetSection("handler_" + name)
	if err != nil {
		return nil, fmt.Errorf("log config: missing section [handler_%s]", name)
	}

	level := slog.Level(-8)
	if sec.HasKey("level") {
		if level, err = ParseLevel(sec.Key("level").Value()); err != nil {
			return nil, fmt.Errorf("log config [handler_%s]: %w", name, err)
		}
	}

	formatter, err := buildFormatter(f, sec.Key("formatter").Value())
	if err != nil {
		return nil, fmt.Errorf("log config [handler_%s]: %w", name, err)
	}

	args := parseArgs(sec.Key("args").Value())

	var w io.Writer
	switch class := strings.TrimPrefix(sec.Key("class").Value(), "logging."); class {
	case "StreamHandler":
		w = stderr
		if len(args) > 0 && args[0] == "sys.stdout" {
			w = stdout
		}
	case "FileHandler":
		if len(args) == 0 || args[0] == "" {
			return nil, fmt.Errorf("log config [handler_%s]: FileHandler requires a filename", name)
		}
		mode := "a"
		if len(args) > 1 {
			mode = args[1]
		}
		file, err := openLogFile(args[0], mode)
		if err != nil {
			return nil, fmt.Errorf("log config [handler_%s]: %w", name, err)
		}
		fc.closers = append(fc.closers, file)
		w = file
	case "NullHandler":
		w = io.Discard
	default:
		return nil, fmt.Errorf("log config [handler_%s]: unsupported class %q", name, class)
	}

	return NewPatternHandler(w, level, formatter, LoggerName), nil
}

// buildFormatter 构建 [formatter_<name>] 段描述的格式，name 为空时使用 %(message)s。
func buildFormatter(f *ini.File, name string) (*Formatter, error) {
	if name == "" {
		return NewFormatter(FormatPlain, "")
	}

	declared, err := listKeys(f, "formatters")
	if err != nil {
		return nil, err
	}
	if !slices.Contains(declared, name) {
		return nil, fmt.Errorf("formatter %q not listed in [formatters]", name)
	}

	sec, err := f.GetSection("formatter_" + name)
	if err != nil {
		return nil, fmt.Errorf("missing section [formatter_%s]", name)
	}
	if style := sec.Key("style").Value(); style != "" && style != "%" {
		return nil, fmt.Errorf("unsupported formatter style %q", style)
	}

	format := sec.Key("format").Value()
	if format == "" {
		format = FormatPlain
	}

	return NewFormatter(format, sec.Key("datefmt").Value())
}

func openLogFile(path, mode string) (*os.File, error) {
	flag := os.O_CREATE | os.O_WRONLY
	switch mode {
	case "a":
		flag |= os.O_APPEND
	case "w":
		flag |= os.O_TRUNC
	default:
		return nil, fmt.Errorf("unsupported file mode %q", mode)
	}

	return os.OpenFile(path, flag, 0o644)
}

// listKeys 读取 [section] 中的 keys 列表。
func listKeys(f *ini.File, section string) ([]string, error) {
	sec, err := f.GetSection(section)
	if err != nil {
		return nil, fmt.Errorf("log config: missing section [%s]", section)
	}

	return splitList(sec.Key("keys").Value()), nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

// parseArgs 解析 args=('tplr.log', 'a') 形式的参数元组。
func parseArgs(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")

	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, strings.Trim(item, `'"`))
	}

	return out
}
