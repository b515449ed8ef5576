package logging

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	strftime "github.com/ncruces/go-strftime"
)

// LevelCritical 高于 ERROR 的致命级别，用于进程中止前的最后一条日志。
const LevelCritical = slog.Level(12)

// defaultTimeLayout %(asctime)s 的默认格式，例如 2003-07-08 16:49:45,896
const defaultTimeLayout = "2006-01-02 15:04:05,000"

// 内置的两种消息格式
const (
	FormatPlain = "%(message)s"
	FormatDebug = "%(levelname)s - %(message)s"
)

// LevelName 返回级别名称：DEBUG、INFO、WARNING、ERROR、CRITICAL。
func LevelName(l slog.Level) string {
	switch {
	case l >= LevelCritical:
		return "CRITICAL"
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// levelNumber 将 slog 级别换算为 10/20/30/40/50 的数值级别。
func levelNumber(l slog.Level) int {
	return 20 + int(l)*10/4
}

// ParseLevel 解析级别名称，支持 NOTSET、DEBUG、INFO、WARN/WARNING、ERROR、CRITICAL/FATAL 与数值。
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NOTSET", "0":
		return slog.Level(-8), nil
	case "DEBUG", "10":
		return slog.LevelDebug, nil
	case "INFO", "20":
		return slog.LevelInfo, nil
	case "WARN", "WARNING", "30":
		return slog.LevelWarn, nil
	case "ERROR", "40":
		return slog.LevelError, nil
	case "CRITICAL", "FATAL", "50":
		return LevelCritical, nil
	}

	return 0, fmt.Errorf("unknown level: %q", name)
}

// fieldPattern 匹配 %(name)s、%(levelname)-8s、%(process)d、%% 等占位符。
var fieldPattern = regexp.MustCompile(`%%|%\((\w+)\)([-#0 +]*\d*(?:\.\d+)?)([sdfr])`)

// segment 格式串中的一段：字面量或字段引用。
type segment struct {
	literal string
	field   string
	verb    string
}

// Formatter 将日志记录按 %(field)s 风格的格式串输出为一行文本。
type Formatter struct {
	segments []segment
	datefmt  string
}

// NewFormatter 编译格式串，datefmt 为 strftime 格式，留空使用默认时间格式。
func NewFormatter(format, datefmt string) (*Formatter, error) {
	f := &Formatter{datefmt: datefmt}

	last := 0
	for _, m := range fieldPattern.FindAllStringSubmatchIndex(format, -1) {
		if m[0] > last {
			f.segments = append(f.segments, segment{literal: format[last:m[0]]})
		}
		last = m[1]

		if format[m[0]:m[1]] == "%%" {
			f.segments = append(f.segments, segment{literal: "%"})
			continue
		}

		field := format[m[2]:m[3]]
		if !knownField(field) {
			return nil, fmt.Errorf("unknown format field %q in %q", field, format)
		}
		f.segments = append(f.segments, segment{
			field: field,
			verb:  "%" + format[m[4]:m[5]] + goVerb(format[m[6]:m[7]]),
		})
	}
	if last < len(format) {
		f.segments = append(f.segments, segment{literal: format[last:]})
	}

	return f, nil
}

func knownField(name string) bool {
	switch name {
	case "message", "levelname", "levelno", "name", "asctime", "created", "process":
		return true
	}

	return false
}

func goVerb(conv string) string {
	switch conv {
	case "s":
		return "v"
	case "r":
		return "q"
	default:
		return conv
	}
}

// Format 输出一条记录，不含属性与换行。
func (f *Formatter) Format(name string, t time.Time, level slog.Level, msg string) string {
	var sb strings.Builder
	for _, seg := range f.segments {
		if seg.field == "" {
			sb.WriteString(seg.literal)
			continue
		}
		fmt.Fprintf(&sb, seg.verb, f.value(seg.field, name, t, level, msg))
	}

	return sb.String()
}

func (f *Formatter) value(field, name string, t time.Time, level slog.Level, msg string) any {
	switch field {
	case "message":
		return msg
	case "levelname":
		return LevelName(level)
	case "levelno":
		return levelNumber(level)
	case "name":
		return name
	case "asctime":
		if f.datefmt != "" {
			return strftime.Format(f.datefmt, t)
		}
		return t.Format(defaultTimeLayout)
	case "created":
		return float64(t.UnixNano()) / float64(time.Second)
	case "process":
		return os.Getpid()
	}

	return ""
}
