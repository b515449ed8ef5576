// Package apperr 定义命令的错误分类与退出码。
package apperr

import (
	"errors"

	gerrors "github.com/gdey/errors"
	pkgerrors "github.com/pkg/errors"
)

const (
	// ErrMissingTemplate 未提供模板路径
	ErrMissingTemplate = gerrors.String("the following arguments are required: TEMPLATE")
	// ErrExclusiveLogFlags --debug 与 --log_cfg 同时出现
	ErrExclusiveLogFlags = gerrors.String("argument --debug not allowed with argument --log_cfg")
	// ErrTooManyArgs 位置参数多于 TEMPLATE [DATA]
	ErrTooManyArgs = gerrors.String("too many arguments, expected TEMPLATE [DATA]")
)

// 退出码
const (
	ExitOK      = 0
	ExitUsage   = 2
	ExitRuntime = 3
)

// Kind 错误类别
type Kind int

const (
	KindRuntime Kind = iota
	KindUsage
	KindDataSource
	KindTemplate
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindDataSource:
		return "data source"
	case KindTemplate:
		return "template"
	case KindOutput:
		return "output"
	default:
		return "runtime"
	}
}

// Error 记录出错的阶段、相关路径与原始错误。
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New 创建分类错误并记录调用栈，%+v 输出包含栈信息。
func New(kind Kind, op, path string, err error) error {
	return pkgerrors.WithStack(&Error{Kind: kind, Op: op, Path: path, Err: err})
}

// Usage 将参数错误标记为用法错误。
func Usage(err error) error {
	if KindOf(err) == KindUsage {
		return err
	}

	return &Error{Kind: KindUsage, Err: err}
}

// Wrap 为尚未分类的错误补充运行时类别，已分类的错误原样返回。
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	return New(KindRuntime, op, "", err)
}

// KindOf 返回错误链中第一个 *Error 的类别，未分类错误视为运行时错误。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindRuntime
}

// ExitCode 将错误转换为进程退出码。
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case KindOf(err) == KindUsage:
		return ExitUsage
	default:
		return ExitRuntime
	}
}
