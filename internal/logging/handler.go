package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// PatternHandler 按 Formatter 格式输出日志的 slog.Handler。
//
// 记录属性以 " key=value" 追加在消息之后，error 类型的值使用 %+v 输出，
// 包含调用栈。
type PatternHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	format *Formatter
	name   string
	attrs  string
	group  string
}

// NewPatternHandler 创建 PatternHandler，name 对应格式串中的 %(name)s。
func NewPatternHandler(w io.Writer, level slog.Leveler, format *Formatter, name string) *PatternHandler {
	return &PatternHandler{
		mu:     &sync.Mutex{},
		w:      w,
		level:  level,
		format: format,
		name:   name,
	}
}

func (h *PatternHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *PatternHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(h.format.Format(h.name, r.Time, r.Level, r.Message))
	sb.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.group, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())

	return err
}

func (h *PatternHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&sb, h.group, a)
	}
	h2.attrs = sb.String()

	return &h2
}

func (h *PatternHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = h.group + name + "."

	return &h2
}

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, group, ga)
		}
		return
	}

	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	if err, ok := a.Value.Any().(error); ok {
		fmt.Fprintf(sb, "%+v", err)
		return
	}
	sb.WriteString(a.Value.String())
}

// fanoutHandler 将记录分发给多个 handler，min 为根级别。
type fanoutHandler struct {
	min      slog.Level
	handlers []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, l slog.Level) bool {
	if l < f.min {
		return false
	}
	for _, h := range f.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}

	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}

	return errors.Join(errs...)
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithAttrs(attrs)
	}

	return &fanoutHandler{min: f.min, handlers: hs}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithGroup(name)
	}

	return &fanoutHandler{min: f.min, handlers: hs}
}
