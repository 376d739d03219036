package logging

import (
	"context"
	"errors"
	"log/slog"
)

// fanoutHandler 把同一条日志写入多个 Handler，单个目标写入失败不影响其他目标。
type fanoutHandler []slog.Handler

func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	return fanoutHandler(handlers)
}

func (h fanoutHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	for _, handler := range h {
		if handler.Enabled(ctx, lvl) {
			return true
		}
	}
	return false
}

func (h fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range h {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(handler slog.Handler) slog.Handler { return handler.WithAttrs(attrs) })
}

func (h fanoutHandler) WithGroup(name string) slog.Handler {
	return h.each(func(handler slog.Handler) slog.Handler { return handler.WithGroup(name) })
}

func (h fanoutHandler) each(fn func(slog.Handler) slog.Handler) fanoutHandler {
	out := make(fanoutHandler, len(h))
	for i, handler := range h {
		out[i] = fn(handler)
	}
	return out
}
