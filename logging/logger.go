// Package logging 提供了统一的结构化日志（slog）封装，支持日志文件切割与 OpenTelemetry 追踪上下文注入。
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// level 为所有由本包创建的 Handler 共享，支持运行时调整。
var level = new(slog.LevelVar)

// Config 定义日志配置。
type Config struct {
	Service    string
	Module     string
	Level      string
	File       string    // 日志文件路径，为空则只输出到 Output
	Console    bool      // 配置了 File 时是否同时输出到 Output
	Output     io.Writer // 控制台输出目标，默认 os.Stderr，标准输出留给转换结果
	MaxSize    int       // 每个日志文件最大尺寸 (MB)
	MaxBackups int       // 保留旧日志文件的最大个数
	MaxAge     int       // 保留旧日志文件的最大天数
	Compress   bool      // 是否压缩旧日志
}

// Logger 封装了 `*slog.Logger`，并记录服务名和模块名。
type Logger struct {
	*slog.Logger
	Service string
	Module  string
}

// TraceHandler 是一个 `slog.Handler` 装饰器，从 context 中提取 trace_id 和 span_id 注入日志记录。
type TraceHandler struct {
	slog.Handler
}

// Handle 在 SpanContext 有效时附加追踪字段。
func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs 保持装饰器不丢失。
func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

// WithGroup 保持装饰器不丢失。
func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}

// ParseLevel 把配置中的级别字符串映射为 slog.Level，无法识别时返回 Info。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel 动态调整全局日志级别，配置热更新时调用。
func SetLevel(s string) {
	level.Set(ParseLevel(s))
}

// NewFromConfig 创建一个新的 Logger 实例。
func NewFromConfig(cfg Config) *Logger {
	level.Set(ParseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	}

	console := cfg.Output
	if console == nil {
		console = os.Stderr
	}

	var handler slog.Handler
	if cfg.File != "" {
		// 配置了文件路径时使用 lumberjack 进行日志切割
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		handler = slog.NewJSONHandler(fileWriter, opts)
		if cfg.Console {
			handler = newFanoutHandler(handler, slog.NewJSONHandler(console, opts))
		}
	} else {
		handler = slog.NewJSONHandler(console, opts)
	}

	logger := slog.New(&TraceHandler{Handler: handler}).With(
		slog.String("service", cfg.Service),
		slog.String("module", cfg.Module),
	)

	return &Logger{
		Logger:  logger,
		Service: cfg.Service,
		Module:  cfg.Module,
	}
}

// LogDuration 记录操作耗时，用法：defer logger.LogDuration(ctx, "batch convert")()
func (l *Logger) LogDuration(ctx context.Context, operation string, args ...any) func() {
	start := time.Now()
	return func() {
		logArgs := append(args, "duration", time.Since(start))
		l.InfoContext(ctx, fmt.Sprintf("%s finished", operation), logArgs...)
	}
}
