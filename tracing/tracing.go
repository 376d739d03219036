// Package tracing 提供基于 OpenTelemetry 的追踪初始化与 Span 辅助函数.
// 命令行工具不连接采集端，Span 以 JSON 形式写入本地文件.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/wyfcoding/coordtransform/config"
)

const instrumentationName = "github.com/wyfcoding/coordtransform"

// InitTracer 初始化全局 TracerProvider。未启用时返回空操作的 shutdown.
func InitTracer(cfg config.TracingConfig) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp, err := newProvider(cfg, exporter)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	otel.SetTracerProvider(tp)

	slog.Debug("tracer provider initialized", "service", cfg.ServiceName, "file", cfg.File)

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		return err
	}, nil
}

func newProvider(cfg config.TracingConfig, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("exporter", "file"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	), nil
}

// Tracer 返回本模块使用的 Tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// SetError 将错误记录到当前 Span 并标记为 codes.Error.
func SetError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
