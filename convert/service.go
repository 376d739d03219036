// Package convert 在 geo 纯函数之上提供带日志、指标、追踪与缓存的坐标转换服务。
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/wyfcoding/coordtransform/cache"
	"github.com/wyfcoding/coordtransform/geo"
	"github.com/wyfcoding/coordtransform/metrics"
	"github.com/wyfcoding/coordtransform/tracing"
	"github.com/wyfcoding/coordtransform/validator"
	"github.com/wyfcoding/coordtransform/worker"
	"github.com/wyfcoding/coordtransform/xerrors"
)

// Method 距离算法。
type Method string

const (
	MethodVincenty  Method = "vincenty"  // WGS84 椭球，精确到 0.01 米
	MethodHaversine Method = "haversine" // 球面近似，整数米
)

// ParseMethod 解析距离算法名称，大小写不敏感。
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(name))); m {
	case MethodVincenty, MethodHaversine:
		return m, nil
	default:
		return "", xerrors.ErrUnknownMethod.Derive(fmt.Errorf("method %q", name))
	}
}

// Service 坐标转换服务。零值不可用，使用 NewService 创建。
type Service struct {
	logger    *slog.Logger
	metrics   *serviceMetrics
	cache     cache.Cache
	cacheTTL  time.Duration
	tracer    trace.Tracer
	exact     bool
	strict    bool
	workers   int
	queueSize int
	poolOpts  []worker.Option
	pool      *worker.Pool
	inflight  singleflight.Group
}

// Option 服务配置选项。
type Option func(*Service)

// WithLogger 设置日志记录器。
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics 注册业务指标，批量转换使用的 worker 池也会上报指标。
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
		s.poolOpts = append(s.poolOpts, worker.WithMetrics(m))
	}
}

// WithCache 为精确逆变换启用结果缓存。
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithExact 为 true 时 GCJ02/BD09 => WGS84 使用二分迭代。
func WithExact(exact bool) Option {
	return func(s *Service) { s.exact = exact }
}

// WithStrict 为 true 时拒绝超出经纬度合法范围的输入。
func WithStrict(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

// WithTracer 设置 Tracer，默认使用全局 TracerProvider。
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

// WithWorkers 设置批量转换的并发数与队列长度。
func WithWorkers(workers, queueSize int) Option {
	return func(s *Service) {
		s.workers = workers
		s.queueSize = queueSize
	}
}

// NewService 创建转换服务。
func NewService(opts ...Option) *Service {
	s := &Service{
		logger:    slog.Default(),
		workers:   8,
		queueSize: 256,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("github.com/wyfcoding/coordtransform/convert")
	}
	s.pool = worker.NewPool(append([]worker.Option{
		worker.WithName("batch-convert"),
		worker.WithSize(s.workers),
		worker.WithQueueSize(s.queueSize),
		worker.WithLogger(s.logger),
	}, s.poolOpts...)...)
	return s
}

// Close 停止批量转换使用的 worker 池。
func (s *Service) Close() {
	s.pool.Stop()
}

// Exact 报告服务是否使用精确逆变换。
func (s *Service) Exact() bool {
	return s.exact
}

// Convert 把 p 从 from 坐标系转换到 to 坐标系。
func (s *Service) Convert(ctx context.Context, from, to geo.Frame, p geo.Point) (geo.Point, error) {
	ctx, span := s.tracer.Start(ctx, "geo.convert", trace.WithAttributes(
		attribute.String("geo.from", from.String()),
		attribute.String("geo.to", to.String()),
		attribute.Bool("geo.exact", s.exact),
	))
	defer span.End()

	out, err := s.convert(ctx, from, to, p)
	if err != nil {
		tracing.SetError(ctx, err)
		return geo.Point{}, err
	}
	return out, nil
}

func (s *Service) convert(ctx context.Context, from, to geo.Frame, p geo.Point) (geo.Point, error) {
	if !from.Valid() || !to.Valid() {
		s.fail("unknown_frame")
		return geo.Point{}, xerrors.ErrUnknownFrame.Derive(fmt.Errorf("%s => %s", from, to))
	}
	if s.strict {
		if err := validator.ValidatePoint(p); err != nil {
			s.fail("out_of_range")
			return geo.Point{}, err
		}
	}

	var out geo.Point
	if geo.UsesSolver(from, to, s.exact) {
		out = s.solve(ctx, from, p)
	} else {
		var err error
		out, err = geo.Convert(from, to, p, s.exact)
		if err != nil {
			return geo.Point{}, xerrors.ErrUnknownFrame.Derive(err)
		}
	}

	if !validator.IsFinite(out.Lng) || !validator.IsFinite(out.Lat) {
		s.fail("non_finite")
		return geo.Point{}, xerrors.ErrOutOfRange.Derive(fmt.Errorf("%s => %s of %s produced %s", from, to, p, out)).
			WithContext("input", p.String())
	}

	if s.metrics != nil {
		s.metrics.conversions.WithLabelValues(from.String(), to.String()).Inc()
	}
	return out, nil
}

// solve 执行精确逆变换，命中缓存时跳过迭代。
func (s *Service) solve(ctx context.Context, from geo.Frame, p geo.Point) geo.Point {
	key := cacheKey(from, p)
	if s.cache != nil {
		var cached geo.Point
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			s.cacheLookup("hit")
			return cached
		}
		s.cacheLookup("miss")
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		}
	}

	// 同一批次中的重复坐标只求解一次
	v, _, _ := s.inflight.Do(key, func() (any, error) {
		return s.solveUncached(ctx, from, p), nil
	})
	out := v.(geo.Point)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		}
	}
	return out
}

func (s *Service) solveUncached(ctx context.Context, from geo.Frame, p geo.Point) geo.Point {
	gcj := p
	if from == geo.BD09 {
		gcj = geo.BD09ToGCJ02(p.Lng, p.Lat)
	}
	out, stats := geo.GCJ02ToWGS84ExactlyStats(gcj.Lng, gcj.Lat)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("geo.solver.iterations", stats.Iterations),
		attribute.Bool("geo.solver.converged", stats.Converged),
	)
	if s.metrics != nil {
		s.metrics.solverIterations.WithLabelValues(from.String()).Observe(float64(stats.Iterations))
	}
	if !stats.Converged {
		if s.metrics != nil {
			s.metrics.solverUnconverged.WithLabelValues(from.String()).Inc()
		}
		s.logger.WarnContext(ctx, "exact inverse did not converge",
			"from", from.String(), "input", p.String(), "iterations", stats.Iterations)
	}

	return out
}

// Distance 用指定算法计算两点间距离 (米)。Vincenty 不收敛时返回 0 并记录告警。
func (s *Service) Distance(ctx context.Context, method Method, a, b geo.Point) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "geo.distance", trace.WithAttributes(
		attribute.String("geo.method", string(method)),
	))
	defer span.End()

	if s.strict {
		for _, p := range [...]geo.Point{a, b} {
			if err := validator.ValidatePoint(p); err != nil {
				s.fail("out_of_range")
				tracing.SetError(ctx, err)
				return 0, err
			}
		}
	}

	var meters float64
	switch method {
	case MethodVincenty:
		d, stats := geo.DistanceWithStats(a.Lat, a.Lng, b.Lat, b.Lng)
		span.SetAttributes(attribute.Int("geo.vincenty.iterations", stats.Iterations))
		if !stats.Converged {
			if s.metrics != nil {
				s.metrics.distanceFallbacks.Inc()
			}
			s.logger.WarnContext(ctx, "vincenty did not converge, returning 0",
				"a", a.String(), "b", b.String(), "iterations", stats.Iterations)
		}
		meters = d
	case MethodHaversine:
		meters = float64(geo.HaversineDistance(a.Lat, a.Lng, b.Lat, b.Lng))
	default:
		s.fail("unknown_method")
		err := xerrors.ErrUnknownMethod.Derive(fmt.Errorf("method %q", method))
		tracing.SetError(ctx, err)
		return 0, err
	}

	if s.metrics != nil {
		s.metrics.distances.WithLabelValues(string(method)).Inc()
	}
	return meters, nil
}

// Batch 并发转换一组坐标，输出顺序与输入一致。
// 任一点失败时返回第一个失败点的错误；ctx 结束时返回 ErrBatchCanceled。
func (s *Service) Batch(ctx context.Context, from, to geo.Frame, points []geo.Point) ([]geo.Point, error) {
	ctx, span := s.tracer.Start(ctx, "geo.batch", trace.WithAttributes(
		attribute.String("geo.from", from.String()),
		attribute.String("geo.to", to.String()),
		attribute.Int("geo.points", len(points)),
	))
	defer span.End()
	if s.metrics != nil {
		s.metrics.batchSize.Observe(float64(len(points)))
	}

	if s.strict {
		if err := validator.ValidatePoints(points); err != nil {
			s.fail("out_of_range")
			tracing.SetError(ctx, err)
			return nil, err
		}
	}

	out := make([]geo.Point, len(points))
	errs := make([]error, len(points))

	var (
		wg        sync.WaitGroup
		submitErr error
	)
	for i, p := range points {
		wg.Add(1)
		err := s.pool.Submit(ctx, func(context.Context) {
			defer wg.Done()
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			out[i], errs[i] = s.convert(ctx, from, to, p)
		})
		if err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		submitErr = xerrors.ErrBatchCanceled.Derive(err)
	}
	if submitErr != nil {
		tracing.SetError(ctx, submitErr)
		return nil, submitErr
	}

	for i, err := range errs {
		if err != nil {
			if e, ok := xerrors.FromError(err); ok {
				e.WithContext("index", i)
			}
			tracing.SetError(ctx, err)
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) fail(reason string) {
	if s.metrics != nil {
		s.metrics.failures.WithLabelValues(reason).Inc()
	}
}

func (s *Service) cacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.cacheLookups.WithLabelValues(result).Inc()
	}
}

// cacheKey 以 float64 的精确十六进制表示作为键，不会因格式化丢失精度。
func cacheKey(from geo.Frame, p geo.Point) string {
	return from.String() + ":" +
		strconv.FormatFloat(p.Lng, 'x', -1, 64) + "," +
		strconv.FormatFloat(p.Lat, 'x', -1, 64)
}
