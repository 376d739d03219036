// Package worker 提供固定大小的 worker 池，用于把批量坐标转换分摊到多个 goroutine。
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sourcegraph/conc"

	"github.com/wyfcoding/coordtransform/metrics"
	"github.com/wyfcoding/coordtransform/xerrors"
)

// Task 是 worker 执行的任务函数。
type Task func(ctx context.Context)

// Pool 是一个固定大小的 worker 池。
type Pool struct {
	ctx     context.Context
	cancel  context.CancelFunc
	tasks   chan Task
	options *poolOptions
	metrics *poolMetrics
	wg      conc.WaitGroup
	mu      sync.RWMutex // 保护 tasks 的发送与关闭
	closed  atomic.Bool
}

type poolMetrics struct {
	activeWorkers prometheus.Gauge
	queueLength   prometheus.Gauge
	panics        prometheus.Counter
}

type poolOptions struct {
	Logger       *slog.Logger
	PanicHandler func(any)
	Metrics      *metrics.Metrics
	Name         string
	Size         int
	QueueSize    int
}

// Option 定义配置选项。
type Option func(*poolOptions)

// WithName 设置池名称，用作日志字段与指标标签。
func WithName(name string) Option {
	return func(o *poolOptions) { o.Name = name }
}

// WithSize 设置 worker 数量。
func WithSize(size int) Option {
	return func(o *poolOptions) { o.Size = size }
}

// WithQueueSize 设置任务队列大小。
func WithQueueSize(size int) Option {
	return func(o *poolOptions) { o.QueueSize = size }
}

// WithLogger 设置日志记录器。
func WithLogger(logger *slog.Logger) Option {
	return func(o *poolOptions) { o.Logger = logger }
}

// WithPanicHandler 设置 Panic 处理回调。
func WithPanicHandler(handler func(any)) Option {
	return func(o *poolOptions) { o.PanicHandler = handler }
}

// WithMetrics 注入指标采集器.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *poolOptions) { o.Metrics = m }
}

// NewPool 创建并启动一个 worker 池。
func NewPool(opts ...Option) *Pool {
	options := &poolOptions{
		Name:      "default-pool",
		Size:      8,
		QueueSize: 256,
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.Size < 1 {
		options.Size = 1
	}
	if options.QueueSize < 0 {
		options.QueueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		ctx:     ctx,
		cancel:  cancel,
		tasks:   make(chan Task, options.QueueSize),
		options: options,
	}

	if options.Metrics != nil {
		labels := prometheus.Labels{"pool": options.Name}
		p.metrics = &poolMetrics{
			activeWorkers: options.Metrics.NewGauge(prometheus.GaugeOpts{
				Name:        "worker_pool_active_workers",
				Help:        "Number of active workers in the pool",
				ConstLabels: labels,
			}),
			queueLength: options.Metrics.NewGauge(prometheus.GaugeOpts{
				Name:        "worker_pool_queue_length",
				Help:        "Current length of the task queue",
				ConstLabels: labels,
			}),
			panics: options.Metrics.NewCounter(prometheus.CounterOpts{
				Name:        "worker_pool_recovered_panics_total",
				Help:        "Number of task panics recovered by the pool",
				ConstLabels: labels,
			}),
		}
	}

	p.start()
	return p
}

func (p *Pool) start() {
	p.options.Logger.Debug("worker pool starting", "name", p.options.Name, "size", p.options.Size)
	for range p.options.Size {
		if p.metrics != nil {
			p.metrics.activeWorkers.Inc()
		}
		p.wg.Go(func() {
			if p.metrics != nil {
				defer p.metrics.activeWorkers.Dec()
			}
			p.runWorker()
		})
	}
}

func (p *Pool) runWorker() {
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			if p.metrics != nil {
				p.metrics.queueLength.Set(float64(len(p.tasks)))
			}
			p.executeTask(task)
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) executeTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			if p.metrics != nil {
				p.metrics.panics.Inc()
			}
			if p.options.PanicHandler != nil {
				p.options.PanicHandler(r)
			} else {
				p.options.Logger.Error("worker task panic recovered", "pool", p.options.Name, "panic", r)
			}
		}
	}()
	task(p.ctx)
}

// Submit 提交一个任务。队列已满时阻塞，直到有空位、ctx 结束或池被关闭。
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return xerrors.ErrPoolClosed.Derive(nil)
	}

	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return xerrors.ErrPoolClosed.Derive(nil)
	}
}

// Stop 停止 worker 池：不再接受新任务，等待已入队的任务执行完毕。
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.closed.CompareAndSwap(false, true) {
		p.mu.Unlock()
		return
	}
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()
	p.options.Logger.Debug("worker pool stopped", "name", p.options.Name)
}
