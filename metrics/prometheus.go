// Package metrics 封装了基于 Prometheus 的指标注册表。
// 命令行场景下不监听端口，进程退出前把指标写入 node_exporter textfile collector 可读取的文件。
package metrics

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics 封装了独立的 Prometheus 注册表。
type Metrics struct {
	registry  *prometheus.Registry
	namespace string

	BuildInfo *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器，自动注册 Go 运行时指标和进程指标。
// namespace 作为所有由本采集器创建的指标名前缀。
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	slog.Debug("metrics registry initialized", "namespace", namespace)
	return &Metrics{registry: reg, namespace: namespace}
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	if opts.Namespace == "" {
		opts.Namespace = m.namespace
	}
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewCounter 创建并注册一个无标签的计数器指标。
func (m *Metrics) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	if opts.Namespace == "" {
		opts.Namespace = m.namespace
	}
	c := prometheus.NewCounter(opts)
	m.registry.MustRegister(c)
	return c
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	if opts.Namespace == "" {
		opts.Namespace = m.namespace
	}
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewGauge 创建并注册一个无标签的仪表盘指标。
func (m *Metrics) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	if opts.Namespace == "" {
		opts.Namespace = m.namespace
	}
	g := prometheus.NewGauge(opts)
	m.registry.MustRegister(g)
	return g
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	if opts.Namespace == "" {
		opts.Namespace = m.namespace
	}
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// WriteTextfile 以 Prometheus 文本格式把当前指标写入 path。
// 文件先写入临时文件再原子替换，采集方不会读到半截内容。
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	slog.Debug("metrics written", "path", path)
	return nil
}
