package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegisterBuildInfo 注册构建信息指标，重复调用无副作用。
func (m *Metrics) RegisterBuildInfo(name, version string) {
	if m == nil || m.BuildInfo != nil {
		return
	}
	if name == "" {
		name = "unknown"
	}
	if version == "" {
		version = "unknown"
	}

	m.BuildInfo = m.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build information of the coordinate converter",
	}, []string{"name", "version"})

	m.BuildInfo.WithLabelValues(name, version).Set(1)
}
