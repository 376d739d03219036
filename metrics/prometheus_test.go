package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNamespaceAndTextfile(t *testing.T) {
	m := NewMetrics("coordtransform")
	cv := m.NewCounterVec(prometheus.CounterOpts{
		Name: "conversions_total",
		Help: "test counter",
	}, []string{"from", "to"})
	cv.WithLabelValues("wgs84", "gcj02").Add(3)
	m.RegisterBuildInfo("coordconv", "")
	m.RegisterBuildInfo("ignored", "ignored")

	if got := testutil.ToFloat64(cv.WithLabelValues("wgs84", "gcj02")); got != 3 {
		t.Errorf("counter = %v, want 3", got)
	}

	path := filepath.Join(t.TempDir(), "coordconv.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		`coordtransform_conversions_total{from="wgs84",to="gcj02"} 3`,
		`coordtransform_build_info{name="coordconv",version="unknown"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
	if strings.Contains(out, "ignored") {
		t.Errorf("second RegisterBuildInfo call should be a no-op")
	}
}
