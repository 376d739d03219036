package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestConvertCSV(t *testing.T) {
	out, errOut, code := runCLI(t, "116.3972,39.9163\n", "convert", "--from", "wgs84", "--to", "gcj02")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if out != "116.40344448050773,39.91770375650534\n" {
		t.Errorf("stdout = %q", out)
	}
}

func TestConvertJSONExact(t *testing.T) {
	in := `{"lng":116.40344448050773,"lat":39.91770375650534}` + "\n"
	out, errOut, code := runCLI(t, in, "convert", "--from=gcj02", "--to=wgs84", "--exact", "--format=json")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	var p struct{ Lng, Lat float64 }
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if math.Abs(p.Lng-116.3972) > 1e-7 || math.Abs(p.Lat-39.9163) > 1e-7 {
		t.Errorf("exact inverse = %+v, want close to 116.3972,39.9163", p)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		code  int
		want  string
	}{
		{"unknown frame", "", []string{"convert", "--from", "utm", "--to", "wgs84"}, 2, "unknown coordinate frame"},
		{"bad record", "1,2\nx,y\n", []string{"convert", "--from", "wgs84", "--to", "bd09"}, 2, "invalid coordinate record"},
		{"strict range", "1,2\n190,2\n", []string{"convert", "--from", "wgs84", "--to", "bd09", "--strict"}, 2, "line 2"},
		{"non-finite result", `{"lng":1e308,"lat":1e308}` + "\n", []string{"convert", "--from", "gcj02", "--to", "bd09", "--format", "json"}, 2, "coordinate out of range"},
		{"unknown command", "", []string{"project"}, 2, "unknown command"},
		{"no command", "", nil, 2, "usage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := runCLI(t, tt.stdin, tt.args...)
			if code != tt.code {
				t.Errorf("exit code = %d, want %d", code, tt.code)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr = %q, want it to contain %q", errOut, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	out, errOut, code := runCLI(t, "", "distance", "24.88", "102.84", "39.89", "116.45")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if out != "2094702.81\n" {
		t.Errorf("vincenty = %q", out)
	}

	out, _, code = runCLI(t, "", "distance", "--method", "haversine", "24.88", "102.84", "39.89", "116.45")
	if code != 0 || out != "2096671\n" {
		t.Errorf("haversine = %q (exit %d)", out, code)
	}

	if _, _, code := runCLI(t, "", "distance", "--method", "taxicab", "0", "0", "1", "1"); code != 2 {
		t.Errorf("unknown method exit code = %d, want 2", code)
	}
	if _, _, code := runCLI(t, "", "distance", "1", "2"); code != 2 {
		t.Errorf("missing args exit code = %d, want 2", code)
	}
}

func TestMetricsAndTraceFiles(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "coordconv.prom")
	traceFile := filepath.Join(dir, "spans.json")

	_, errOut, code := runCLI(t, "116.3972,39.9163\n121.4737,31.2304\n",
		"convert", "--from", "wgs84", "--to", "gcj02",
		"--metrics-file", metricsFile, "--trace-file", traceFile)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}

	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), `coordtransform_conversions_total{from="wgs84",to="gcj02"} 2`) {
		t.Errorf("metrics textfile missing conversions counter:\n%s", prom)
	}

	spans, err := os.ReadFile(traceFile)
	if err != nil {
		t.Fatalf("read spans: %v", err)
	}
	if !strings.Contains(string(spans), "geo.batch") {
		t.Errorf("span file missing geo.batch span")
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordconv.toml")
	content := "[converter]\nstrict = true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, errOut, code := runCLI(t, "500,0\n", "convert", "--config", path, "--from", "wgs84", "--to", "gcj02")
	if code != 2 || !strings.Contains(errOut, "coordinate out of range") {
		t.Errorf("exit code = %d, stderr = %q", code, errOut)
	}
}

func TestCacheStatsLoggedOnExit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coordconv.toml")
	content := "[cache]\nenabled = true\nmax_mb = 8\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	in := "116.40344448050773,39.91770375650534\n116.40344448050773,39.91770375650534\n"
	_, errOut, code := runCLI(t, in, "convert", "--config", path, "--log-level", "debug",
		"--from", "gcj02", "--to", "wgs84", "--exact")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(errOut, "cache stats") {
		t.Errorf("stderr missing cache stats: %s", errOut)
	}
}
