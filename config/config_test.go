package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wyfcoding/coordtransform/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coordconv.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}
	if conf.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", conf.Log.Level)
	}
	if conf.Converter.Exact() {
		t.Errorf("default precision should be approximate")
	}
	if conf.Batch.Workers != 8 || conf.Batch.QueueSize != 256 {
		t.Errorf("unexpected batch defaults: %+v", conf.Batch)
	}
	if conf.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %v, want 10m", conf.Cache.TTL)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"

[converter]
precision = "exact"
strict = true

[batch]
workers = 4
queue_size = 32

[cache]
enabled = true
ttl = "30s"
max_mb = 16
`)

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", path, err)
	}
	if !conf.Converter.Exact() || !conf.Converter.Strict {
		t.Errorf("converter = %+v, want exact strict", conf.Converter)
	}
	if conf.Batch.Workers != 4 || conf.Batch.QueueSize != 32 {
		t.Errorf("batch = %+v", conf.Batch)
	}
	if !conf.Cache.Enabled || conf.Cache.TTL != 30*time.Second || conf.Cache.MaxMB != 16 {
		t.Errorf("cache = %+v", conf.Cache)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("COORD_BATCH_WORKERS", "2")
	t.Setenv("COORD_CONVERTER_PRECISION", "exact")

	conf, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if conf.Batch.Workers != 2 {
		t.Errorf("Batch.Workers = %d, want 2 from env", conf.Batch.Workers)
	}
	if !conf.Converter.Exact() {
		t.Errorf("precision from env not applied")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad precision":            "[converter]\nprecision = \"fast\"\n",
		"zero workers":             "[batch]\nworkers = 0\n",
		"metrics without textfile": "[metrics]\nenabled = true\n",
		"sample ratio above one":   "[tracing]\nsample_ratio = 2.0\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			if err == nil || !strings.Contains(err.Error(), "validation failed") {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoadWithFlags(t *testing.T) {
	path := writeConfig(t, `
[converter]
precision = "approximate"

[batch]
workers = 2
`)
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	fs.String("precision", "approximate", "")
	fs.Int("workers", 8, "")
	fs.Bool("strict", false, "")
	if err := fs.Parse([]string{"--precision=exact", "--strict"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	conf, err := LoadWithFlags(path, fs)
	if err != nil {
		t.Fatalf("LoadWithFlags: %v", err)
	}
	if !conf.Converter.Exact() {
		t.Errorf("explicit --precision should win over the file")
	}
	if !conf.Converter.Strict {
		t.Errorf("--strict not applied")
	}
	if conf.Batch.Workers != 2 {
		t.Errorf("Batch.Workers = %d, want 2 from file (flag not set)", conf.Batch.Workers)
	}
}

func TestApplyReloadOnlyChangesLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewFromConfig(logging.Config{Service: "test", Level: "info", Output: &buf})
	t.Cleanup(func() { logging.SetLevel("info") })

	logger.Debug("before reload")
	if strings.Contains(buf.String(), "before reload") {
		t.Fatalf("debug output at info level: %s", buf.String())
	}

	v := viper.New()
	SetDefaults(v)
	v.Set("log.level", "debug")
	if err := applyReload(v); err != nil {
		t.Fatalf("applyReload: %v", err)
	}
	logger.Debug("after reload")
	if !strings.Contains(buf.String(), "after reload") {
		t.Errorf("log level not applied: %s", buf.String())
	}

	// 非法配置整体拒绝，已生效的级别保持不变
	v.Set("log.level", "verbose")
	if err := applyReload(v); err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("applyReload(verbose) = %v, want validation error", err)
	}
	buf.Reset()
	logger.Debug("still debug")
	if !strings.Contains(buf.String(), "still debug") {
		t.Errorf("rejected reload changed the level")
	}
}

func TestMask(t *testing.T) {
	m := map[string]any{
		"tracing": map[string]any{"auth_token": "abc", "file": "spans.json"},
	}
	mask(m)
	inner := m["tracing"].(map[string]any)
	if inner["auth_token"] != "******" || inner["file"] != "spans.json" {
		t.Errorf("unexpected mask result: %v", inner)
	}
}
