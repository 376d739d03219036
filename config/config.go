// Package config 提供 coordconv 的配置加载、校验与热更新。
// 配置来源优先级：环境变量 (COORD_ 前缀) > 配置文件 (TOML) > 默认值。
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wyfcoding/coordtransform/logging"
)

// Config 全局顶级配置结构.
type Config struct {
	Log       LogConfig       `mapstructure:"log"       toml:"log"`
	Converter ConverterConfig `mapstructure:"converter" toml:"converter"`
	Batch     BatchConfig     `mapstructure:"batch"     toml:"batch"`
	Cache     CacheConfig     `mapstructure:"cache"     toml:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   toml:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"   toml:"tracing"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"        toml:"file"`        // 日志文件路径，为空只输出到 stderr。
	Console    bool   `mapstructure:"console"     toml:"console"`     // 写文件时是否同时输出到 stderr。
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"    validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"     validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// ConverterConfig 定义坐标转换行为.
type ConverterConfig struct {
	// Precision 为 exact 时 GCJ02 => WGS84 使用二分迭代；approximate 使用单步近似。
	Precision string `mapstructure:"precision" toml:"precision" validate:"oneof=exact approximate"`
	// Strict 为 true 时拒绝超出 [-180,180]x[-90,90] 的输入。
	Strict bool `mapstructure:"strict" toml:"strict"`
}

// BatchConfig 定义批量转换的并发参数.
type BatchConfig struct {
	Workers   int `mapstructure:"workers"    toml:"workers"    validate:"min=1,max=1024"`
	QueueSize int `mapstructure:"queue_size" toml:"queue_size" validate:"min=1"`
}

// CacheConfig 定义精确逆变换结果的本地缓存.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" toml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"     toml:"ttl"     validate:"required_if=Enabled true"`
	MaxMB   int           `mapstructure:"max_mb"  toml:"max_mb"  validate:"gte=0"`
}

// MetricsConfig 定义指标导出。指标在进程退出时写入 Prometheus textfile，不监听端口。
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"  toml:"enabled"`
	Textfile string `mapstructure:"textfile" toml:"textfile" validate:"required_if=Enabled true"`
}

// TracingConfig 定义追踪输出。Span 写入本地文件。
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"      toml:"enabled"`
	ServiceName string  `mapstructure:"service_name" toml:"service_name"`
	File        string  `mapstructure:"file"         toml:"file"         validate:"required_if=Enabled true"`
	SampleRatio float64 `mapstructure:"sample_ratio" toml:"sample_ratio" validate:"gte=0,lte=1"`
}

// Exact 报告是否启用精确逆变换。
func (c ConverterConfig) Exact() bool {
	return c.Precision == "exact"
}

var validate = validator.New()

// SetDefaults 注册所有配置项的默认值.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.console", false)
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 7)
	v.SetDefault("converter.precision", "approximate")
	v.SetDefault("converter.strict", false)
	v.SetDefault("batch.workers", 8)
	v.SetDefault("batch.queue_size", 256)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 10*time.Minute)
	v.SetDefault("cache.max_mb", 64)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "coordconv")
	v.SetDefault("tracing.file", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Validate 对配置执行结构体校验.
func Validate(conf *Config) error {
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// flagBindings 命令行参数名到配置键的映射.
var flagBindings = map[string]string{
	"log-level": "log.level",
	"precision": "converter.precision",
	"strict":    "converter.strict",
	"workers":   "batch.workers",
}

// Load 加载配置。path 为空时只使用默认值与环境变量，且不开启文件监听。
func Load(path string) (*Config, error) {
	return LoadWithFlags(path, nil)
}

// LoadWithFlags 与 Load 相同，额外绑定命令行参数，显式给出的参数优先级最高.
func LoadWithFlags(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if flags != nil {
		for name, key := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetEnvPrefix("COORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := Validate(conf); err != nil {
		return nil, err
	}

	if path != "" {
		watch(v)
	}
	return conf, nil
}

// watch 监听配置文件变化。热更新只调整日志级别，其余配置在进程生命周期内保持不变。
func watch(v *viper.Viper) {
	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		if err := applyReload(v); err != nil {
			slog.Error("config reload rejected", "error", err)
			return
		}
		slog.Info("config hot-reloaded and validated successfully")
	})
	v.WatchConfig()
}

// applyReload 校验 v 中的新配置，通过后应用其日志级别。
func applyReload(v *viper.Viper) error {
	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := Validate(next); err != nil {
		return err
	}
	logging.SetLevel(next.Log.Level)
	return nil
}

// PrintWithMask 以日志形式打印当前生效的配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)
		return
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		slog.Error("failed to unmarshal config for masking", "error", err)
		return
	}
	mask(configMap)

	masked, err := json.Marshal(configMap)
	if err != nil {
		slog.Error("failed to marshal masked config", "error", err)
		return
	}
	slog.Debug("current effective configuration", "config", string(masked))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "token", "key"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}
		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}
