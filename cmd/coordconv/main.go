// coordconv 是离线坐标转换工具：从标准输入读取坐标，转换后写到标准输出。
//
//	coordconv convert --from wgs84 --to gcj02 [--exact] [--format csv|json] < in.csv
//	coordconv distance [--method vincenty|haversine] lat1 lon1 lat2 lon2
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/wyfcoding/coordtransform/cache"
	"github.com/wyfcoding/coordtransform/config"
	"github.com/wyfcoding/coordtransform/convert"
	"github.com/wyfcoding/coordtransform/geo"
	"github.com/wyfcoding/coordtransform/logging"
	"github.com/wyfcoding/coordtransform/metrics"
	"github.com/wyfcoding/coordtransform/tracing"
	"github.com/wyfcoding/coordtransform/xerrors"
)

// version 由构建参数注入：-ldflags "-X main.version=..."
var version = "dev"

const usage = `usage:
  coordconv convert  --from FRAME --to FRAME [--exact] [--format csv|json] [flags]
  coordconv distance [--method vincenty|haversine] lat1 lon1 lat2 lon2 [flags]

frames: wgs84, gcj02, bd09
put "--" before negative positional values, e.g. distance -- -33.86 151.2 0 0
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run 执行一次命令并返回退出码。
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "load .env: %v\n", err)
	}

	var err error
	switch args[0] {
	case "convert":
		err = runConvert(ctx, args[1:], stdin, stdout, stderr)
	case "distance":
		err = runDistance(ctx, args[1:], stdout, stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	case "version":
		fmt.Fprintln(stdout, version)
		return 0
	default:
		err = xerrors.InvalidArg(fmt.Sprintf("unknown command %q", args[0]))
		fmt.Fprint(stderr, usage)
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "coordconv: %v\n", err)
		return xerrors.ExitCode(err)
	}
	return 0
}

// commonFlags 注册 convert 与 distance 共用的参数。
func commonFlags(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringP("config", "c", "", "TOML config file")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Bool("strict", false, "reject coordinates outside [-180,180]x[-90,90]")
	fs.String("metrics-file", "", "write Prometheus metrics to this textfile on exit")
	fs.String("trace-file", "", "write spans to this file")
	return fs
}

// runtimeEnv 是一次命令执行所需的全部依赖。
type runtimeEnv struct {
	cfg      *config.Config
	logger   *logging.Logger
	metrics  *metrics.Metrics
	cleanups []func()
}

func (e *runtimeEnv) close() {
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		e.cleanups[i]()
	}
}

// setup 加载配置并初始化日志、指标、追踪。
func setup(command string, fs *pflag.FlagSet, stderr io.Writer) (*runtimeEnv, error) {
	path, _ := fs.GetString("config")
	cfg, err := config.LoadWithFlags(path, fs)
	if err != nil {
		return nil, xerrors.ErrInvalidConfig.Derive(err)
	}
	if f, _ := fs.GetString("metrics-file"); f != "" {
		cfg.Metrics.Enabled, cfg.Metrics.Textfile = true, f
	}
	if f, _ := fs.GetString("trace-file"); f != "" {
		cfg.Tracing.Enabled, cfg.Tracing.File = true, f
	}

	logger := logging.NewFromConfig(logging.Config{
		Service:    "coordconv",
		Module:     command,
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		Console:    cfg.Log.Console,
		Output:     stderr,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	slog.SetDefault(logger.Logger)
	config.PrintWithMask(cfg)

	env := &runtimeEnv{cfg: cfg, logger: logger}

	shutdown, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		return nil, xerrors.WrapInternal(err, "init tracer")
	}
	env.cleanups = append(env.cleanups, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			env.logger.Error("tracer shutdown failed", "error", err)
		}
	})

	if cfg.Metrics.Enabled {
		env.metrics = metrics.NewMetrics("coordtransform")
		env.metrics.RegisterBuildInfo("coordconv", version)
		env.cleanups = append(env.cleanups, func() {
			if err := env.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				env.logger.Error("write metrics failed", "error", err)
			}
		})
	}
	return env, nil
}

func (e *runtimeEnv) service(exact bool) (*convert.Service, error) {
	opts := []convert.Option{
		convert.WithLogger(e.logger.Logger),
		convert.WithExact(exact),
		convert.WithStrict(e.cfg.Converter.Strict),
		convert.WithWorkers(e.cfg.Batch.Workers, e.cfg.Batch.QueueSize),
		convert.WithTracer(tracing.Tracer()),
	}
	if e.metrics != nil {
		opts = append(opts, convert.WithMetrics(e.metrics))
	}
	if e.cfg.Cache.Enabled && exact {
		c, err := cache.NewBigCache(e.cfg.Cache.TTL, e.cfg.Cache.MaxMB)
		if err != nil {
			return nil, xerrors.WrapInternal(err, "init cache")
		}
		e.cleanups = append(e.cleanups, func() {
			st := c.Stats()
			e.logger.Debug("cache stats", "entries", c.Len(), "hits", st.Hits, "misses", st.Misses)
			_ = c.Close()
		})
		opts = append(opts, convert.WithCache(c, e.cfg.Cache.TTL))
	}
	svc := convert.NewService(opts...)
	e.cleanups = append(e.cleanups, svc.Close)
	return svc, nil
}

func runConvert(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := commonFlags("convert", stderr)
	fromName := fs.String("from", "", "source frame")
	toName := fs.String("to", "", "target frame")
	exact := fs.Bool("exact", false, "use the iterative GCJ02 => WGS84 inverse")
	fs.String("precision", "approximate", "exact or approximate, --exact is a shorthand for exact")
	fs.Int("workers", 8, "number of concurrent workers")
	formatName := fs.String("format", "csv", "input/output format: csv or json")
	if err := fs.Parse(args); err != nil {
		return parseError(err)
	}

	from, err := geo.ParseFrame(*fromName)
	if err != nil {
		return xerrors.ErrUnknownFrame.Derive(err)
	}
	to, err := geo.ParseFrame(*toName)
	if err != nil {
		return xerrors.ErrUnknownFrame.Derive(err)
	}
	format, err := convert.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	env, err := setup("convert", fs, stderr)
	if err != nil {
		return err
	}
	defer env.close()

	svc, err := env.service(*exact || env.cfg.Converter.Exact())
	if err != nil {
		return err
	}

	done := env.logger.LogDuration(ctx, "convert", "from", from.String(), "to", to.String())
	records, err := convert.ReadAll(stdin, format)
	if err != nil {
		return err
	}
	points := make([]geo.Point, len(records))
	for i, rec := range records {
		points[i] = rec.Point
	}

	out, err := svc.Batch(ctx, from, to, points)
	if err != nil {
		if e, ok := xerrors.FromError(err); ok {
			if i, ok := e.Context["index"].(int); ok {
				e.WithContext("line", records[i].Line)
				return fmt.Errorf("line %d: %w", records[i].Line, err)
			}
		}
		return err
	}

	enc := convert.NewEncoder(stdout, format)
	for _, p := range out {
		if err := enc.Encode(p); err != nil {
			return xerrors.WrapInternal(err, "write output")
		}
	}
	if err := enc.Flush(); err != nil {
		return xerrors.WrapInternal(err, "write output")
	}
	done()
	env.logger.DebugContext(ctx, "conversion stats", "points", len(out), "exact", svc.Exact())
	return nil
}

func runDistance(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := commonFlags("distance", stderr)
	methodName := fs.String("method", string(convert.MethodVincenty), "vincenty or haversine")
	if err := fs.Parse(args); err != nil {
		return parseError(err)
	}

	method, err := convert.ParseMethod(*methodName)
	if err != nil {
		return err
	}
	if fs.NArg() != 4 {
		return xerrors.InvalidArg(fmt.Sprintf("distance expects 4 arguments (lat1 lon1 lat2 lon2), got %d", fs.NArg()))
	}
	var v [4]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(fs.Arg(i), 64)
		if err != nil {
			return xerrors.ErrInvalidRecord.Derive(err).WithContext("arg", i+1)
		}
	}

	env, err := setup("distance", fs, stderr)
	if err != nil {
		return err
	}
	defer env.close()

	svc, err := env.service(false)
	if err != nil {
		return err
	}

	a := geo.Point{Lat: v[0], Lng: v[1]}
	b := geo.Point{Lat: v[2], Lng: v[3]}
	meters, err := svc.Distance(ctx, method, a, b)
	if err != nil {
		return err
	}

	if method == convert.MethodHaversine {
		fmt.Fprintf(stdout, "%.0f\n", meters)
	} else {
		fmt.Fprintf(stdout, "%.2f\n", meters)
	}
	return nil
}

func parseError(err error) error {
	if errors.Is(err, pflag.ErrHelp) {
		return err
	}
	return xerrors.Wrap(err, xerrors.ErrInvalidArg, "invalid flags")
}
