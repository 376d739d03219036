package xerrors

var (
	// ErrUnknownFrame 不支持的坐标系。
	ErrUnknownFrame = New(ErrInvalidArg, 400101, "unknown coordinate frame", "supported frames: wgs84, gcj02, bd09", nil)
	// ErrInvalidRecord 输入记录无法解析为经纬度。
	ErrInvalidRecord = New(ErrInvalidArg, 400102, "invalid coordinate record", "expected two decimal numbers: lng,lat", nil)
	// ErrOutOfRange 严格模式下经纬度超出合法范围。
	ErrOutOfRange = New(ErrInvalidArg, 400103, "coordinate out of range", "lng must be in [-180, 180], lat in [-90, 90]", nil)
	// ErrUnknownMethod 不支持的距离算法。
	ErrUnknownMethod = New(ErrInvalidArg, 400104, "unknown distance method", "supported methods: vincenty, haversine", nil)
	// ErrInvalidConfig 配置校验失败。
	ErrInvalidConfig = New(ErrInvalidArg, 400105, "invalid config", "check the configuration file and environment", nil)
	// ErrBatchCanceled 批量转换被取消。
	ErrBatchCanceled = New(ErrCanceled, 499101, "batch conversion canceled", "context canceled before all points were converted", nil)
	// ErrPoolClosed 工作池已关闭。
	ErrPoolClosed = New(ErrUnavailable, 503101, "worker pool is closed", "submit after Stop", nil)
)
