package geo

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFrame 表示不支持的坐标系名称或取值。
var ErrUnknownFrame = errors.New("unknown coordinate frame")

// Frame 标识坐标所属的坐标系。
type Frame int

const (
	WGS84 Frame = iota + 1 // 地球坐标系
	GCJ02                  // 火星坐标系
	BD09                   // 百度坐标系
)

var frameNames = map[Frame]string{
	WGS84: "wgs84",
	GCJ02: "gcj02",
	BD09:  "bd09",
}

func (f Frame) String() string {
	if name, ok := frameNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Frame(%d)", int(f))
}

// Valid 报告 f 是否为受支持的坐标系。
func (f Frame) Valid() bool {
	_, ok := frameNames[f]
	return ok
}

// ParseFrame 解析坐标系名称，大小写不敏感，允许 "gcj-02" 这类带连字符的写法。
func ParseFrame(name string) (Frame, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "")
	for f, n := range frameNames {
		if n == normalized {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFrame, name)
}

// Convert 把 p 从 from 坐标系转换到 to 坐标系。
// exact 为 true 时，凡是经过 GCJ02 => WGS84 的路径都使用二分迭代的精确算法；
// 为 false 时 BD09 => WGS84 保持粗略算法。from 与 to 相同时原样返回。
func Convert(from, to Frame, p Point, exact bool) (Point, error) {
	if !from.Valid() {
		return Point{}, fmt.Errorf("%w: source %s", ErrUnknownFrame, from)
	}
	if !to.Valid() {
		return Point{}, fmt.Errorf("%w: target %s", ErrUnknownFrame, to)
	}

	gcjToWgs := GCJ02ToWGS84
	if exact {
		gcjToWgs = GCJ02ToWGS84Exactly
	}

	switch {
	case from == to:
		return p, nil
	case from == WGS84 && to == GCJ02:
		return WGS84ToGCJ02(p.Lng, p.Lat), nil
	case from == WGS84 && to == BD09:
		return WGS84ToBD09(p.Lng, p.Lat), nil
	case from == GCJ02 && to == WGS84:
		return gcjToWgs(p.Lng, p.Lat), nil
	case from == GCJ02 && to == BD09:
		return GCJ02ToBD09(p.Lng, p.Lat), nil
	case from == BD09 && to == GCJ02:
		return BD09ToGCJ02(p.Lng, p.Lat), nil
	default: // BD09 => WGS84
		if !exact {
			return BD09ToWGS84(p.Lng, p.Lat), nil
		}
		gcj := BD09ToGCJ02(p.Lng, p.Lat)
		return gcjToWgs(gcj.Lng, gcj.Lat), nil
	}
}

// UsesSolver 报告在给定精度下，from => to 的转换是否会调用二分迭代求解。
func UsesSolver(from, to Frame, exact bool) bool {
	return exact && to == WGS84 && (from == GCJ02 || from == BD09)
}
