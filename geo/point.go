// Package geo 提供 WGS84 / GCJ02 / BD09 三种坐标系之间的转换，以及两种大地距离算法。
//
// WGS84 是 GPS/北斗芯片直接给出的地球坐标；GCJ02 是国内公开地图必须使用的加偏坐标
// （高德、腾讯等）；BD09 是百度在 GCJ02 基础上再次加偏的坐标。
// 包内所有函数都是纯函数，只读取编译期常量，可以被任意多个 goroutine 并发调用。
package geo

import "fmt"

// Point 表示一个经纬度坐标点（单位：度）。
// 坐标所属的坐标系由产生它的函数决定，结构体本身不携带坐标系信息。
type Point struct {
	Lng float64 `json:"lng"` // 经度
	Lat float64 `json:"lat"` // 纬度
}

// String 返回便于日志输出的格式。
func (p Point) String() string {
	return fmt.Sprintf("Point{lng=%v, lat=%v}", p.Lng, p.Lat)
}
