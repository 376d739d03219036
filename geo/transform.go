package geo

import "math"

// bd09Shift 是 BD09 在极坐标加偏之后附加的固定平移量。
const (
	bd09ShiftLng = 0.0065
	bd09ShiftLat = 0.006
)

// xPi 是 GCJ02 与 BD09 互转的中间量 π*3000/180。
// 必须按 float64 逐步求值：常量表达式的精确结果与通行实现相差 1 ulp。
var xPi = func() float64 {
	p := float64(pi)
	return p * 3000.0 / 180.0
}()

// WGS84ToGCJ02 地球坐标系 => 火星坐标系。境外坐标原样返回。
func WGS84ToGCJ02(lng, lat float64) Point {
	if OutOfChina(lng, lat) {
		return Point{Lng: lng, Lat: lat}
	}
	dLng, dLat := Offset(lng, lat)
	return Point{Lng: lng + dLng, Lat: lat + dLat}
}

// GCJ02ToWGS84 火星坐标系 => 地球坐标系（粗略）。
// 直接减去在 GCJ02 坐标处求得的偏移量，误差取决于偏移量的局部线性程度，通常在 1~2 米。
// 需要更高精度时使用 GCJ02ToWGS84Exactly。
func GCJ02ToWGS84(lng, lat float64) Point {
	if OutOfChina(lng, lat) {
		return Point{Lng: lng, Lat: lat}
	}
	dLng, dLat := Offset(lng, lat)
	return Point{Lng: lng - dLng, Lat: lat - dLat}
}

// GCJ02ToBD09 火星坐标系 => 百度坐标系。
func GCJ02ToBD09(lng, lat float64) Point {
	z := math.Sqrt(lng*lng+lat*lat) + 0.00002*math.Sin(lat*xPi)
	theta := math.Atan2(lat, lng) + 0.000003*math.Cos(lng*xPi)
	return Point{
		Lng: z*math.Cos(theta) + bd09ShiftLng,
		Lat: z*math.Sin(theta) + bd09ShiftLat,
	}
}

// BD09ToGCJ02 百度坐标系 => 火星坐标系。
// 扰动项以平移后的坐标求值并取反，并非严格的代数逆，往返误差约 1e-6 度。
func BD09ToGCJ02(lng, lat float64) Point {
	x := lng - bd09ShiftLng
	y := lat - bd09ShiftLat
	z := math.Sqrt(x*x+y*y) - 0.00002*math.Sin(y*xPi)
	theta := math.Atan2(y, x) - 0.000003*math.Cos(x*xPi)
	return Point{
		Lng: z * math.Cos(theta),
		Lat: z * math.Sin(theta),
	}
}

// WGS84ToBD09 地球坐标系 => 百度坐标系。
func WGS84ToBD09(lng, lat float64) Point {
	p := WGS84ToGCJ02(lng, lat)
	return GCJ02ToBD09(p.Lng, p.Lat)
}

// BD09ToWGS84 百度坐标系 => 地球坐标系。
// 中间的 GCJ02 => WGS84 一步使用粗略算法而非二分迭代，与通行实现保持一致。
func BD09ToWGS84(lng, lat float64) Point {
	p := BD09ToGCJ02(lng, lat)
	return GCJ02ToWGS84(p.Lng, p.Lat)
}
