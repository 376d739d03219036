package geo

import "math"

// Krasovsky 1940 椭球参数，仅用于 GCJ02 偏移模型。
const (
	pi = 3.1415926535897932384626

	krasovskySemiMajor = 6378245.0
	krasovskyEE        = 0.00669342162296594323
)

// transformLng 经度偏移量的经验多项式，系数与运算顺序必须保持不变。
func transformLng(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*pi) + 20.0*math.Sin(2.0*x*pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*pi) + 40.0*math.Sin(x/3.0*pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*pi) + 300.0*math.Sin(x/30.0*pi)) * 2.0 / 3.0
	return ret
}

// transformLat 纬度偏移量的经验多项式。
func transformLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*pi) + 20.0*math.Sin(2.0*x*pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*pi) + 40.0*math.Sin(y/3.0*pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*pi) + 320*math.Sin(y*pi/30.0)) * 2.0 / 3.0
	return ret
}

// Offset 计算 (lng, lat) 处 WGS84 与 GCJ02 之间的偏移量（单位：度）。
// 先以 (105, 35) 为中心求多项式偏移，再按 Krasovsky 椭球在该纬度的曲率半径换算成角度。
func Offset(lng, lat float64) (dLng, dLat float64) {
	dLng = transformLng(lng-105.0, lat-35.0)
	dLat = transformLat(lng-105.0, lat-35.0)

	radLat := lat / 180.0 * pi
	magic := math.Sin(radLat)
	magic = 1 - krasovskyEE*magic*magic
	sqrtMagic := math.Sqrt(magic)

	dLng = (dLng * 180.0) / (krasovskySemiMajor / sqrtMagic * math.Cos(radLat) * pi)
	dLat = (dLat * 180.0) / ((krasovskySemiMajor * (1 - krasovskyEE)) / (magic * sqrtMagic) * pi)
	return dLng, dLat
}
