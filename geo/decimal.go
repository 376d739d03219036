package geo

import "github.com/shopspring/decimal"

// DistanceDecimal 是 Distance 的高精度输入版本，常用于直接传入数据库 DECIMAL 列。
// 计算本身仍使用 float64。
func DistanceDecimal(lat1, lon1, lat2, lon2 decimal.Decimal) float64 {
	return Distance(lat1.InexactFloat64(), lon1.InexactFloat64(), lat2.InexactFloat64(), lon2.InexactFloat64())
}

// HaversineDistanceDecimal 是 HaversineDistance 的高精度输入版本。
func HaversineDistanceDecimal(lat1, lon1, lat2, lon2 decimal.Decimal) int64 {
	return HaversineDistance(lat1.InexactFloat64(), lon1.InexactFloat64(), lat2.InexactFloat64(), lon2.InexactFloat64())
}

// DecimalMeters 把 Distance 的结果转换为两位小数的 decimal，便于落库或对账时避免浮点尾差。
func DecimalMeters(meters float64) decimal.Decimal {
	return decimal.NewFromFloat(meters).Round(2)
}
