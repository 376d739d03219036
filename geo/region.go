package geo

// 中国境内粗略矩形范围，超出此范围的坐标不做加偏处理。
const (
	minChinaLng = 72.004
	maxChinaLng = 137.8347
	minChinaLat = 0.8293
	maxChinaLat = 55.8271
)

// OutOfChina 判断坐标是否位于中国境外，境外返回 true。
// 这是一个粗略的矩形判断，边界附近的误判属于约定行为。
func OutOfChina(lng, lat float64) bool {
	if lng < minChinaLng || lng > maxChinaLng {
		return true
	}
	if lat < minChinaLat || lat > maxChinaLat {
		return true
	}
	return false
}
