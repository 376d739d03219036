package geo

import "math"

const (
	exactInitDelta     = 0.01
	exactThreshold     = 0.000000001
	exactMaxIterations = 10000
)

// SolveStats 描述一次迭代求解的过程，供上层记录指标与日志。
type SolveStats struct {
	Iterations int  // 实际迭代次数
	Converged  bool // 是否在迭代上限内收敛
}

// GCJ02ToWGS84Exactly 火星坐标系 => 地球坐标系（精确）。
// 以 WGS84ToGCJ02 为判定函数做二分搜索，残差两个分量都小于 1e-9 度时停止。
func GCJ02ToWGS84Exactly(lng, lat float64) Point {
	p, _ := GCJ02ToWGS84ExactlyStats(lng, lat)
	return p
}

// GCJ02ToWGS84ExactlyStats 与 GCJ02ToWGS84Exactly 相同，额外返回迭代统计。
// 超过 10000 次仍未收敛时返回最后一次的中点，不视为错误。
func GCJ02ToWGS84ExactlyStats(lng, lat float64) (Point, SolveStats) {
	if OutOfChina(lng, lat) {
		return Point{Lng: lng, Lat: lat}, SolveStats{Converged: true}
	}

	mLat, mLng := lat-exactInitDelta, lng-exactInitDelta
	pLat, pLng := lat+exactInitDelta, lng+exactInitDelta

	var (
		wgsLat, wgsLng float64
		stats          SolveStats
	)
	for {
		wgsLat = (mLat + pLat) / 2
		wgsLng = (mLng + pLng) / 2

		gcj := WGS84ToGCJ02(wgsLng, wgsLat)
		dLng := gcj.Lng - lng
		dLat := gcj.Lat - lat
		if math.Abs(dLat) < exactThreshold && math.Abs(dLng) < exactThreshold {
			stats.Converged = true
			break
		}

		if dLat > 0 {
			pLat = wgsLat
		} else {
			mLat = wgsLat
		}
		if dLng > 0 {
			pLng = wgsLng
		} else {
			mLng = wgsLng
		}

		stats.Iterations++
		if stats.Iterations > exactMaxIterations {
			break
		}
	}

	return Point{Lng: wgsLng, Lat: wgsLat}, stats
}
