package geo

import "math"

// WGS84 椭球参数，仅用于 Vincenty 距离计算。
const (
	wgs84SemiMajor     = 6378137.0
	wgs84SemiMinor     = 6356752.314245
	wgs84InvFlattening = 298.257223563

	vincentyThreshold     = 1e-12
	vincentyMaxIterations = 100
)

// earthRadiusKm 是 Haversine 使用的球体半径（千米）。
const earthRadiusKm = 6371.01

const degreeToRadFactor = math.Pi / 180.0

// Distance 使用 Vincenty 反解公式计算 WGS84 椭球上两点间的距离（单位：米，保留两位小数）。
// 注意参数顺序为纬度在前、经度在后。
// 两点重合或 100 次迭代内未收敛时返回 0。
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	d, _ := DistanceWithStats(lat1, lon1, lat2, lon2)
	return d
}

// DistanceWithStats 与 Distance 相同，额外返回迭代统计。
// 两点重合时返回 0 且 Converged 为 true；未收敛时返回 0 且 Converged 为 false。
func DistanceWithStats(lat1, lon1, lat2, lon2 float64) (float64, SolveStats) {
	// 以 float64 变量参与运算，保证与通行实现逐位一致
	a, b, invF := wgs84SemiMajor, wgs84SemiMinor, wgs84InvFlattening
	f := 1 / invF

	l := (lon2 - lon1) * degreeToRadFactor
	u1 := math.Atan((1 - f) * math.Tan(lat1*degreeToRadFactor))
	u2 := math.Atan((1 - f) * math.Tan(lat2*degreeToRadFactor))
	sinU1, cosU1 := math.Sin(u1), math.Cos(u1)
	sinU2, cosU2 := math.Sin(u2), math.Cos(u2)

	var (
		sinSigma, cosSigma, sigma float64
		cosSqAlpha, cos2SigmaM    float64
		stats                     SolveStats
	)
	lambda, iterLimit := l, vincentyMaxIterations
	for {
		sinLambda, cosLambda := math.Sin(lambda), math.Cos(lambda)
		sinSigma = math.Sqrt((cosU2*sinLambda)*(cosU2*sinLambda) +
			(cosU1*sinU2-sinU1*cosU2*cosLambda)*(cosU1*sinU2-sinU1*cosU2*cosLambda))
		if sinSigma == 0 {
			stats.Converged = true
			return 0, stats
		}

		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		} else {
			// 两点都在赤道上
			cos2SigmaM = 0
		}

		c := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
		lambdaP := lambda
		lambda = l + (1-c)*f*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		stats.Iterations++

		if math.Abs(lambda-lambdaP) <= vincentyThreshold {
			stats.Converged = true
			break
		}
		iterLimit--
		if iterLimit == 0 {
			return 0, stats
		}
	}

	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := bigB * sinSigma *
		(cos2SigmaM + bigB/4*
			(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-bigB/6*cos2SigmaM*
				(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	distance := b * bigA * (sigma - deltaSigma)
	return math.Round(distance*100.0) / 100.0, stats
}

// HaversineDistance 使用 Haversine 公式计算球面距离（单位：米，四舍五入取整）。
// 计算量远小于 Distance，误差约 0.3%~0.5%。
func HaversineDistance(lat1, lon1, lat2, lon2 float64) int64 {
	lat1Rad := lat1 * degreeToRadFactor
	lon1Rad := lon1 * degreeToRadFactor
	lat2Rad := lat2 * degreeToRadFactor
	lon2Rad := lon2 * degreeToRadFactor

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return roundMeters(earthRadiusKm * c * 1000)
}

// roundMeters 四舍五入到整数米。NaN 得 0，超出 int64 的值截断到边界，
// 非有限输入不会得到负距离。
func roundMeters(m float64) int64 {
	switch {
	case math.IsNaN(m):
		return 0
	case m >= math.MaxInt64:
		return math.MaxInt64
	case m <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Round(m))
}

// WithinRange 检查两点的球面距离是否不超过 meters 米。任一坐标为 NaN 或无穷时返回 false。
func WithinRange(p1, p2 Point, meters float64) bool {
	for _, v := range [...]float64{p1.Lng, p1.Lat, p2.Lng, p2.Lat} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return float64(HaversineDistance(p1.Lat, p1.Lng, p2.Lat, p2.Lng)) <= meters
}
