// Package validator 提供坐标输入的合法性校验，基于 go-playground/validator。
package validator

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/wyfcoding/coordtransform/geo"
	"github.com/wyfcoding/coordtransform/xerrors"
)

var validate = validator.New()

// IsValidLng 判断经度是否在 [-180, 180] 闭区间内。
func IsValidLng(lng float64) bool {
	return validate.Var(lng, "longitude") == nil
}

// IsValidLat 判断纬度是否在 [-90, 90] 闭区间内。
func IsValidLat(lat float64) bool {
	return validate.Var(lat, "latitude") == nil
}

// IsFinite 判断数值既不是 NaN 也不是无穷。
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidatePoint 校验单个坐标点，越界时返回 xerrors.ErrOutOfRange 的派生错误。
func ValidatePoint(p geo.Point) error {
	if !IsFinite(p.Lng) || !IsFinite(p.Lat) {
		return xerrors.ErrOutOfRange.Derive(fmt.Errorf("non-finite coordinate %s", p)).
			WithContext("lng", p.Lng).
			WithContext("lat", p.Lat)
	}
	if !IsValidLng(p.Lng) {
		return xerrors.ErrOutOfRange.Derive(fmt.Errorf("longitude %v out of range", p.Lng)).
			WithContext("lng", p.Lng)
	}
	if !IsValidLat(p.Lat) {
		return xerrors.ErrOutOfRange.Derive(fmt.Errorf("latitude %v out of range", p.Lat)).
			WithContext("lat", p.Lat)
	}
	return nil
}

// ValidatePoints 逐个校验，返回第一个非法点的错误，错误上下文带有下标。
func ValidatePoints(points []geo.Point) error {
	for i, p := range points {
		if err := ValidatePoint(p); err != nil {
			if e, ok := xerrors.FromError(err); ok {
				e.WithContext("index", i)
			}
			return err
		}
	}
	return nil
}
